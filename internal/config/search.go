package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// SearchConfig tunes the proximity searches. It is loaded once at startup.
type SearchConfig struct {
	OrganizationDefaultRadiusKm float64 `mapstructure:"organizationDefaultRadiusKm"`
	AnimalDefaultRadiusKm       float64 `mapstructure:"animalDefaultRadiusKm"`
	AnimalMaxRadiusKm           float64 `mapstructure:"animalMaxRadiusKm"`
	DefaultLimit                int     `mapstructure:"defaultLimit"`
	MaxLimit                    int     `mapstructure:"maxLimit"`
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		OrganizationDefaultRadiusKm: 25,
		AnimalDefaultRadiusKm:       50,
		AnimalMaxRadiusKm:           500,
		DefaultLimit:                20,
		MaxLimit:                    100,
	}
}

func LoadSearchConfig(cfg Config) (SearchConfig, error) {
	v := viper.New()

	v.SetConfigName("search")
	v.SetConfigType("yml")
	if path := strings.TrimSpace(cfg.SearchConfigPath); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("/etc/adopet")
	v.AddConfigPath(".")

	v.SetEnvPrefix("ADOPET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultSearchConfig()
	v.SetDefault("search.organizationDefaultRadiusKm", defaults.OrganizationDefaultRadiusKm)
	v.SetDefault("search.animalDefaultRadiusKm", defaults.AnimalDefaultRadiusKm)
	v.SetDefault("search.animalMaxRadiusKm", defaults.AnimalMaxRadiusKm)
	v.SetDefault("search.defaultLimit", defaults.DefaultLimit)
	v.SetDefault("search.maxLimit", defaults.MaxLimit)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return SearchConfig{}, err
		}
	}

	// Unmarshal over the whole tree so keys absent from a partial file keep
	// their defaults.
	var file struct {
		Search SearchConfig `mapstructure:"search"`
	}
	if err := v.Unmarshal(&file); err != nil {
		return SearchConfig{}, err
	}
	if err := validateSearchConfig(file.Search); err != nil {
		return SearchConfig{}, err
	}
	return file.Search, nil
}

func validateSearchConfig(cfg SearchConfig) error {
	if cfg.OrganizationDefaultRadiusKm <= 0 || cfg.AnimalDefaultRadiusKm <= 0 {
		return errors.New("search default radius must be positive")
	}
	if cfg.AnimalMaxRadiusKm < cfg.AnimalDefaultRadiusKm {
		return errors.New("search.animalMaxRadiusKm must not be below the default radius")
	}
	if cfg.DefaultLimit <= 0 || cfg.MaxLimit < cfg.DefaultLimit {
		return errors.New("search limits are inconsistent")
	}
	return nil
}
