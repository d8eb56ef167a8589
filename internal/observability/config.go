package observability

import (
	"strings"

	"github.com/smallbiznis/adopet/internal/config"
)

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	// OTLP is shared by the trace and metric exporters.
	OTLP OTLPConfig
}

type OTLPConfig struct {
	Enabled       bool
	Endpoint      string
	Protocol      string
	SamplingRatio float64
}

func LoadConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "adopet"
	}
	ratio := cfg.OtelSamplingRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.1
	}

	return Config{
		ServiceName: name,
		Environment: strings.ToLower(strings.TrimSpace(cfg.Environment)),
		Version:     strings.TrimSpace(cfg.AppVersion),
		LogLevel:    strings.TrimSpace(cfg.LogLevel),
		LogFormat:   strings.TrimSpace(cfg.LogFormat),
		OTLP: OTLPConfig{
			Enabled:       cfg.OtelEnabled && strings.TrimSpace(cfg.OTLPEndpoint) != "",
			Endpoint:      strings.TrimSpace(cfg.OTLPEndpoint),
			Protocol:      strings.TrimSpace(cfg.OTLPProtocol),
			SamplingRatio: ratio,
		},
	}
}

// Development reports whether verbose diagnostics (stack traces, caller,
// gin debug output) are wanted.
func (c Config) Development() bool {
	if strings.EqualFold(c.LogLevel, "debug") {
		return true
	}
	switch c.Environment {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}
