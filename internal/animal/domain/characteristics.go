package domain

// Option is a closed-set value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Characteristics struct {
	TemperamentTraits      []Option `json:"temperament_traits"`
	EnvironmentPreferences []Option `json:"environment_preferences"`
	SociableWith           []Option `json:"sociable_with"`
}

var TemperamentTraits = []Option{
	{Value: "docile", Label: "Docile"},
	{Value: "playful", Label: "Playful"},
	{Value: "calm", Label: "Calm"},
	{Value: "shy", Label: "Shy"},
	{Value: "protective", Label: "Protective"},
	{Value: "energetic", Label: "Energetic"},
}

var EnvironmentPreferences = []Option{
	{Value: "apartment", Label: "Apartment"},
	{Value: "house_with_yard", Label: "House with yard"},
	{Value: "farm_or_ranch", Label: "Farm or ranch"},
	{Value: "active_family", Label: "Active family"},
}

var SociableTargets = []Option{
	{Value: "dogs", Label: "Dogs"},
	{Value: "cats", Label: "Cats"},
	{Value: "children", Label: "Children"},
	{Value: "unknown_people", Label: "Strangers"},
	{Value: "elderly", Label: "Elderly people"},
	{Value: "other_pets", Label: "Other pets"},
}

var (
	Statuses = []string{StatusAvailable, StatusReserved, StatusAdopted, StatusDraft}
	Sexes    = []string{SexMale, SexFemale, SexUnknown}
	Sizes    = []string{SizeSmall, SizeMedium, SizeLarge, SizeUnknown}
)

// AllCharacteristics returns copies of the label tables.
func AllCharacteristics() Characteristics {
	return Characteristics{
		TemperamentTraits:      append([]Option(nil), TemperamentTraits...),
		EnvironmentPreferences: append([]Option(nil), EnvironmentPreferences...),
		SociableWith:           append([]Option(nil), SociableTargets...),
	}
}

// IsOption reports whether value belongs to the closed set.
func IsOption(options []Option, value string) bool {
	for _, option := range options {
		if option.Value == value {
			return true
		}
	}
	return false
}

func IsOneOf(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
