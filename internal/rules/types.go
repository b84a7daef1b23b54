package rules

// Substitution is one alias or rewrite entry.
type Substitution struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to"`
}

type LineRule struct {
	Line              string `yaml:"line" validate:"required"`
	DirectionContains string `yaml:"direction_contains" validate:"required"`
	Corrected         string `yaml:"corrected" validate:"required"`
}

type LineDirection struct {
	Line      string `yaml:"line" validate:"required"`
	Direction string `yaml:"direction" validate:"required"`
}

type Passages struct {
	StripSuffix string          `yaml:"strip_suffix"`
	Drop        []LineDirection `yaml:"drop" validate:"dive"`
	Lines       []string        `yaml:"lines" validate:"dive,required"`
}

type Thresholds struct {
	Terminus         int `yaml:"terminus" validate:"gte=0,lte=100"`
	StationDirection int `yaml:"station_direction" validate:"gte=0,lte=100"`
}

type Bikes struct {
	LowBikes int `yaml:"low_bikes" validate:"gte=0"`
}

type Closure struct {
	Entity            string   `yaml:"entity"`
	Weekdays          []string `yaml:"weekdays" validate:"dive,oneof=Lundi Mardi Mercredi Jeudi Vendredi Samedi Dimanche"`
	FromHour          *int     `yaml:"from_hour" validate:"omitempty,gte=0,lte=23"`
	ToHour            *int     `yaml:"to_hour" validate:"omitempty,gte=0,lte=23"`
	WhenNoneAvailable bool     `yaml:"when_none_available"`
}

type ParkRide struct {
	NameRewrites []Substitution `yaml:"name_rewrites" validate:"dive"`
	Excluded     []string       `yaml:"excluded" validate:"dive,required"`
	Closures     []Closure      `yaml:"closures" validate:"dive"`
}

// Family styles one transport family on the network map.
type Family struct {
	Code   string `yaml:"code" validate:"required"`
	Label  string `yaml:"label" validate:"required"`
	Color  string `yaml:"color" validate:"required,hexcolor"`
	Weight int    `yaml:"weight" validate:"gt=0"`
	Hidden bool   `yaml:"hidden"`
}

// Tables is the root of the rules document.
type Tables struct {
	StopAliases     []Substitution `yaml:"stop_aliases" validate:"dive"`
	TerminusAliases []Substitution `yaml:"terminus_aliases" validate:"dive"`
	LineRules       []LineRule     `yaml:"line_rules" validate:"dive"`
	Passages        Passages       `yaml:"passages"`
	Termini         []string       `yaml:"termini" validate:"min=1,dive,required"`
	Thresholds      Thresholds     `yaml:"thresholds"`
	Bikes           Bikes          `yaml:"bikes"`
	ParkRide        ParkRide       `yaml:"park_ride"`
	Network         []Family       `yaml:"network" validate:"min=1,dive"`
}
