package models

// Complexity buckets for SoapAction, assigned per the rule in spec.md §3:
// easy if <=1 in AND <=1 out; complex if >=3 in OR >=4 out; else medium.
const (
	ComplexityEasy    = "easy"
	ComplexityMedium  = "medium"
	ComplexityComplex = "complex"
)

// Category buckets for SoapAction, assigned by keyword match against the
// action name in priority order (spec.md §3): security, volume, media,
// configuration, information, other.
const (
	CategorySecurity      = "security"
	CategoryVolumeControl = "volume_control"
	CategoryMediaControl  = "media_control"
	CategoryConfiguration = "configuration"
	CategoryInformation   = "information"
	CategoryOther         = "other"
)

// Argument directions.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// SCPDDocument - разобранное Service Control Protocol Description.
type SCPDDocument struct {
	Actions        map[string]*SoapAction      `json:"actions"`
	StateVariables map[string]*StateVariable   `json:"state_variables"`
	ParseErrors    []string                    `json:"parse_errors,omitempty"`
}

// NewSCPDDocument создает пустой SCPDDocument с инициализированными картами.
func NewSCPDDocument() *SCPDDocument {
	return &SCPDDocument{
		Actions:        make(map[string]*SoapAction),
		StateVariables: make(map[string]*StateVariable),
	}
}

// ValueRange описывает допустимый диапазон значения аргумента/переменной состояния.
type ValueRange struct {
	Min  string `json:"min,omitempty" yaml:"min,omitempty"`
	Max  string `json:"max,omitempty" yaml:"max,omitempty"`
	Step string `json:"step,omitempty" yaml:"step,omitempty"`
}

// SoapAction - одно действие сервиса (<action> из <actionList>).
type SoapAction struct {
	Name         string            `json:"name"`
	ArgumentsIn  []ActionArgument  `json:"arguments_in,omitempty"`
	ArgumentsOut []ActionArgument  `json:"arguments_out,omitempty"`
	Complexity   string            `json:"complexity"`
	Category     string            `json:"category"`
}

// ActionArgument - один аргумент действия.
type ActionArgument struct {
	Name                 string      `json:"name"`
	Direction            string      `json:"direction"`
	DataType             string      `json:"data_type"`
	RelatedStateVariable string      `json:"related_state_variable,omitempty"`
	AllowedValues        []string    `json:"allowed_values,omitempty"`
	Range                *ValueRange `json:"range,omitempty"`
}

// StateVariable - одна переменная состояния (<stateVariable> из <serviceStateTable>).
type StateVariable struct {
	Name          string      `json:"name"`
	DataType      string      `json:"data_type"`
	SendEvents    bool        `json:"send_events"`
	DefaultValue  string      `json:"default_value,omitempty"`
	AllowedValues []string    `json:"allowed_values,omitempty"`
	Range         *ValueRange `json:"range,omitempty"`
}

// AssignComplexity вычисляет complexity по правилу spec.md §3 и записывает её в действие.
func (a *SoapAction) AssignComplexity() {
	nIn, nOut := len(a.ArgumentsIn), len(a.ArgumentsOut)
	switch {
	case nIn <= 1 && nOut <= 1:
		a.Complexity = ComplexityEasy
	case nIn >= 3 || nOut >= 4:
		a.Complexity = ComplexityComplex
	default:
		a.Complexity = ComplexityMedium
	}
}
