package domain

// Description kinds.
const (
	KindOptions = "options"
	KindContext = "context"
)

// Field kinds.
const (
	FieldPlain    = "plain"
	FieldVerified = "verified"
)

// Defaults applied to verified fields that omit them.
const (
	DefaultOtherLabel = "Other"
)

// Description is the parsed, not yet built, form of a node as returned by a ConfigSource.
type Description struct {
	Name        string              `json:"name" yaml:"name" mapstructure:"name"`
	Description string              `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Kind        string              `json:"kind" yaml:"kind" mapstructure:"kind"`
	Options     []OptionDescription `json:"options,omitempty" yaml:"options,omitempty" mapstructure:"options"`
	Fields      []FieldDescription  `json:"fields,omitempty" yaml:"fields,omitempty" mapstructure:"fields"`
	Next        *RefDescription     `json:"next,omitempty" yaml:"next,omitempty" mapstructure:"next"`
	Submit      bool                `json:"submit,omitempty" yaml:"submit,omitempty" mapstructure:"submit"`
}

// OptionDescription describes a menu option or a verified-field choice.
type OptionDescription struct {
	Name         string          `json:"name" yaml:"name" mapstructure:"name"`
	Submit       bool            `json:"submit,omitempty" yaml:"submit,omitempty" mapstructure:"submit"`
	ResetOnEnter bool            `json:"reset_on_enter,omitempty" yaml:"reset_on_enter,omitempty" mapstructure:"reset_on_enter"`
	Target       *RefDescription `json:"target,omitempty" yaml:"target,omitempty" mapstructure:"target"`
}

// FieldDescription describes a context field.
type FieldDescription struct {
	Name        string              `json:"name" yaml:"name" mapstructure:"name"`
	Value       string              `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Kind        string              `json:"kind,omitempty" yaml:"kind,omitempty" mapstructure:"kind"`
	Choices     []OptionDescription `json:"choices,omitempty" yaml:"choices,omitempty" mapstructure:"choices"`
	Other       string              `json:"other,omitempty" yaml:"other,omitempty" mapstructure:"other"`
	OtherPrompt string              `json:"other_prompt,omitempty" yaml:"other_prompt,omitempty" mapstructure:"other_prompt"`
}

// RefDescription points at another node: a path resolved through a ConfigSource,
// or an inline description. Lazy path references are materialized on first use;
// eager ones during construction of the enclosing node.
type RefDescription struct {
	Path   string       `json:"path,omitempty" yaml:"path,omitempty" mapstructure:"path"`
	Lazy   bool         `json:"lazy,omitempty" yaml:"lazy,omitempty" mapstructure:"lazy"`
	Source int          `json:"source,omitempty" yaml:"source,omitempty" mapstructure:"source"`
	Node   *Description `json:"node,omitempty" yaml:"node,omitempty" mapstructure:"node"`
}

// IsVerified reports whether the field offers a closed set of answers.
func (f FieldDescription) IsVerified() bool {
	return f.Kind == FieldVerified
}
