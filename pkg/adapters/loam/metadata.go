package loam

// Metadata is the frontmatter of a description document.
// Options, fields and next are polymorphic (a reference may be a bare path or
// a map) and are decoded by the compiler after the document is read.
type Metadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Kind        string `json:"kind" mapstructure:"kind"`
	Options     []any  `json:"options" mapstructure:"options"`
	Fields      []any  `json:"fields" mapstructure:"fields"`
	Next        any    `json:"next" mapstructure:"next"`
	Submit      bool   `json:"submit" mapstructure:"submit"`
}
