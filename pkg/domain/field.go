package domain

import "sync"

// Field is one slot of a ContextNode: *PlainField or *VerifiedField.
type Field interface {
	FieldName() string
	set(value string)
}

// PlainField stores free text.
type PlainField struct {
	Name string

	mu    sync.Mutex
	value string
}

// NewPlainField returns a field with an optional pre-filled value.
func NewPlainField(name, value string) *PlainField {
	return &PlainField{Name: name, value: value}
}

func (f *PlainField) FieldName() string { return f.Name }

func (f *PlainField) set(value string) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
}

// Value returns the stored text.
func (f *PlainField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// VerifiedField offers a closed menu of canonical answers plus an "other" fallback.
// The menu is built once, the first time the field is reached.
type VerifiedField struct {
	Name        string
	Choices     []Option
	OtherLabel  string
	OtherPrompt string

	mu       sync.Mutex
	value    string
	menu     *OptionsNode
	fallback *ContextNode
}

// NewVerifiedField returns a verified field with the given choices.
func NewVerifiedField(name, value string, choices []Option, otherLabel, otherPrompt string) *VerifiedField {
	return &VerifiedField{
		Name:        name,
		Choices:     choices,
		OtherLabel:  otherLabel,
		OtherPrompt: otherPrompt,
		value:       value,
	}
}

func (f *VerifiedField) FieldName() string { return f.Name }

func (f *VerifiedField) set(value string) {
	f.mu.Lock()
	f.value = value
	f.mu.Unlock()
}

// SubGraph returns the verified menu and its fallback context if they were built.
func (f *VerifiedField) SubGraph() (*OptionsNode, *ContextNode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.menu, f.fallback
}

// EnsureSubGraph builds the menu with build on first call and returns the cached one afterwards.
func (f *VerifiedField) EnsureSubGraph(build func() (*OptionsNode, *ContextNode, error)) (*OptionsNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.menu != nil {
		return f.menu, nil
	}
	menu, fallback, err := build()
	if err != nil {
		return nil, err
	}
	f.menu, f.fallback = menu, fallback
	return menu, nil
}

// Value returns the collected answer: the fallback text when the "other" option
// was taken, the selected choice name when a choice was taken, or the stored value.
func (f *VerifiedField) Value() string {
	f.mu.Lock()
	menu, fallback, stored := f.menu, f.fallback, f.value
	f.mu.Unlock()

	if menu == nil {
		return stored
	}
	idx, ok := menu.Selection()
	if !ok {
		return stored
	}
	if idx == len(menu.Options)-1 {
		if fallback == nil || len(fallback.Fields) != 1 {
			panic(InvariantViolation{Node: menu.Name, Detail: "verified field fallback missing"})
		}
		return FieldValue(fallback.Fields[0])
	}
	return menu.Options[idx].Name
}

// FieldValue returns the collected value of any field.
func FieldValue(f Field) string {
	switch f := f.(type) {
	case *PlainField:
		return f.Value()
	case *VerifiedField:
		return f.Value()
	default:
		panic(InvariantViolation{Detail: "unknown field kind"})
	}
}
