package compiler

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/stepwise/pkg/domain"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

var (
	refType    = reflect.TypeOf(domain.RefDescription{})
	refPtrType = reflect.TypeOf(&domain.RefDescription{})
)

// Parser converts raw description documents into domain descriptions.
type Parser struct{}

// NewParser creates a new parser instance.
func NewParser() *Parser {
	return &Parser{}
}

// Parse decodes a YAML (or JSON) document and validates it.
func (p *Parser) Parse(data []byte) (*domain.Description, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse description: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to parse description: empty document")
	}
	return p.Decode(raw)
}

// Decode maps a generic map (YAML body, Loam frontmatter) onto a description and validates it.
// A reference may be written as a bare string, which is shorthand for {path: <string>}.
func (p *Parser) Decode(raw map[string]any) (*domain.Description, error) {
	var desc domain.Description
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  refShorthandHook,
		ErrorUnused: true,
		Result:      &desc,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode description: %w", err)
	}
	if err := Validate(&desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

func refShorthandHook(from, to reflect.Type, data any) (any, error) {
	if to != refType && to != refPtrType {
		return data, nil
	}
	if s, ok := data.(string); ok {
		return map[string]any{"path": s}, nil
	}
	return data, nil
}

// Validate reports every structural problem of a description at once.
// The returned error is a *multierror.Error of *domain.ConstructionError values.
func Validate(desc *domain.Description) error {
	var result *multierror.Error
	validateDescription(desc, desc.Name, &result)
	return result.ErrorOrNil()
}

func validateDescription(desc *domain.Description, where string, result **multierror.Error) {
	fail := func(reason string, args ...any) {
		*result = multierror.Append(*result, &domain.ConstructionError{Node: where, Reason: fmt.Sprintf(reason, args...)})
	}

	if strings.TrimSpace(desc.Name) == "" {
		fail("missing name")
	}

	switch desc.Kind {
	case domain.KindOptions:
		if len(desc.Options) == 0 {
			fail("options node without options")
		}
		if len(desc.Fields) > 0 {
			fail("options node cannot declare fields")
		}
		if desc.Next != nil {
			fail("options node cannot declare next")
		}
		for i, opt := range desc.Options {
			optWhere := fmt.Sprintf("%s.options[%d]", where, i)
			if opt.Name == "" {
				fail("option %d without name", i)
			}
			if opt.Target == nil {
				fail("option %q without target", opt.Name)
				continue
			}
			validateRef(opt.Target, optWhere, result)
		}
	case domain.KindContext:
		if len(desc.Fields) == 0 {
			fail("context node without fields")
		}
		if len(desc.Options) > 0 {
			fail("context node cannot declare options")
		}
		for i, f := range desc.Fields {
			validateField(f, fmt.Sprintf("%s.fields[%d]", where, i), result)
		}
		if desc.Next != nil {
			validateRef(desc.Next, where+".next", result)
		}
	case "":
		fail("missing kind")
	default:
		fail("unknown kind %q", desc.Kind)
	}
}

func validateField(f domain.FieldDescription, where string, result **multierror.Error) {
	fail := func(reason string, args ...any) {
		*result = multierror.Append(*result, &domain.ConstructionError{Node: where, Reason: fmt.Sprintf(reason, args...)})
	}

	if f.Name == "" {
		fail("field without name")
	}
	switch f.Kind {
	case "", domain.FieldPlain:
		if len(f.Choices) > 0 || f.Other != "" || f.OtherPrompt != "" {
			fail("plain field %q cannot declare choices", f.Name)
		}
	case domain.FieldVerified:
		if len(f.Choices) == 0 {
			fail("verified field %q without choices", f.Name)
		}
		for i, c := range f.Choices {
			if c.Name == "" {
				fail("choice %d of %q without name", i, f.Name)
			}
			switch {
			case c.Target == nil:
			case c.Target.Node != nil:
				fail("choice %q of %q must target a path", c.Name, f.Name)
			default:
				validateRef(c.Target, fmt.Sprintf("%s.choices[%d]", where, i), result)
			}
		}
	default:
		fail("unknown field kind %q", f.Kind)
	}
}

func validateRef(ref *domain.RefDescription, where string, result **multierror.Error) {
	fail := func(reason string) {
		*result = multierror.Append(*result, &domain.ConstructionError{Node: where, Reason: reason})
	}

	switch {
	case ref.Path != "" && ref.Node != nil:
		fail("reference declares both path and inline node")
	case ref.Path == "" && ref.Node == nil:
		fail("reference declares neither path nor inline node")
	case ref.Source < 0:
		fail("reference has a negative source index")
	case ref.Node != nil:
		if ref.Lazy {
			fail("inline node cannot be lazy")
		}
		validateDescription(ref.Node, where+"."+ref.Node.Name, result)
	}
}
