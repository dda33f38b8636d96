package config

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/Elkozel/graph-database-watermaring-BEP/internal/fault"
	"github.com/Elkozel/graph-database-watermaring-BEP/internal/watermark"
)

//go:embed schema.cue
var schemaDef string

//go:embed default.cue
var defaultSchema []byte

// TypeSchema lists the fields of one document type.
type TypeSchema struct {
	Required []string `json:"required"`
	Optional []string `json:"optional"`
}

// Schema is a decoded dataset schema.
type Schema struct {
	Types     map[string]TypeSchema
	Relations watermark.RelationPolicy
}

// Type returns the field lists of name.
func (s *Schema) Type(name string) (TypeSchema, error) {
	t, ok := s.Types[name]
	if !ok {
		return TypeSchema{}, fault.New(fault.InvalidArgument, "schema", "unknown document type %q", name)
	}
	return t, nil
}

// TypeNames returns the declared document types in sorted order.
func (s *Schema) TypeNames() []string {
	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// DefaultSchema returns the schema of the generated Person dataset.
func DefaultSchema() *Schema {
	s, err := ParseSchema(defaultSchema, "default.cue")
	if err != nil {
		panic(fmt.Sprintf("built-in schema: %v", err))
	}
	return s
}

// LoadSchema reads a CUE schema file. An empty path returns DefaultSchema.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return DefaultSchema(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	return ParseSchema(data, path)
}

// ParseSchema unifies src with the #Schema definition, requires the result
// to be concrete and decodes it.
func ParseSchema(src []byte, filename string) (*Schema, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schemaDef, cue.Filename("schema.cue"))
	if err := def.Err(); err != nil {
		return nil, fmt.Errorf("compile schema definition: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, fmt.Errorf("compile %s: %w", filename, err)
	}

	v := def.LookupPath(cue.ParsePath("#Schema")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filename, err)
	}

	schema := &Schema{Types: map[string]TypeSchema{}}
	if err := v.LookupPath(cue.ParsePath("types")).Decode(&schema.Types); err != nil {
		return nil, fmt.Errorf("decode types: %w", err)
	}

	iter, err := v.LookupPath(cue.ParsePath("relations")).Fields()
	if err != nil {
		return nil, fmt.Errorf("iterate relations: %w", err)
	}
	for iter.Next() {
		var rel watermark.Relation
		if err := iter.Value().Decode(&rel); err != nil {
			return nil, fmt.Errorf("decode relation %s: %w", iter.Label(), err)
		}
		if iter.Label() == "default" {
			schema.Relations.Default = rel
			continue
		}
		if schema.Relations.Labels == nil {
			schema.Relations.Labels = map[string]watermark.Relation{}
		}
		schema.Relations.Labels[iter.Label()] = rel
	}

	for name, t := range schema.Types {
		if err := t.validate(name); err != nil {
			return nil, err
		}
	}
	if err := schema.Relations.Validate(); err != nil {
		return nil, err
	}
	return schema, nil
}

// validate rejects a field listed twice or as both required and optional.
func (t TypeSchema) validate(name string) error {
	seen := map[string]bool{}
	for _, f := range slices.Concat(t.Required, t.Optional) {
		if seen[f] {
			return fault.New(fault.InvalidArgument, "schema", "type %s lists field %q twice", name, f)
		}
		seen[f] = true
	}
	return nil
}
