// Package config loads the form schema (groups and variables) and the
// application settings from YAML.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"experiment-logger/internal/counter"
	"experiment-logger/internal/model"
)

// Kind names a variable type as written in the schema file
type Kind string

const (
	KindText          Kind = "text"
	KindFloat         Kind = "float"
	KindInteger       Kind = "integer"
	KindSelect        Kind = "select"
	KindAutoIncrement Kind = "auto_increment"
)

// VarType is the typed part of a variable. The set of implementations is closed:
// TextType, IntegerType, FloatType, SelectType and AutoIncrementType.
type VarType interface {
	Kind() Kind
	isVarType()
}

// TextType is free text
type TextType struct {
	Default string
}

// IntegerType is a whole number
type IntegerType struct {
	Default int64
}

// FloatType is a decimal number
type FloatType struct {
	Default float64
}

// SelectType is one value out of a fixed list
type SelectType struct {
	Options []string
	Default string
}

// AutoIncrementType is a counter synchronized against the log
type AutoIncrementType struct {
	counter.Spec
}

func (TextType) Kind() Kind          { return KindText }
func (IntegerType) Kind() Kind       { return KindInteger }
func (FloatType) Kind() Kind         { return KindFloat }
func (SelectType) Kind() Kind        { return KindSelect }
func (AutoIncrementType) Kind() Kind { return KindAutoIncrement }

func (TextType) isVarType()          {}
func (IntegerType) isVarType()       {}
func (FloatType) isVarType()         {}
func (SelectType) isVarType()        {}
func (AutoIncrementType) isVarType() {}

// VariableSpec is a single input field of a group
type VariableSpec struct {
	Name     string
	Required bool
	Type     VarType
}

// GroupSpec is a named, independently toggleable set of variables
type GroupSpec struct {
	Name       string
	AlwaysOn   bool
	Filterable bool
	Variables  []VariableSpec
}

// Column returns the log column of one of the group's variables
func (g GroupSpec) Column(variable string) string {
	return model.ColumnName(g.Name, variable)
}

// Variable looks a variable up by name
func (g GroupSpec) Variable(name string) (VariableSpec, bool) {
	for _, v := range g.Variables {
		if v.Name == name {
			return v, true
		}
	}
	return VariableSpec{}, false
}

// Schema is the loaded form definition
type Schema struct {
	Title  string
	Groups []GroupSpec
}

// Group looks a group up by name
func (s *Schema) Group(name string) (GroupSpec, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupSpec{}, false
}

// Columns lists every variable column in schema order, Timestamp first
func (s *Schema) Columns() []string {
	cols := []string{model.TimestampColumn}
	for _, g := range s.Groups {
		for _, v := range g.Variables {
			cols = append(cols, g.Column(v.Name))
		}
	}
	return cols
}

// FilterableColumns lists the columns of groups flagged filterable
func (s *Schema) FilterableColumns() []string {
	var cols []string
	for _, g := range s.Groups {
		if !g.Filterable {
			continue
		}
		for _, v := range g.Variables {
			cols = append(cols, g.Column(v.Name))
		}
	}
	return cols
}

// --- YAML decoding ---

type rawSchema struct {
	Title  string     `yaml:"title"`
	Groups []rawGroup `yaml:"groups"`
}

type rawGroup struct {
	Name       string        `yaml:"name"`
	AlwaysOn   bool          `yaml:"always_on"`
	Filterable bool          `yaml:"filterable"`
	Variables  []rawVariable `yaml:"variables"`
}

type rawVariable struct {
	Name     string   `yaml:"name"`
	Type     string   `yaml:"type"`
	Default  any      `yaml:"default"`
	Required bool     `yaml:"required"`
	Options  []string `yaml:"options"`
	Start    *int     `yaml:"start"`
	Pad      int      `yaml:"pad"`
	Prefix   string   `yaml:"prefix"`
	Format   string   `yaml:"format"`
}

// LoadSchema reads and validates a schema file
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseSchema(data)
}

// ParseSchema decodes a schema document. Every problem found is reported,
// joined into a single error.
func ParseSchema(data []byte) (*Schema, error) {
	var raw rawSchema
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if len(raw.Groups) == 0 {
		return nil, errors.New("schema defines no groups")
	}

	schema := &Schema{Title: raw.Title}
	var errs []error
	seenGroups := make(map[string]bool)

	for gi, rg := range raw.Groups {
		name := strings.TrimSpace(rg.Name)
		if name == "" {
			errs = append(errs, fmt.Errorf("groups[%d]: name is required", gi))
			continue
		}
		if seenGroups[name] {
			errs = append(errs, fmt.Errorf("group %q: duplicate name", name))
			continue
		}
		seenGroups[name] = true

		group := GroupSpec{Name: name, AlwaysOn: rg.AlwaysOn, Filterable: rg.Filterable}
		seenVars := make(map[string]bool)
		for vi, rv := range rg.Variables {
			v, err := buildVariable(rv)
			if err != nil {
				errs = append(errs, fmt.Errorf("group %q variables[%d]: %w", name, vi, err))
				continue
			}
			if seenVars[v.Name] {
				errs = append(errs, fmt.Errorf("group %q: duplicate variable %q", name, v.Name))
				continue
			}
			seenVars[v.Name] = true
			group.Variables = append(group.Variables, v)
		}
		schema.Groups = append(schema.Groups, group)
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return schema, nil
}

func buildVariable(rv rawVariable) (VariableSpec, error) {
	name := strings.TrimSpace(rv.Name)
	if name == "" {
		return VariableSpec{}, errors.New("name is required")
	}
	v := VariableSpec{Name: name, Required: rv.Required}

	kind := Kind(strings.ToLower(strings.TrimSpace(rv.Type)))
	if kind == "" {
		kind = KindText
	}

	switch kind {
	case KindText:
		v.Type = TextType{Default: scalarString(rv.Default)}

	case KindInteger:
		n, err := scalarInt(rv.Default)
		if err != nil {
			return v, fmt.Errorf("variable %q: %w", name, err)
		}
		v.Type = IntegerType{Default: n}

	case KindFloat:
		f, err := scalarFloat(rv.Default)
		if err != nil {
			return v, fmt.Errorf("variable %q: %w", name, err)
		}
		v.Type = FloatType{Default: f}

	case KindSelect:
		if len(rv.Options) == 0 {
			return v, fmt.Errorf("variable %q: select requires options", name)
		}
		def := scalarString(rv.Default)
		if def == "" {
			def = rv.Options[0]
		}
		if !slices.Contains(rv.Options, def) {
			return v, fmt.Errorf("variable %q: default %q is not one of the options", name, def)
		}
		v.Type = SelectType{Options: append([]string(nil), rv.Options...), Default: def}

	case KindAutoIncrement:
		spec := counter.Spec{
			Start:  1,
			Pad:    rv.Pad,
			Prefix: rv.Prefix,
			Format: counter.Format(strings.ToLower(rv.Format)),
		}
		if rv.Start != nil {
			spec.Start = *rv.Start
		}
		if spec.Format == "" {
			spec.Format = counter.FormatPadded
			if spec.Prefix != "" {
				spec.Format = counter.FormatPrefixed
			}
		}
		if err := spec.Validate(); err != nil {
			return v, fmt.Errorf("variable %q: %w", name, err)
		}
		v.Type = AutoIncrementType{Spec: spec}

	default:
		return v, fmt.Errorf("variable %q: unknown type %q", name, rv.Type)
	}

	return v, nil
}

func scalarString(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func scalarInt(v any) (int64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case float64:
		if val != math.Trunc(val) {
			return 0, fmt.Errorf("default %v is not a whole number", val)
		}
		return int64(val), nil
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("default %q is not an integer", val)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("default %v is not an integer", val)
	}
}

func scalarFloat(v any) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case float64:
		return val, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, fmt.Errorf("default %q is not a number", val)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("default %v is not a number", val)
	}
}
