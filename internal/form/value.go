package form

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"experiment-logger/internal/config"
	"experiment-logger/internal/counter"
	"experiment-logger/pkg/utils"
)

var (
	ErrUnknownGroup    = errors.New("unknown group")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrInvalidValue    = errors.New("invalid value")
)

// FieldKey identifies one input of the form
type FieldKey struct {
	Group    string `json:"group"`
	Variable string `json:"variable"`
}

func (k FieldKey) String() string {
	return k.Group + "/" + k.Variable
}

// Value is the typed content of a field. Implementations:
// Blank, TextValue, IntValue, FloatValue and CounterValue.
type Value interface {
	// String renders the value as written to the log
	String() string
	isValue()
}

// Blank is a cleared numeric or counter field
type Blank struct{}

type TextValue string

type IntValue int64

type FloatValue float64

// CounterValue is the current value of an auto-increment field
type CounterValue struct {
	N    int
	Spec counter.Spec
}

func (Blank) String() string          { return "" }
func (v TextValue) String() string    { return string(v) }
func (v IntValue) String() string     { return strconv.FormatInt(int64(v), 10) }
func (v FloatValue) String() string   { return utils.FormatNumber(float64(v)) }
func (v CounterValue) String() string { return counter.Render(v.N, v.Spec) }

func (Blank) isValue()        {}
func (TextValue) isValue()    {}
func (IntValue) isValue()     {}
func (FloatValue) isValue()   {}
func (CounterValue) isValue() {}

// Default returns the initial value of a variable
func Default(v config.VariableSpec) Value {
	switch t := v.Type.(type) {
	case config.IntegerType:
		return IntValue(t.Default)
	case config.FloatType:
		return FloatValue(t.Default)
	case config.SelectType:
		return TextValue(t.Default)
	case config.AutoIncrementType:
		return CounterValue{N: t.Start, Spec: t.Spec}
	case config.TextType:
		return TextValue(t.Default)
	default:
		return Blank{}
	}
}

// Parse converts raw user input into a value of the variable's type
func Parse(v config.VariableSpec, raw string) (Value, error) {
	trimmed := strings.TrimSpace(raw)

	switch t := v.Type.(type) {
	case config.TextType:
		return TextValue(raw), nil

	case config.IntegerType:
		if trimmed == "" {
			return Blank{}, nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s expects a whole number, got %q", ErrInvalidValue, v.Name, raw)
		}
		return IntValue(n), nil

	case config.FloatType:
		if trimmed == "" {
			return Blank{}, nil
		}
		f, ok := utils.ParseFloat(trimmed)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a number, got %q", ErrInvalidValue, v.Name, raw)
		}
		return FloatValue(f), nil

	case config.SelectType:
		if !slices.Contains(t.Options, raw) {
			return nil, fmt.Errorf("%w: %q is not an option of %s", ErrInvalidValue, raw, v.Name)
		}
		return TextValue(raw), nil

	case config.AutoIncrementType:
		if trimmed == "" {
			return Blank{}, nil
		}
		n, ok := counter.Extract(trimmed, t.Spec)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a valid %s", ErrInvalidValue, raw, v.Name)
		}
		return CounterValue{N: n, Spec: t.Spec}, nil
	}

	return nil, fmt.Errorf("%w: %s has no type", ErrInvalidValue, v.Name)
}
