package counter

import (
	"fmt"
	"strconv"
	"strings"
)

// Format controls how a counter is rendered and parsed back
type Format string

const (
	// FormatPadded renders digits only, zero-padded
	FormatPadded Format = "padded"
	// FormatPrefixed renders Prefix followed by the zero-padded digits
	FormatPrefixed Format = "prefixed"
)

// Spec holds the auto-increment parameters of a variable
type Spec struct {
	Start  int    `json:"start" yaml:"start"`
	Pad    int    `json:"pad" yaml:"pad"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix"`
	Format Format `json:"format" yaml:"format"`
}

// Validate checks that the spec can render and parse values
func (s Spec) Validate() error {
	if s.Pad < 0 {
		return fmt.Errorf("pad must be >= 0, got %d", s.Pad)
	}
	if s.Start < 0 {
		return fmt.Errorf("start must be >= 0, got %d", s.Start)
	}
	switch s.Format {
	case FormatPadded:
	case FormatPrefixed:
		if s.Prefix == "" {
			return fmt.Errorf("format %q requires a prefix", s.Format)
		}
	default:
		return fmt.Errorf("unknown counter format %q", s.Format)
	}
	return nil
}

// Extract pulls the numeric part out of a logged value.
// Prefixed values must start with the prefix and carry only digits after it;
// padded values keep every digit and drop everything else.
func Extract(value string, spec Spec) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	var digits string
	if spec.Format == FormatPrefixed {
		rest, ok := strings.CutPrefix(value, spec.Prefix)
		if !ok || rest == "" {
			return 0, false
		}
		for _, r := range rest {
			if r < '0' || r > '9' {
				return 0, false
			}
		}
		digits = rest
	} else {
		var b strings.Builder
		for _, r := range value {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		digits = b.String()
	}

	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Next returns one past the largest value found in history, or spec.Start
// when nothing in history parses. Malformed values are skipped.
func Next(history []string, spec Spec) int {
	highest, found := 0, false
	for _, v := range history {
		n, ok := Extract(v, spec)
		if !ok {
			continue
		}
		if !found || n > highest {
			highest, found = n, true
		}
	}
	if !found {
		return spec.Start
	}
	return highest + 1
}

// Render turns a counter into its display string
func Render(n int, spec Spec) string {
	digits := strconv.Itoa(n)
	if pad := spec.Pad - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	if spec.Format == FormatPrefixed {
		return spec.Prefix + digits
	}
	return digits
}
