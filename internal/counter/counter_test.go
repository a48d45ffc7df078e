package counter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_PrefixedHistory(t *testing.T) {
	spec := Spec{Start: 1, Pad: 4, Prefix: "RUN-", Format: FormatPrefixed}

	next := Next([]string{"RUN-0007", "RUN-0012", "bad"}, spec)

	assert.Equal(t, 13, next)
	assert.Equal(t, "RUN-0013", Render(next, spec))
}

func TestNext_EmptyHistoryUsesStart(t *testing.T) {
	spec := Spec{Start: 100, Pad: 0, Format: FormatPadded}

	assert.Equal(t, 100, Next(nil, spec))
	assert.Equal(t, 100, Next([]string{"", "n/a", "  "}, spec))
}

func TestNext_PaddedStripsNonDigits(t *testing.T) {
	spec := Spec{Start: 1, Pad: 3, Format: FormatPadded}

	// Spreadsheets drop leading zeros on USER_ENTERED numbers.
	next := Next([]string{"7", "009", "#12", "x"}, spec)

	assert.Equal(t, 13, next)
	assert.Equal(t, "013", Render(next, spec))
}

func TestExtract(t *testing.T) {
	prefixed := Spec{Pad: 4, Prefix: "RUN-", Format: FormatPrefixed}
	padded := Spec{Pad: 4, Format: FormatPadded}

	tests := []struct {
		name  string
		value string
		spec  Spec
		want  int
		ok    bool
	}{
		{"prefixed ok", "RUN-0042", prefixed, 42, true},
		{"prefixed wrong prefix", "EXP-0042", prefixed, 0, false},
		{"prefixed trailing junk", "RUN-42a", prefixed, 0, false},
		{"prefixed prefix only", "RUN-", prefixed, 0, false},
		{"prefixed trims space", " RUN-0003 ", prefixed, 3, true},
		{"padded digits", "0042", padded, 42, true},
		{"padded mixed", "A1B2", padded, 12, true},
		{"padded none", "abc", padded, 0, false},
		{"empty", "", padded, 0, false},
		{"overflow", "99999999999999999999999999", padded, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.value, tt.spec)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender(t *testing.T) {
	assert.Equal(t, "RUN-12345", Render(12345, Spec{Pad: 4, Prefix: "RUN-", Format: FormatPrefixed}))
	assert.Equal(t, "7", Render(7, Spec{Format: FormatPadded}))
	assert.Equal(t, "0007", Render(7, Spec{Pad: 4, Prefix: "ignored", Format: FormatPadded}))
}

func TestSpec_Validate(t *testing.T) {
	require.NoError(t, Spec{Pad: 4, Format: FormatPadded}.Validate())
	require.NoError(t, Spec{Pad: 4, Prefix: "R", Format: FormatPrefixed}.Validate())

	assert.Error(t, Spec{Pad: -1, Format: FormatPadded}.Validate())
	assert.Error(t, Spec{Format: FormatPrefixed}.Validate())
	assert.Error(t, Spec{Format: "roman"}.Validate())
}
