package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "abc", want: ""},
		{raw: "123.456.789-01", want: "12345678901"},
		{raw: "123 456 789 0123 45", want: "12345678901"},
		{raw: "12a3", want: "123"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := SanitizeID(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), IDLength)
		})
	}
}

func TestFormatIDForDisplay(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "", want: ""},
		{raw: "12", want: "12"},
		{raw: "123", want: "123"},
		{raw: "1234", want: "123.4"},
		{raw: "123456", want: "123.456"},
		{raw: "1234567", want: "123.456.7"},
		{raw: "123456789", want: "123.456.789"},
		{raw: "1234567890", want: "123.456.789-0"},
		{raw: "12345678901", want: "123.456.789-01"},
		{raw: "123.456.789-01", want: "123.456.789-01"},
		{raw: "1234567890123", want: "123.456.789-01"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatIDForDisplay(tt.raw))
		})
	}
}

func TestFormatIDForDisplay_idempotent(t *testing.T) {
	for _, raw := range []string{"12345678901", "987.654.321-00", "1", "12345", "98765432"} {
		once := FormatIDForDisplay(SanitizeID(raw))
		assert.Equal(t, once, FormatIDForDisplay(SanitizeID(once)), raw)
		assert.Equal(t, once, FormatIDForDisplay(once), raw)
	}
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    *float64
		wantErr error
	}{
		{name: "blank", raw: "", want: nil},
		{name: "spaces", raw: "   ", want: nil},
		{name: "integer", raw: "8", want: ptr(8)},
		{name: "dot", raw: "7.5", want: ptr(7.5)},
		{name: "comma", raw: "7,25", want: ptr(7.25)},
		{name: "rounded", raw: "6.666", want: ptr(6.67)},
		{name: "lower bound", raw: "0", want: ptr(0)},
		{name: "upper bound", raw: "10", want: ptr(10)},
		{name: "negative", raw: "-1", wantErr: ErrGradeOutOfRange},
		{name: "too high", raw: "10.01", wantErr: ErrGradeOutOfRange},
		{name: "letters", raw: "abc", wantErr: ErrInvalidNumber},
		{name: "trailing garbage", raw: "7abc", wantErr: ErrInvalidNumber},
		{name: "nan", raw: "NaN", wantErr: ErrInvalidNumber},
		{name: "inf", raw: "Inf", wantErr: ErrInvalidNumber},
		{name: "hex float", raw: "0x1p3", wantErr: ErrInvalidNumber},
		{name: "hex integer", raw: "0X8", wantErr: ErrInvalidNumber},
		{name: "underscore", raw: "1_0", wantErr: ErrInvalidNumber},
		{name: "exponent", raw: "5e-1", want: ptr(0.5)},
		{name: "leading dot", raw: ".5", want: ptr(0.5)},
		{name: "two commas", raw: "7,2,5", wantErr: ErrInvalidNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGrade(tt.raw)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCalculateAverage(t *testing.T) {
	tests := []struct {
		name string
		raws []string
		want *float64
	}{
		{name: "two of three", raws: []string{"8", "6", ""}, want: ptr(7)},
		{name: "all blank", raws: []string{"", "", ""}, want: nil},
		{name: "invalid ignored", raws: []string{"9", "x", "11"}, want: ptr(9)},
		{name: "rounded", raws: []string{"10", "9", "9"}, want: ptr(9.33)},
		{name: "comma", raws: []string{"7,5", "8,5", ""}, want: ptr(8)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateAverage(tt.raws...))
		})
	}
}

func TestDateRangeValid(t *testing.T) {
	tests := []struct {
		start, end string
		want       bool
	}{
		{start: "2025-03-01", end: "2025-02-01", want: false},
		{start: "2025-02-01", end: "2025-03-01", want: true},
		{start: "2025-02-01", end: "2025-02-01", want: true},
		{start: "", end: "2025-02-01", want: true},
		{start: "2025-02-01", end: "", want: true},
		{start: "01/02/2025", end: "2025-03-01", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.start+"_"+tt.end, func(t *testing.T) {
			assert.Equal(t, tt.want, DateRangeValid(tt.start, tt.end))
		})
	}
}

func TestFormatGrade(t *testing.T) {
	assert.Equal(t, "", FormatGrade(nil))
	assert.Equal(t, "7.5", FormatGrade(ptr(7.5)))
	assert.Equal(t, "10", FormatGrade(ptr(10)))
}

func ptr(v float64) *float64 {
	return &v
}
