package core

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	// IDLength is the number of digits of a national ID (CPF).
	IDLength = 11

	// DateLayout is the wire and form layout of calendar dates.
	DateLayout = "2006-01-02"

	MinGrade = 0
	MaxGrade = 10
)

var (
	ErrInvalidNumber   = errors.New("invalid numeric value")
	ErrGradeOutOfRange = errors.New("out of range")

	// plain decimal notation; no hex floats, underscores, NaN or Inf
	decimalNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// DigitsOnly drops every non-digit character of s.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeID strips non-digits and caps the result at IDLength digits.
func SanitizeID(raw string) string {
	digits := DigitsOnly(raw)
	if len(digits) > IDLength {
		digits = digits[:IDLength]
	}
	return digits
}

// FormatIDForDisplay renders a national ID as XXX.XXX.XXX-XX.
// Partial input gets the punctuation of the groups it reaches, e.g. "1234567" -> "123.456.7".
func FormatIDForDisplay(raw string) string {
	d := SanitizeID(raw)
	if len(d) <= 3 {
		return d
	}

	var b strings.Builder
	b.WriteString(d[:3])
	b.WriteByte('.')
	if len(d) <= 6 {
		b.WriteString(d[3:])
		return b.String()
	}
	b.WriteString(d[3:6])
	b.WriteByte('.')
	if len(d) <= 9 {
		b.WriteString(d[6:])
		return b.String()
	}
	b.WriteString(d[6:9])
	b.WriteByte('-')
	b.WriteString(d[9:])
	return b.String()
}

// ParseGrade parses a grade typed by a user. Blank input is a null grade (nil, nil).
// A decimal comma is accepted. Valid grades are rounded to 2 decimals.
func ParseGrade(raw string) (*float64, error) {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return nil, nil
	}

	normalized = strings.Replace(normalized, ",", ".", 1)
	if !decimalNumber.MatchString(normalized) {
		return nil, ErrInvalidNumber
	}
	parsed, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil, ErrInvalidNumber
	}
	if parsed < MinGrade || parsed > MaxGrade {
		return nil, ErrGradeOutOfRange
	}

	rounded := Round2(parsed)
	return &rounded, nil
}

// CalculateAverage is the mean of the parseable, non-null grades, or nil when there are none.
func CalculateAverage(raws ...string) *float64 {
	var (
		sum   float64
		count int
	)
	for _, raw := range raws {
		if v, err := ParseGrade(raw); err == nil && v != nil {
			sum += *v
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := Round2(sum / float64(count))
	return &avg
}

// FormatGrade renders a nullable grade the way forms show it ("" for null).
func FormatGrade(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// DateRangeValid reports whether start <= end. An absent bound always passes;
// a present bound that is not a YYYY-MM-DD date never does.
func DateRangeValid(start, end string) bool {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return true
	}
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return false
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return false
	}
	return !s.After(e)
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
