package edu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/edunet/core"
)

// NextCode suggests the code following the highest numeric code in use, keeping its zero padding.
// Non-numeric codes are ignored. The first code is "1".
func NextCode(codes []string) string {
	var (
		max   int64
		width int
	)
	for _, c := range codes {
		c = strings.TrimSpace(c)
		n, err := strconv.ParseInt(c, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
		if len(c) > width {
			width = len(c)
		}
	}
	return fmt.Sprintf("%0*d", width, max+1)
}

func NextClassCode(classes []Class) string {
	codes := make([]string, 0, len(classes))
	for _, c := range classes {
		codes = append(codes, core.StringValue(c.Code))
	}
	return NextCode(codes)
}

func NextRegistrationCode(students []Student) string {
	codes := make([]string, 0, len(students))
	for _, s := range students {
		codes = append(codes, core.StringValue(s.RegistrationCode))
	}
	return NextCode(codes)
}
