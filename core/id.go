package core

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ID identifies a server-owned record. Zero means "not assigned yet".
type ID int64

func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, errors.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}
