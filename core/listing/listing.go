// Package listing derives the visible page of a cached collection: search, pagination and
// the confirmation step before a row is deleted.
package listing

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/trezcool/edunet/core"
)

const DefaultPageSize = 10

// PageSizes are the page sizes a user can pick.
var PageSizes = []int{10, 25, 50}

type (
	Query struct {
		Search   string
		Page     int
		PageSize int
	}

	// Matcher tells which fields of T a search looks at.
	Matcher[T any] struct {
		// Text fields are matched case- and accent-insensitively.
		Text func(T) []string
		// Digits fields hold digit-only values (e.g. a CPF); the query's digits are matched against them.
		Digits func(T) []string
	}

	Page[T any] struct {
		Items      []T
		Page       int
		PageSize   int
		Total      int
		TotalPages int
	}
)

// ValidPageSize returns size when it is one of PageSizes, DefaultPageSize otherwise.
func ValidPageSize(size int) int {
	for _, s := range PageSizes {
		if s == size {
			return size
		}
	}
	return DefaultPageSize
}

// Filter keeps the items that match search, in their original order.
func (m Matcher[T]) Filter(items []T, search string) []T {
	search = strings.TrimSpace(search)
	if search == "" {
		return items
	}
	needle := fold(search)
	var digits string
	if isIDQuery(search) {
		digits = core.DigitsOnly(search)
	}

	matched := make([]T, 0, len(items))
	for _, it := range items {
		if m.matches(it, needle, digits) {
			matched = append(matched, it)
		}
	}
	return matched
}

// isIDQuery reports whether s looks like a typed ID: digits with optional ID punctuation.
func isIDQuery(s string) bool {
	hasDigit := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r == '.' || r == '-' || r == ' ':
		default:
			return false
		}
	}
	return hasDigit
}

func (m Matcher[T]) matches(it T, needle, digits string) bool {
	if m.Text != nil {
		for _, txt := range m.Text(it) {
			if strings.Contains(fold(txt), needle) {
				return true
			}
		}
	}
	if digits != "" && m.Digits != nil {
		for _, d := range m.Digits(it) {
			if strings.Contains(core.DigitsOnly(d), digits) {
				return true
			}
		}
	}
	return false
}

// Apply filters items and cuts out the requested page. The page is clamped to [1, TotalPages].
func Apply[T any](items []T, q Query, m Matcher[T]) Page[T] {
	filtered := m.Filter(items, q.Search)
	size := ValidPageSize(q.PageSize)

	total := len(filtered)
	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Page[T]{
		Items:      filtered[start:end],
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Pager holds the query of one list view.
type Pager struct {
	q Query
}

func NewPager() *Pager {
	return &Pager{q: Query{Page: 1, PageSize: DefaultPageSize}}
}

func (p *Pager) Query() Query { return p.q }

// Search changes the search text; a new search starts over at page 1.
func (p *Pager) Search(s string) {
	if s != p.q.Search {
		p.q.Search = s
		p.q.Page = 1
	}
}

func (p *Pager) SetPageSize(size int) {
	p.q.PageSize = ValidPageSize(size)
	p.q.Page = 1
}

func (p *Pager) Goto(page int) {
	if page < 1 {
		page = 1
	}
	p.q.Page = page
}

func (p *Pager) Next() { p.q.Page++ }

func (p *Pager) Prev() {
	if p.q.Page > 1 {
		p.q.Page--
	}
}

// Sync clamps the pager to a computed page, so it follows a shrinking result set.
func (p *Pager) Sync(page int) {
	p.q.Page = page
}

type (
	// Confirmer asks the user to confirm a destructive action.
	Confirmer interface {
		Confirm(prompt string) (bool, error)
	}

	Remover interface {
		Remove(ctx context.Context, id core.ID) error
	}
)

// ConfirmRemove removes id only once the user confirmed it.
func ConfirmRemove(ctx context.Context, c Confirmer, r Remover, id core.ID, label string) (bool, error) {
	ok, err := c.Confirm(fmt.Sprintf("Delete %s? This cannot be undone.", label))
	if err != nil || !ok {
		return false, err
	}
	if err = r.Remove(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// fold lowercases s and drops its accents.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
