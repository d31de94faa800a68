// Package listing sorts, filters and paginates projected donation cards.
package listing

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"zerowaste/internal/model"
	"zerowaste/internal/projection"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultPageSize is used when a state carries no page size.
const DefaultPageSize = 5

// SortKey selects the single active sort column.
type SortKey string

const (
	SortNone     SortKey = ""
	SortDate     SortKey = "date"
	SortDistance SortKey = "distance"
	SortStatus   SortKey = "status"
	SortName     SortKey = "name"
)

// ParseSortKey returns the sort key for s and whether it is known.
func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNone, SortDate, SortDistance, SortStatus, SortName:
		return k, true
	}
	return SortNone, false
}

// Direction is the sort order of the active key.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// ParseDirection maps anything but "desc" to Asc.
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), string(Desc)) {
		return Desc
	}
	return Asc
}

// State is the presentation state of one list. States are values; every
// With method returns a modified copy.
type State struct {
	Tab       projection.Tab `json:"tab"`
	Query     string         `json:"query,omitempty"`
	Sort      SortKey        `json:"sort,omitempty"`
	Direction Direction      `json:"direction"`
	Page      int            `json:"page"`
	PageSize  int            `json:"pageSize"`
}

// NewState returns the initial state for tab.
func NewState(tab projection.Tab, pageSize int) State {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return State{Tab: tab, Direction: Asc, Page: 1, PageSize: pageSize}
}

// WithSort activates key. Selecting the active key again flips the direction;
// a different key replaces the previous one and starts ascending.
func (s State) WithSort(key SortKey) State {
	if key == s.Sort && key != SortNone {
		if s.Direction == Asc {
			s.Direction = Desc
		} else {
			s.Direction = Asc
		}
	} else {
		s.Sort = key
		s.Direction = Asc
	}
	s.Page = 1
	return s
}

// WithQuery sets the free-text filter.
func (s State) WithQuery(q string) State {
	if q != s.Query {
		s.Query = q
		s.Page = 1
	}
	return s
}

// WithTab switches tab.
func (s State) WithTab(tab projection.Tab) State {
	if tab != s.Tab {
		s.Tab = tab
		s.Page = 1
	}
	return s
}

// WithPage requests a page. Apply clamps it to the available range.
func (s State) WithPage(page int) State {
	s.Page = page
	return s
}

// Page is one page of filtered and sorted cards.
type Page struct {
	State      State             `json:"state"`
	Items      []projection.Card `json:"items"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
}

// Apply filters, sorts and paginates cards according to s. The input slice is
// not modified.
func Apply(cards []projection.Card, s State) Page {
	if s.PageSize < 1 {
		s.PageSize = DefaultPageSize
	}
	if s.Direction != Desc {
		s.Direction = Asc
	}

	matched := filter(cards, s.Query)
	sortCards(matched, s.Sort, s.Direction)

	total := len(matched)
	pages := (total + s.PageSize - 1) / s.PageSize
	switch {
	case s.Page < 1:
		s.Page = 1
	case pages > 0 && s.Page > pages:
		s.Page = pages
	case pages == 0:
		s.Page = 1
	}

	start := (s.Page - 1) * s.PageSize
	end := min(start+s.PageSize, total)
	items := []projection.Card{}
	if start < end {
		items = append(items, matched[start:end]...)
	}

	return Page{State: s, Items: items, TotalItems: total, TotalPages: pages}
}

func filter(cards []projection.Card, query string) []projection.Card {
	out := make([]projection.Card, 0, len(cards))
	needle := fold(strings.TrimSpace(query))
	if needle == "" {
		return append(out, cards...)
	}
	for _, c := range cards {
		if strings.Contains(fold(c.ProductName), needle) || strings.Contains(fold(c.CounterpartName), needle) {
			out = append(out, c)
		}
	}
	return out
}

// fold lowercases s and strips diacritics so that "Cafe" matches "Café".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC, cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

var statusRank = map[model.Status]int{
	model.StatusAvailable: 0,
	model.StatusReserved:  1,
	model.StatusCompleted: 2,
}

// sortEntry pairs a card with its folded product name so that names are
// folded once per card rather than once per comparison.
type sortEntry struct {
	card projection.Card
	name string
}

func sortCards(cards []projection.Card, key SortKey, dir Direction) {
	if key == SortNone {
		return
	}

	entries := make([]sortEntry, len(cards))
	for i, c := range cards {
		entries[i].card = c
		if key == SortName {
			entries[i].name = fold(c.ProductName)
		}
	}

	slices.SortStableFunc(entries, func(a, b sortEntry) int {
		c := compare(&a, &b, key)
		if c == 0 {
			return strings.Compare(a.card.ID.String(), b.card.ID.String())
		}
		if dir == Desc {
			return -c
		}
		return c
	})

	for i := range entries {
		cards[i] = entries[i].card
	}
}

// compare orders two entries by key. Missing values compare as the largest.
func compare(a, b *sortEntry, key SortKey) int {
	switch key {
	case SortDate:
		return a.card.ExpirationDate.Compare(b.card.ExpirationDate)
	case SortDistance:
		da, db := a.card.Distance, b.card.Distance
		switch {
		case da == nil && db == nil:
			return 0
		case da == nil:
			return 1
		case db == nil:
			return -1
		}
		return cmp.Compare(*da, *db)
	case SortStatus:
		return statusRank[a.card.Status] - statusRank[b.card.Status]
	case SortName:
		return strings.Compare(a.name, b.name)
	}
	return 0
}
