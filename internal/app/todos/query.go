package todos

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Filter is the list predicate. The same value drives both the page query
// and the total count.
type Filter struct {
	OwnerID    string
	Priorities []Priority
	Tags       []string
	Search     string
}

// Window selects a slice of the ordered result. Limit 0 means no limit.
type Window struct {
	Offset int
	Limit  int
}

type Page struct {
	Number int
	Size   int
}

func (p Page) Window() Window {
	return Window{Offset: (p.Number - 1) * p.Size, Limit: p.Size}
}

func (p Page) TotalPages(total int64) int {
	if p.Size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(p.Size)))
}

type ListQuery struct {
	Filter Filter
	Page   Page
}

// ParseListQuery reads userId, priority, tags, search, page and limit.
// priority and tags are comma separated lists.
func ParseListQuery(values url.Values) (ListQuery, error) {
	ownerID := strings.TrimSpace(values.Get("userId"))
	if ownerID == "" {
		return ListQuery{}, ErrOwnerRequired
	}

	priorities, err := parsePriorities(values.Get("priority"))
	if err != nil {
		return ListQuery{}, err
	}

	page, err := parsePositive(values.Get("page"), DefaultPage, "page")
	if err != nil {
		return ListQuery{}, err
	}
	limit, err := parsePositive(values.Get("limit"), DefaultLimit, "limit")
	if err != nil {
		return ListQuery{}, err
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if page > math.MaxInt/limit {
		return ListQuery{}, &DetailError{Err: ErrInvalidPagination, Details: "page is out of range"}
	}

	return ListQuery{
		Filter: Filter{
			OwnerID:    ownerID,
			Priorities: priorities,
			Tags:       splitCSV(values.Get("tags")),
			Search:     strings.TrimSpace(values.Get("search")),
		},
		Page: Page{Number: page, Size: limit},
	}, nil
}

// OwnerFromQuery reads the mandatory userId parameter of the tags and export
// endpoints.
func OwnerFromQuery(values url.Values) (string, error) {
	ownerID := strings.TrimSpace(values.Get("userId"))
	if ownerID == "" {
		return "", ErrOwnerRequired
	}
	return ownerID, nil
}

func parsePriorities(raw string) ([]Priority, error) {
	parts := splitCSV(raw)
	if len(parts) == 0 {
		return nil, nil
	}
	out := make([]Priority, 0, len(parts))
	for _, part := range parts {
		p, ok := ParsePriority(part)
		if !ok {
			return nil, &DetailError{Err: ErrInvalidPriority, Details: "unknown priority " + strconv.Quote(part)}
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePositive(raw string, fallback int, name string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, &DetailError{Err: ErrInvalidPagination, Details: name + " must be a positive integer"}
	}
	return n, nil
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := normalizeList(strings.Split(raw, ","))
	if len(out) == 0 {
		return nil
	}
	return out
}

// Matches evaluates the predicate against one todo. It is the reference
// semantics the store drivers translate into their own query languages.
func (f Filter) Matches(t Todo) bool {
	if t.OwnerID != f.OwnerID {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority) {
		return false
	}
	if len(f.Tags) > 0 && !intersects(f.Tags, t.Tags) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(t.Description), needle) {
			return false
		}
	}
	return true
}

func containsPriority(list []Priority, p Priority) bool {
	for _, candidate := range list {
		if candidate == p {
			return true
		}
	}
	return false
}

func intersects(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}
