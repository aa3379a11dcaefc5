package review

import (
	"sort"
	"strings"
	"time"
)

// Filter narrows an item list. Dimensions combine conjunctively; values
// inside a multi-value dimension combine disjunctively. Zero-valued
// dimensions match everything.
type Filter struct {
	Statuses   []Status
	Priorities []Priority
	ItemTypes  []string
	Stages     []string
	Tags       []string
	Assignee   string
	// Search matches title and description, case-insensitive substring.
	Search  string
	DueFrom *time.Time
	DueTo   *time.Time
}

// Matches reports whether the item satisfies every populated dimension.
func (f Filter) Matches(item Item) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, item.Status) {
		return false
	}
	if len(f.Priorities) > 0 && !containsPriority(f.Priorities, item.Priority) {
		return false
	}
	if len(f.ItemTypes) > 0 && !containsFold(f.ItemTypes, item.ItemType) {
		return false
	}
	if len(f.Stages) > 0 && !containsFold(f.Stages, item.Stage) {
		return false
	}
	if len(f.Tags) > 0 && !anyTagMatches(f.Tags, item.Tags) {
		return false
	}
	if f.Assignee != "" && !containsFold(item.Assignees, f.Assignee) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		title := strings.ToLower(item.Title)
		desc := strings.ToLower(item.Description)
		if !strings.Contains(title, needle) && !strings.Contains(desc, needle) {
			return false
		}
	}
	if f.DueFrom != nil {
		if item.DueDate == nil || item.DueDate.Before(*f.DueFrom) {
			return false
		}
	}
	if f.DueTo != nil {
		if item.DueDate == nil || item.DueDate.After(*f.DueTo) {
			return false
		}
	}
	return true
}

// Page selects a window of the filtered list. A zero or negative limit falls
// back to DefaultPageSize; limits above the ceiling clamp. MaxLimit raises or
// lowers that ceiling per request, zero means MaxPageSize.
type Page struct {
	Offset   int
	Limit    int
	MaxLimit int
}

const (
	DefaultPageSize = 25
	MaxPageSize     = 100
)

func (p Page) normalize() Page {
	max := p.MaxLimit
	if max <= 0 {
		max = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > max {
		p.Limit = max
	}
	return p
}

// ListResult is one page of filtered items. Total always counts the whole
// filtered set, not the page.
type ListResult struct {
	Items       []Item `json:"items"`
	Total       int    `json:"total"`
	Offset      int    `json:"offset"`
	Limit       int    `json:"limit"`
	HasNext     bool   `json:"hasNext"`
	HasPrevious bool   `json:"hasPrevious"`
}

// Apply filters items, orders them by most recent update, and slices out the
// requested page.
func Apply(items []Item, f Filter, p Page) ListResult {
	p = p.normalize()

	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if f.Matches(item) {
			filtered = append(filtered, item)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
	})

	total := len(filtered)
	start := p.Offset
	if start > total {
		start = total
	}
	end := start + p.Limit
	if end > total {
		end = total
	}

	return ListResult{
		Items:       filtered[start:end],
		Total:       total,
		Offset:      p.Offset,
		Limit:       p.Limit,
		HasNext:     end < total,
		HasPrevious: start > 0,
	}
}

func containsStatus(haystack []Status, needle Status) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsPriority(haystack []Priority, needle Priority) bool {
	for _, p := range haystack {
		if p == needle {
			return true
		}
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.EqualFold(s, needle) {
			return true
		}
	}
	return false
}

func anyTagMatches(wanted, tags []string) bool {
	for _, want := range wanted {
		if containsFold(tags, want) {
			return true
		}
	}
	return false
}
