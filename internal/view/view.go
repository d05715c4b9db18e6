// Package view computes the searched, filtered, sorted and paginated slice of
// tasks shown in the task list. Everything here is pure.
package view

import (
	"fmt"
	"sort"
	"strings"

	"folio/internal/models"
)

// PageSize is the fixed number of tasks per page.
const PageSize = 7

// SortKey selects the field tasks are ordered by.
type SortKey string

const (
	SortText      SortKey = "text"
	SortCreatedAt SortKey = "createdAt"
	SortDueDate   SortKey = "dueDate"
)

// SortDir is the ordering direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// Params are the transient list parameters.
type Params struct {
	Search   string  `json:"search"`
	Filter   string  `json:"filter"`
	SortKey  SortKey `json:"sortBy"`
	SortDir  SortDir `json:"sortType"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// DefaultParams lists newest tasks first, unfiltered, on page 1.
func DefaultParams() Params {
	return Params{
		Filter:   models.FilterAll,
		SortKey:  SortCreatedAt,
		SortDir:  Desc,
		Page:     1,
		PageSize: PageSize,
	}
}

// WithSearch changes the search term and returns to the first page.
func (p Params) WithSearch(term string) Params {
	p.Search = term
	p.Page = 1
	return p
}

// WithFilter changes the status filter and returns to the first page.
func (p Params) WithFilter(filter string) Params {
	p.Filter = filter
	p.Page = 1
	return p
}

// WithSort changes ordering; the current page is kept.
func (p Params) WithSort(key SortKey, dir SortDir) Params {
	p.SortKey = key
	p.SortDir = dir
	return p
}

// Result is one rendered page.
type Result struct {
	Items []models.Task `json:"items"`
	// Total is the number of tasks matching search and filter.
	Total int `json:"total"`
	Page  int `json:"page"`
	// TotalPages is ceil(Total/PageSize) and is zero for an empty match.
	TotalPages int `json:"totalPages"`
	// DisplayPages never drops below 1.
	DisplayPages int `json:"displayPages"`
}

// Compute derives the page described by p from tasks.
func Compute(tasks []models.Task, p Params) Result {
	size := p.PageSize
	if size <= 0 {
		size = PageSize
	}
	page := p.Page
	if page < 1 {
		page = 1
	}

	matched := Filter(Search(tasks, p.Search), p.Filter)
	Sort(matched, p.SortKey, p.SortDir)

	total := len(matched)
	totalPages := (total + size - 1) / size
	res := Result{
		Items:        []models.Task{},
		Total:        total,
		Page:         page,
		TotalPages:   totalPages,
		DisplayPages: max(totalPages, 1),
	}

	if page > totalPages {
		return res
	}
	start := (page - 1) * size
	end := min(start+size, total)
	res.Items = matched[start:end]
	return res
}

// Search keeps tasks whose text contains term, ignoring case.
func Search(tasks []models.Task, term string) []models.Task {
	needle := strings.ToLower(term)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if needle == "" || strings.Contains(strings.ToLower(t.Text), needle) {
			out = append(out, t)
		}
	}
	return out
}

// Filter keeps tasks with the given status; "All" or empty keeps everything.
func Filter(tasks []models.Task, status string) []models.Task {
	if status == "" || status == models.FilterAll {
		return tasks
	}
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if string(t.Status) == status {
			out = append(out, t)
		}
	}
	return out
}

// Sort orders tasks in place with a stable sort. For SortDueDate, tasks
// without a due date are last ascending and first descending.
func Sort(tasks []models.Task, key SortKey, dir SortDir) {
	desc := dir == Desc
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch key {
		case SortText:
			if desc {
				return a.Text > b.Text
			}
			return a.Text < b.Text
		case SortDueDate:
			if a.DueDate == nil || b.DueDate == nil {
				if a.DueDate == nil && b.DueDate == nil {
					return false
				}
				// missing sorts as larger than any date
				if desc {
					return a.DueDate == nil
				}
				return b.DueDate == nil
			}
			if desc {
				return a.DueDate.After(*b.DueDate)
			}
			return a.DueDate.Before(*b.DueDate)
		default:
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
}

// ParseSortKey validates a sort key.
func ParseSortKey(raw string) (SortKey, error) {
	switch SortKey(raw) {
	case SortText, SortCreatedAt, SortDueDate:
		return SortKey(raw), nil
	}
	return "", fmt.Errorf("invalid sort key %q", raw)
}

// ParseSortDir validates a sort direction.
func ParseSortDir(raw string) (SortDir, error) {
	switch SortDir(raw) {
	case Asc, Desc:
		return SortDir(raw), nil
	}
	return "", fmt.Errorf("invalid sort direction %q", raw)
}

// ParseFilter validates a status filter.
func ParseFilter(raw string) (string, error) {
	if raw == models.FilterAll {
		return raw, nil
	}
	if _, err := models.ParseStatus(raw); err != nil {
		return "", fmt.Errorf("invalid filter %q", raw)
	}
	return raw, nil
}
