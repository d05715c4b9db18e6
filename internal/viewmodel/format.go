package viewmodel

import (
	"fmt"
	"strings"
	"time"
)

const inputDateLayout = "2006-01-02"

// FormatDate renders a date for the detail view, e.g. "March 4, 2025".
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("January 2, 2006")
}

// FormatDateForInput renders a date for a date input field.
func FormatDateForInput(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(inputDateLayout)
}

// ParseInputDate parses a date input value; empty means no date.
func ParseInputDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(inputDateLayout, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDueDate, raw)
	}
	t = t.UTC()
	return &t, nil
}
