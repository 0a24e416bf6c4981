package resolver

import (
	"fmt"
	"strings"
	"time"
)

// SlugTemplate formats the slugs of time-boxed hourly markets, e.g.
// "bitcoin-up-or-down-january-18-4am-et".
type SlugTemplate struct {
	Prefix   string
	Location *time.Location
	Suffix   string
}

// NewSlugTemplate loads the named time zone. An empty name means
// America/New_York.
func NewSlugTemplate(prefix, timezone, suffix string) (SlugTemplate, error) {
	if timezone == "" {
		timezone = "America/New_York"
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return SlugTemplate{}, fmt.Errorf("loading timezone %q: %w", timezone, err)
	}
	return SlugTemplate{Prefix: prefix, Location: loc, Suffix: suffix}, nil
}

// Slug returns the slug for the hour containing t, as seen in the
// template's location. It depends only on its inputs.
func (tpl SlugTemplate) Slug(t time.Time) string {
	loc := tpl.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)

	hour := local.Hour() % 12
	if hour == 0 {
		hour = 12
	}
	meridiem := "am"
	if local.Hour() >= 12 {
		meridiem = "pm"
	}

	parts := make([]string, 0, 5)
	if tpl.Prefix != "" {
		parts = append(parts, strings.Trim(tpl.Prefix, "-"))
	}
	parts = append(parts,
		strings.ToLower(local.Month().String()),
		fmt.Sprintf("%d", local.Day()),
		fmt.Sprintf("%d%s", hour, meridiem),
	)
	if tpl.Suffix != "" {
		parts = append(parts, strings.Trim(tpl.Suffix, "-"))
	}
	return strings.Join(parts, "-")
}

// HourStart truncates t to the start of its hour in the template's
// location. Callers use it to notice when the hourly market rolls over.
func (tpl SlugTemplate) HourStart(t time.Time) time.Time {
	loc := tpl.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
}
