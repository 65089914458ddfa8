// Package search filters and orders project collections. Everything here is
// a pure function of its inputs; criteria are immutable values so results
// can be re-sorted without refetching.
package search

import (
	"sort"
	"strings"
	"time"

	"fabtrack/core/models"
	"fabtrack/core/progress"
)

// Sort keys accepted by Criteria.SortBy.
const (
	SortByName      = "name"
	SortByStartDate = "startDate"
	SortByEndDate   = "endDate"
	SortByCreatedAt = "createdAt"
	SortByStatus    = "status"
)

// Criteria describes one filter/sort request over the project collection.
// Zero values mean "no constraint"; all populated criteria are ANDed.
type Criteria struct {
	SearchTerm string `json:"searchTerm,omitempty"` // substring over name/description/creator
	Status     string `json:"status,omitempty"`     // all|active|upcoming|completed
	DateFilter string `json:"dateFilter,omitempty"` // all|active|upcoming|completed|this-month|this-year

	// Custom date range; both must be set for the range to apply, and
	// projects missing either date never match it.
	CustomStart string `json:"customStart,omitempty"`
	CustomEnd   string `json:"customEnd,omitempty"`

	SortBy    string `json:"sortBy,omitempty"`    // defaults to name
	SortOrder string `json:"sortOrder,omitempty"` // asc|desc, defaults to asc

	Advanced *Advanced `json:"advanced,omitempty"`
}

// Advanced holds the per-field search criteria of the advanced search form.
type Advanced struct {
	Name          string `json:"name,omitempty"`
	Description   string `json:"description,omitempty"`
	CreatedBy     string `json:"createdBy,omitempty"`
	StartDateFrom string `json:"startDateFrom,omitempty"`
	StartDateTo   string `json:"startDateTo,omitempty"`
	EndDateFrom   string `json:"endDateFrom,omitempty"`
	EndDateTo     string `json:"endDateTo,omitempty"`
}

// SavedSearch is a named, persisted criteria set.
type SavedSearch struct {
	ID        string    `json:"id,omitempty"`
	UserID    string    `json:"userId,omitempty"`
	Name      string    `json:"name"`
	Criteria  Criteria  `json:"criteria"`
	CreatedAt time.Time `json:"createdAt"`
}

// Apply filters and sorts projects by the criteria, evaluated at the given
// instant. Ties keep their original order.
func Apply(projects []*models.Project, c Criteria, now time.Time) []*models.Project {
	filtered := make([]*models.Project, 0, len(projects))
	for _, p := range projects {
		if matches(p, c, now) {
			filtered = append(filtered, p)
		}
	}

	sortProjects(filtered, c, now)
	return filtered
}

// CountByStatus buckets projects by their time-derived status.
func CountByStatus(projects []*models.Project, now time.Time) map[models.ProjectStatus]int {
	counts := make(map[models.ProjectStatus]int)
	for _, p := range projects {
		counts[progress.ProjectStatusAt(p, now)]++
	}
	return counts
}

func matches(p *models.Project, c Criteria, now time.Time) bool {
	if term := strings.ToLower(c.SearchTerm); term != "" {
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) &&
			!strings.Contains(strings.ToLower(p.UserID), term) {
			return false
		}
	}

	if c.Status != "" && c.Status != "all" {
		if string(progress.ProjectStatusAt(p, now)) != c.Status {
			return false
		}
	}

	if !matchesDateFilter(p, c.DateFilter, now) {
		return false
	}

	if c.CustomStart != "" && c.CustomEnd != "" {
		if !overlapsRange(p, c.CustomStart, c.CustomEnd) {
			return false
		}
	}

	if c.Advanced != nil && !matchesAdvanced(p, c.Advanced) {
		return false
	}

	return true
}

func matchesDateFilter(p *models.Project, filter string, now time.Time) bool {
	if filter == "" || filter == "all" {
		return true
	}

	start, hasStart := progress.ParseDate(p.StartDate)
	end, hasEnd := progress.ParseDate(p.EndDate)

	switch filter {
	case "active":
		return hasStart && hasEnd && !start.After(now) && !end.Before(now)
	case "upcoming":
		return hasStart && start.After(now)
	case "completed":
		return hasEnd && end.Before(now)
	case "this-month":
		return (hasStart && sameMonth(start, now)) || (hasEnd && sameMonth(end, now))
	case "this-year":
		return (hasStart && start.Year() == now.Year()) || (hasEnd && end.Year() == now.Year())
	default:
		return true
	}
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// overlapsRange reports whether the project's date range overlaps the
// filter range. Projects missing either date never match a custom range.
func overlapsRange(p *models.Project, fromStr, toStr string) bool {
	start, hasStart := progress.ParseDate(p.StartDate)
	end, hasEnd := progress.ParseDate(p.EndDate)
	if !hasStart || !hasEnd {
		return false
	}
	from, okFrom := progress.ParseDate(fromStr)
	to, okTo := progress.ParseDate(toStr)
	if !okFrom || !okTo {
		return false
	}
	return !end.Before(from) && !start.After(to)
}

func matchesAdvanced(p *models.Project, a *Advanced) bool {
	if a.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(a.Name)) {
		return false
	}
	if a.Description != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(a.Description)) {
		return false
	}
	if a.CreatedBy != "" && !strings.Contains(strings.ToLower(p.UserID), strings.ToLower(a.CreatedBy)) {
		return false
	}
	if !withinWindow(p.StartDate, a.StartDateFrom, a.StartDateTo) {
		return false
	}
	if !withinWindow(p.EndDate, a.EndDateFrom, a.EndDateTo) {
		return false
	}
	return true
}

// withinWindow checks a project date against an optional from/to window. An
// empty window always matches; a set window requires the project date.
func withinWindow(dateStr, fromStr, toStr string) bool {
	if fromStr == "" && toStr == "" {
		return true
	}
	date, ok := progress.ParseDate(dateStr)
	if !ok {
		return false
	}
	if from, okFrom := progress.ParseDate(fromStr); okFrom && date.Before(from) {
		return false
	}
	if to, okTo := progress.ParseDate(toStr); okTo && date.After(to) {
		return false
	}
	return true
}

func sortProjects(projects []*models.Project, c Criteria, now time.Time) {
	desc := c.SortOrder == "desc"

	less := func(a, b *models.Project) bool {
		switch c.SortBy {
		case SortByStartDate:
			return dateOrZero(a.StartDate).Before(dateOrZero(b.StartDate))
		case SortByEndDate:
			return dateOrZero(a.EndDate).Before(dateOrZero(b.EndDate))
		case SortByCreatedAt:
			return a.CreatedAt.Before(b.CreatedAt)
		case SortByStatus:
			return progress.ProjectStatusAt(a, now) < progress.ProjectStatusAt(b, now)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}

	sort.SliceStable(projects, func(i, j int) bool {
		if desc {
			return less(projects[j], projects[i])
		}
		return less(projects[i], projects[j])
	})
}

func dateOrZero(s string) time.Time {
	t, ok := progress.ParseDate(s)
	if !ok {
		return time.Time{}
	}
	return t
}
