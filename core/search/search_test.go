package search

import (
	"testing"
	"time"

	"fabtrack/core/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testProjects() []*models.Project {
	return []*models.Project{
		{
			ID:          "p1",
			Name:        "Bridge girders",
			Description: "Steel girders for the river crossing",
			UserID:      "alice",
			StartDate:   "2024-06-01",
			EndDate:     "2024-07-31",
			CreatedAt:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "p2",
			Name:        "Warehouse frame",
			Description: "Portal frames, phase two",
			UserID:      "bob",
			StartDate:   "2024-08-01",
			EndDate:     "2024-09-30",
			CreatedAt:   time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:          "p3",
			Name:        "Apron extension",
			Description: "Airport apron canopy",
			UserID:      "alice",
			StartDate:   "2024-01-01",
			EndDate:     "2024-03-31",
			CreatedAt:   time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "p4",
			Name:      "Undated works",
			UserID:    "carol",
			CreatedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func ids(projects []*models.Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func TestApplyNoCriteriaSortsByName(t *testing.T) {
	got := Apply(testProjects(), Criteria{}, testNow)
	assert.Equal(t, []string{"p3", "p1", "p4", "p2"}, ids(got))
}

func TestApplySearchTerm(t *testing.T) {
	tests := []struct {
		name string
		term string
		want []string
	}{
		{"matches name", "girder", []string{"p1"}},
		{"matches description", "apron", []string{"p3"}},
		{"matches creator", "alice", []string{"p3", "p1"}},
		{"case insensitive", "WAREHOUSE", []string{"p2"}},
		{"no match", "zeppelin", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apply(testProjects(), Criteria{SearchTerm: tt.term}, testNow)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyStatusFilter(t *testing.T) {
	tests := []struct {
		status string
		want   []string
	}{
		{"active", []string{"p1", "p4"}}, // undated fails open to active
		{"upcoming", []string{"p2"}},
		{"completed", []string{"p3"}},
		{"all", []string{"p3", "p1", "p4", "p2"}},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := Apply(testProjects(), Criteria{Status: tt.status}, testNow)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyDateFilter(t *testing.T) {
	tests := []struct {
		filter string
		want   []string
	}{
		// Date filters require real dates, so the undated project drops out.
		{"active", []string{"p1"}},
		{"upcoming", []string{"p2"}},
		{"completed", []string{"p3"}},
		{"this-month", []string{"p1"}},
		{"this-year", []string{"p3", "p1", "p2"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			got := Apply(testProjects(), Criteria{DateFilter: tt.filter}, testNow)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestApplyCustomRange(t *testing.T) {
	// Overlap, not containment: p1 runs June-July and overlaps July.
	got := Apply(testProjects(), Criteria{CustomStart: "2024-07-01", CustomEnd: "2024-07-15"}, testNow)
	assert.Equal(t, []string{"p1"}, ids(got))

	// Projects without dates never match a custom range.
	got = Apply(testProjects(), Criteria{CustomStart: "2024-01-01", CustomEnd: "2024-12-31"}, testNow)
	assert.NotContains(t, ids(got), "p4")
}

func TestApplyCustomRangeNeedsBothBounds(t *testing.T) {
	got := Apply(testProjects(), Criteria{CustomStart: "2024-07-01"}, testNow)
	assert.Len(t, got, 4, "a half-open range is ignored")
}

func TestApplyAdvanced(t *testing.T) {
	got := Apply(testProjects(), Criteria{Advanced: &Advanced{CreatedBy: "bob"}}, testNow)
	assert.Equal(t, []string{"p2"}, ids(got))

	got = Apply(testProjects(), Criteria{Advanced: &Advanced{
		Name:          "a",
		StartDateFrom: "2024-05-01",
	}}, testNow)
	assert.Equal(t, []string{"p2"}, ids(got))

	// A date window excludes projects whose date is missing.
	got = Apply(testProjects(), Criteria{Advanced: &Advanced{StartDateFrom: "2000-01-01"}}, testNow)
	assert.NotContains(t, ids(got), "p4")
}

func TestApplySortByStartDate(t *testing.T) {
	got := Apply(testProjects(), Criteria{SortBy: SortByStartDate}, testNow)
	// Missing dates sort as the zero time, first in ascending order.
	assert.Equal(t, []string{"p4", "p3", "p1", "p2"}, ids(got))

	got = Apply(testProjects(), Criteria{SortBy: SortByStartDate, SortOrder: "desc"}, testNow)
	assert.Equal(t, []string{"p2", "p1", "p3", "p4"}, ids(got))
}

func TestApplySortByCreatedAt(t *testing.T) {
	got := Apply(testProjects(), Criteria{SortBy: SortByCreatedAt, SortOrder: "desc"}, testNow)
	assert.Equal(t, []string{"p4", "p2", "p1", "p3"}, ids(got))
}

func TestApplySortIsStable(t *testing.T) {
	projects := []*models.Project{
		{ID: "a", Name: "Same", CreatedAt: testNow},
		{ID: "b", Name: "Same", CreatedAt: testNow},
		{ID: "c", Name: "Same", CreatedAt: testNow},
	}
	got := Apply(projects, Criteria{SortBy: SortByName}, testNow)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	projects := testProjects()
	Apply(projects, Criteria{SortBy: SortByStartDate, SortOrder: "desc"}, testNow)
	assert.Equal(t, "p1", projects[0].ID, "input order must be preserved")
}

func TestApplyCombinedCriteria(t *testing.T) {
	got := Apply(testProjects(), Criteria{
		SearchTerm: "alice",
		Status:     "completed",
	}, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, "p3", got[0].ID)
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus(testProjects(), testNow)
	assert.Equal(t, 2, counts[models.ProjectStatusActive])
	assert.Equal(t, 1, counts[models.ProjectStatusUpcoming])
	assert.Equal(t, 1, counts[models.ProjectStatusCompleted])
}
