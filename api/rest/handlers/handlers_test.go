package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fabtrack/api/rest/routes"
	"fabtrack/core/docstore"
	"fabtrack/core/identity"
	"fabtrack/core/repository"
	"fabtrack/core/template"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *mux.Router
	store  *docstore.Memory
}

func newTestServer() *testServer {
	store := docstore.NewMemory()
	r := mux.NewRouter()
	idp := identity.StaticProvider{User: identity.User{ID: "test-user", Name: "Test User"}}
	routes.SetupRoutes(r, store, template.Default(), idp)
	return &testServer{router: r, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *testServer) createProject(t *testing.T, name string) string {
	t.Helper()
	rec := s.do(t, "POST", "/v1/projects", map[string]interface{}{
		"name":      name,
		"startDate": "2024-06-01",
		"endDate":   "2024-07-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func (s *testServer) createJob(t *testing.T, projectID, name string, quantity int) string {
	t.Helper()
	rec := s.do(t, "POST", "/v1/projects/"+projectID+"/jobs", map[string]interface{}{
		"name":       name,
		"unitWeight": 100.5,
		"quantity":   quantity,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestCreateProject(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, "POST", "/v1/projects", map[string]interface{}{
		"name":        "Bridge girders",
		"description": "River crossing",
		"startDate":   "2024-06-01",
		"endDate":     "2024-07-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "Bridge girders", body["name"])
	assert.Equal(t, "test-user", body["userId"])
	assert.NotEmpty(t, body["status"])
}

func TestCreateProjectValidation(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, "POST", "/v1/projects", map[string]interface{}{"name": "   "})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "validation", body["error"])
	fields := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "name")
	assert.Equal(t, 0, s.store.Count(repository.CollectionProjects))
}

func TestGetProjectNotFound(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, "GET", "/v1/projects/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListProjectsWithFilterAndStats(t *testing.T) {
	s := newTestServer()
	p1 := s.createProject(t, "Bridge girders")
	s.createProject(t, "Warehouse frame")
	s.createJob(t, p1, "Beam A", 2)

	rec := s.do(t, "GET", "/v1/projects?search=bridge", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), body["total"], "total counts the filtered items")

	item := items[0].(map[string]interface{})
	assert.Equal(t, "Bridge girders", item["name"])
	stats := item["stats"].(map[string]interface{})
	assert.Equal(t, float64(1), stats["jobCount"])
	assert.Equal(t, float64(2), stats["totalQuantity"])
}

func TestListProjectsSortOrder(t *testing.T) {
	s := newTestServer()
	s.createProject(t, "Charlie")
	s.createProject(t, "Alpha")
	s.createProject(t, "Bravo")

	rec := s.do(t, "GET", "/v1/projects?sortBy=name&sortOrder=desc", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode(t, rec)["items"].([]interface{})
	require.Len(t, items, 3)
	assert.Equal(t, "Charlie", items[0].(map[string]interface{})["name"])
	assert.Equal(t, "Alpha", items[2].(map[string]interface{})["name"])
}

func TestSearchProjectsAdvanced(t *testing.T) {
	s := newTestServer()
	s.createProject(t, "Bridge girders")
	s.createProject(t, "Warehouse frame")

	rec := s.do(t, "POST", "/v1/projects/search", map[string]interface{}{
		"advanced": map[string]interface{}{"name": "warehouse"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode(t, rec)["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Warehouse frame", items[0].(map[string]interface{})["name"])
}

func TestUpdateProject(t *testing.T) {
	s := newTestServer()
	id := s.createProject(t, "Old name")

	rec := s.do(t, "PUT", "/v1/projects/"+id, map[string]interface{}{
		"name":    "New name",
		"endDate": "2024-12-31",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New name", decode(t, rec)["name"])
}

func TestDeleteProjectCascades(t *testing.T) {
	s := newTestServer()
	id := s.createProject(t, "Doomed")
	jobID := s.createJob(t, id, "Beam A", 1)

	rec := s.do(t, "DELETE", "/v1/projects/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/v1/projects/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, "GET", "/v1/jobs/"+jobID, nil).Code)
}

func TestCreateJobExpandsSubJobs(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")

	rec := s.do(t, "POST", "/v1/projects/"+projectID+"/jobs", map[string]interface{}{
		"name":       "Beam A",
		"unitWeight": 100.5,
		"quantity":   3,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, float64(301.5), body["totalWeight"])

	prog := body["progress"].(map[string]interface{})
	assert.Equal(t, float64(0), prog["completedSteps"])
	assert.Equal(t, float64(42), prog["totalSteps"])

	// The detail view exposes the expanded sub-jobs.
	jobID := body["id"].(string)
	detail := decode(t, s.do(t, "GET", "/v1/jobs/"+jobID, nil))
	subJobs := detail["subJobs"].([]interface{})
	require.Len(t, subJobs, 3)
	first := subJobs[0].(map[string]interface{})
	assert.Equal(t, "Beam A V1", first["name"])
	assert.Len(t, first["steps"].([]interface{}), 14)
}

func TestCreateJobStringNumerics(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")

	rec := s.do(t, "POST", "/v1/projects/"+projectID+"/jobs", map[string]interface{}{
		"name":       "Beam A",
		"unitWeight": "12.5",
		"quantity":   "2",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(25), decode(t, rec)["totalWeight"])
}

func TestCreateJobMissingProject(t *testing.T) {
	s := newTestServer()
	rec := s.do(t, "POST", "/v1/projects/nope/jobs", map[string]interface{}{"name": "Beam A"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobsNameSearch(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	s.createJob(t, projectID, "Beam A", 1)
	s.createJob(t, projectID, "Column B", 1)

	rec := s.do(t, "GET", "/v1/projects/"+projectID+"/jobs?search=beam", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	items := body["items"].([]interface{})
	require.Len(t, items, 1)
	assert.Equal(t, "Beam A", items[0].(map[string]interface{})["name"])

	// Stats cover the whole project, not just the filtered page.
	stats := body["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["jobCount"])
}

func TestToggleStepFlow(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 1)

	// Completing a later step before its predecessors is rejected.
	rec := s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/2/toggle", nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "previous steps in order")

	rec = s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/0/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "in-progress", body["status"])

	subJobs := body["subJobs"].([]interface{})
	first := subJobs[0].(map[string]interface{})
	steps := first["steps"].([]interface{})
	step0 := steps[0].(map[string]interface{})
	assert.Equal(t, true, step0["completed"])
	assert.NotNil(t, step0["completedAt"])

	// The toggle persisted: a fresh read shows the same state.
	detail := decode(t, s.do(t, "GET", "/v1/jobs/"+jobID, nil))
	assert.Equal(t, "in-progress", detail["status"])
}

func TestToggleStepReversal(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 1)

	require.Equal(t, http.StatusOK, s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/0/toggle", nil).Code)
	rec := s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/0/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decode(t, rec)["status"])
}

func TestToggleStepCompletesJob(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 1)

	var last *httptest.ResponseRecorder
	for i := 0; i < 14; i++ {
		last = s.do(t, "POST", fmt.Sprintf("/v1/jobs/%s/subjobs/0/steps/%d/toggle", jobID, i), nil)
		require.Equal(t, http.StatusOK, last.Code)
	}
	assert.Equal(t, "completed", decode(t, last)["status"])
}

func TestToggleStepBadIndexes(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/9/steps/0/toggle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/99/toggle", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/x/steps/0/toggle", nil).Code)
}

func TestUpdateJobResizesSubJobs(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 2)

	// Progress on the first unit survives a grow.
	require.Equal(t, http.StatusOK, s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/0/toggle", nil).Code)

	rec := s.do(t, "PUT", "/v1/jobs/"+jobID, map[string]interface{}{
		"name":       "Beam A",
		"unitWeight": 100.5,
		"quantity":   4,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(402), decode(t, rec)["totalWeight"])

	detail := decode(t, s.do(t, "GET", "/v1/jobs/"+jobID, nil))
	subJobs := detail["subJobs"].([]interface{})
	require.Len(t, subJobs, 4)
	first := subJobs[0].(map[string]interface{})
	assert.Equal(t, "in-progress", first["status"])
	assert.Equal(t, "Beam A V4", subJobs[3].(map[string]interface{})["name"])
}

func TestUpdateJobGrowsFromZeroQuantity(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 0)

	rec := s.do(t, "PUT", "/v1/jobs/"+jobID, map[string]interface{}{
		"name":       "Beam A",
		"unitWeight": 100.5,
		"quantity":   3,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["quantity"])

	detail := decode(t, s.do(t, "GET", "/v1/jobs/"+jobID, nil))
	subJobs := detail["subJobs"].([]interface{})
	require.Len(t, subJobs, 3)
	assert.Equal(t, "Beam A V1", subJobs[0].(map[string]interface{})["name"])
	assert.Equal(t, "Beam A V3", subJobs[2].(map[string]interface{})["name"])
}

func TestUpdateJobShrinkDiscardsSubJobs(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")
	jobID := s.createJob(t, projectID, "Beam A", 3)

	rec := s.do(t, "PUT", "/v1/jobs/"+jobID, map[string]interface{}{
		"name":     "Beam A",
		"quantity": 1,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	detail := decode(t, s.do(t, "GET", "/v1/jobs/"+jobID, nil))
	assert.Len(t, detail["subJobs"].([]interface{}), 1)
}

func TestImportEndpoint(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")

	csv := "Part Mark,Description,Qty,Unit Weight\nC1,Column,2,1250.50\nB1,Beam,4,850.75\n"
	req := httptest.NewRequest("POST", "/v1/projects/"+projectID+"/import", strings.NewReader(csv))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(2), decode(t, rec)["imported"])
	assert.Equal(t, 2, s.store.Count(repository.CollectionJobs))
}

func TestImportEndpointBadHeader(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")

	req := httptest.NewRequest("POST", "/v1/projects/"+projectID+"/import", strings.NewReader("Part Mark,Qty\nC1,2\n"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "missing-columns", body["error"])
	assert.Contains(t, body["detail"], "Unit Weight")
}

func TestImportEndpointMissingProject(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest("POST", "/v1/projects/nope/import", strings.NewReader("x"))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSampleCSVEndpoint(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, "GET", "/v1/import/sample", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Part Mark,Description,Qty,Unit Weight"))
}

func TestDashboardStats(t *testing.T) {
	s := newTestServer()
	p1 := s.createProject(t, "P1")
	p2 := s.createProject(t, "P2")
	s.createJob(t, p1, "Beam A", 1)
	jobID := s.createJob(t, p2, "Beam B", 1)

	require.Equal(t, http.StatusOK, s.do(t, "POST", "/v1/jobs/"+jobID+"/subjobs/0/steps/0/toggle", nil).Code)

	rec := s.do(t, "GET", "/v1/dashboard/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, float64(2), body["totalProjects"])

	jobStats := body["jobs"].(map[string]interface{})
	assert.Equal(t, float64(2), jobStats["total"])
	assert.Equal(t, float64(1), jobStats["inProgress"])
	assert.Equal(t, float64(1), jobStats["pending"])

	projects := body["projects"].([]interface{})
	assert.Len(t, projects, 2)
	assert.NotNil(t, body["statusCounts"])
	assert.Len(t, body["recentProjects"].([]interface{}), 2)
}

func TestBatchLifecycle(t *testing.T) {
	s := newTestServer()
	projectID := s.createProject(t, "P")

	rec := s.do(t, "POST", "/v1/projects/"+projectID+"/batches", map[string]interface{}{
		"name":        "Phase 1",
		"quantity":    10,
		"totalWeight": 5000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	batchID := decode(t, rec)["id"].(string)

	rec = s.do(t, "GET", "/v1/projects/"+projectID+"/batches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decode(t, rec)["items"].([]interface{}), 1)

	rec = s.do(t, "PUT", "/v1/batches/"+batchID, map[string]interface{}{"name": "Phase 1b"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, "DELETE", "/v1/batches/"+batchID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, s.do(t, "GET", "/v1/projects/"+projectID+"/batches", nil))["items"])
}

func TestSavedSearchLifecycle(t *testing.T) {
	s := newTestServer()

	rec := s.do(t, "POST", "/v1/searches", map[string]interface{}{
		"name": "My completed",
		"criteria": map[string]interface{}{
			"status": "completed",
			"sortBy": "endDate",
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decode(t, rec)
	id := body["id"].(string)
	assert.Equal(t, "test-user", body["userId"])

	rec = s.do(t, "GET", "/v1/searches", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode(t, rec)["items"].([]interface{})
	require.Len(t, items, 1)
	criteria := items[0].(map[string]interface{})["criteria"].(map[string]interface{})
	assert.Equal(t, "completed", criteria["status"])

	rec = s.do(t, "DELETE", "/v1/searches/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, s.do(t, "GET", "/v1/searches", nil))["items"])
}
