package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula/internal/architect"
	"nebula/internal/architecture"
	"nebula/internal/gateway/repository/artifact"
	"nebula/internal/gateway/repository/projectstore"
	"nebula/internal/llm"
	llmclient "nebula/internal/llmClient"
)

const prefix = "/api/v1"

type staticSource struct{ client llmclient.LLMClient }

func (s staticSource) BestAvailableModel(context.Context) (llmclient.LLMClient, error) {
	return s.client, nil
}

// spyStore counts every call that reaches storage.
type spyStore struct {
	projectstore.Store
	calls int
}

func (s *spyStore) Save(ctx context.Context, p projectstore.Project) (string, error) {
	s.calls++
	return s.Store.Save(ctx, p)
}

func (s *spyStore) ListByOwner(ctx context.Context, owner string) ([]projectstore.Project, error) {
	s.calls++
	return s.Store.ListByOwner(ctx, owner)
}

func (s *spyStore) Get(ctx context.Context, id string) (projectstore.Project, error) {
	s.calls++
	return s.Store.Get(ctx, id)
}

func (s *spyStore) Delete(ctx context.Context, id string) error {
	s.calls++
	return s.Store.Delete(ctx, id)
}

type fixture struct {
	mux     *http.ServeMux
	store   *spyStore
	exports *artifact.MemoryStore
	fake    *llmclient.FakeClient
}

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T, models architect.ModelSource, fake *llmclient.FakeClient) *fixture {
	t.Helper()
	fs, err := projectstore.NewFileStore("")
	require.NoError(t, err)
	f := &fixture{
		mux:     http.NewServeMux(),
		store:   &spyStore{Store: fs},
		exports: artifact.NewMemoryStore(),
		fake:    fake,
	}
	h := New(Deps{
		Architect:   architect.New(architect.Options{Models: models, Logger: quiet()}),
		Projects:    f.store,
		Exports:     f.exports,
		Logger:      quiet(),
		ProjectName: "Nebula AI",
		Version:     "test",
	})
	h.Register(f.mux, prefix)
	return f
}

func cannedFixture(t *testing.T) *fixture {
	fake := llmclient.NewCannedClient()
	return newFixture(t, staticSource{client: fake}, fake)
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestGenerateAppendsCostLine(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/generate", map[string]string{"prompt": "a web app"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeBody[architect.Result](t, rec)
	assert.True(t, strings.HasSuffix(res.Summary, "ESTIMATED COST: $75.50 / month*"), res.Summary)
	assert.Len(t, res.Nodes, 4)
	assert.Equal(t, 75.50, res.CostEstimate.Total)
	assert.Empty(t, res.Error)
}

func TestGenerateEmptyPrompt(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/generate", map[string]string{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.fake.Calls())
}

func TestGenerateWithoutProvidersIsDegraded(t *testing.T) {
	f := newFixture(t, llm.NewRegistry(llm.WithRegistryLogger(quiet())), nil)

	rec := f.do(t, http.MethodPost, prefix+"/generate", map[string]string{"prompt": "a web app"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	res := decodeBody[architect.Result](t, rec)
	assert.Equal(t, architect.FailedSummary, res.Summary)
	assert.Empty(t, res.Nodes)
	assert.NotEmpty(t, res.Error)
}

func TestSyncCodeWithoutProviders(t *testing.T) {
	f := newFixture(t, llm.NewRegistry(llm.WithRegistryLogger(quiet())), nil)

	rec := f.do(t, http.MethodPost, prefix+"/sync/code", map[string]any{
		"currentState": map[string]any{"summary": "s"},
		"updatedCode":  `resource "aws_s3_bucket" "b" {}`,
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncCodeKeepsSubmittedCode(t *testing.T) {
	f := cannedFixture(t)
	code := "# edited by hand\nresource \"aws_s3_bucket\" \"b\" {}\n"

	rec := f.do(t, http.MethodPost, prefix+"/sync/code", map[string]any{
		"currentState": map[string]any{"summary": "s", "nodes": []any{}, "edges": []any{}},
		"updatedCode":  code,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[architect.Result](t, rec)
	assert.Equal(t, code, res.TerraformCode)
	assert.NotContains(t, res.Summary, "ESTIMATED COST")
}

func TestSyncVisualRejectsDanglingEdge(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/sync/visual", map[string]any{
		"currentState": map[string]any{"summary": "s"},
		"updatedNodes": []map[string]any{{"id": "a", "label": "A", "serviceType": "EC2"}},
		"updatedEdges": []map[string]any{{"id": "e", "source": "a", "target": "ghost"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.fake.Calls())
}

func TestSyncVisualRejectsNodeWithoutServiceType(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/sync/visual", map[string]any{
		"currentState": map[string]any{"summary": "s"},
		"updatedNodes": []map[string]any{{"id": "n1", "type": "default", "data": map[string]any{"label": "Box"}}},
		"updatedEdges": []any{},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nodes[0].serviceType")
	assert.Zero(t, f.fake.Calls())
}

func TestSyncVisualEmptyCanvas(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/sync/visual", map[string]any{
		"currentState": map[string]any{"summary": "s"},
		"updatedNodes": []any{},
		"updatedEdges": []any{},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[architect.Result](t, rec)
	assert.Equal(t, architect.CanvasClearedSummary, res.Summary)
	assert.Empty(t, res.TerraformCode)
}

func TestMalformedBody(t *testing.T) {
	f := cannedFixture(t)
	for _, path := range []string{"/generate", "/sync/code", "/sync/visual", "/projects/save", "/audit", "/estimate"} {
		rec := f.do(t, http.MethodPost, prefix+path, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	assert.Zero(t, f.store.calls)
}

func TestProjectLifecycle(t *testing.T) {
	f := cannedFixture(t)
	record := map[string]any{
		"ownerEmail":    "dev@example.com",
		"name":          "Shop",
		"nodes":         []map[string]any{{"id": "a", "label": "Web", "serviceType": "EC2"}},
		"edges":         []any{},
		"terraformCode": `resource "aws_instance" "a" {}`,
	}

	rec := f.do(t, http.MethodPost, prefix+"/projects/save", record)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decodeBody[saveResponse](t, rec)
	assert.Equal(t, "Project saved successfully!", saved.Message)
	_, err := uuid.Parse(saved.ProjectID)
	require.NoError(t, err)

	exported, err := f.exports.Get(context.Background(), saved.ProjectID, artifact.TerraformFile)
	require.NoError(t, err)
	assert.Equal(t, `resource "aws_instance" "a" {}`, string(exported))

	rec = f.do(t, http.MethodGet, prefix+"/projects/dev@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]projectstore.Project](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, saved.ProjectID, list[0].ID)
	assert.Equal(t, projectstore.DefaultCostEstimate, list[0].CostEstimate)

	rec = f.do(t, http.MethodGet, prefix+"/project/"+saved.ProjectID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeBody[projectstore.Project](t, rec)
	assert.Equal(t, "Shop", got.Name)

	rec = f.do(t, http.MethodGet, prefix+"/project/"+saved.ProjectID+"/terraform", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `resource "aws_instance" "a" {}`, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "main.tf")

	rec = f.do(t, http.MethodDelete, prefix+"/projects/"+saved.ProjectID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Project deleted successfully", decodeBody[messageResponse](t, rec).Message)

	paths, err := f.exports.List(context.Background(), saved.ProjectID)
	require.NoError(t, err)
	assert.Empty(t, paths)

	rec = f.do(t, http.MethodGet, prefix+"/project/"+saved.ProjectID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = f.do(t, http.MethodDelete, prefix+"/projects/"+saved.ProjectID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSaveProjectValidation(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/projects/save", map[string]any{"ownerEmail": "not-an-email", "name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["detail"], "ownerEmail")

	rec = f.do(t, http.MethodPost, prefix+"/projects/save", map[string]any{"ownerEmail": "a@example.com"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["detail"], "name is required")

	assert.Zero(t, f.store.calls)
}

func TestInvalidProjectIDNeverReachesStorage(t *testing.T) {
	f := cannedFixture(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, prefix + "/project/not-a-uuid"},
		{http.MethodGet, prefix + "/project/12345/terraform"},
		{http.MethodDelete, prefix + "/projects/zzz"},
	} {
		rec := f.do(t, req.method, req.path, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, req.path)
	}
	assert.Zero(t, f.store.calls)
}

func TestAuditEndpoint(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/audit", map[string]string{
		"terraformCode": `resource "aws_db_instance" "db" { publicly_accessible = true }`,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string][]map[string]any](t, rec)
	require.Len(t, body["auditReport"], 1)
	assert.Equal(t, "CRITICAL", body["auditReport"][0]["severity"])
}

func TestEstimateEndpoint(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodPost, prefix+"/estimate", map[string]any{
		"nodes": []architecture.Node{{ID: "a", Label: "S3 bucket"}, {ID: "b", Label: "t2 instance"}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, 20.5, body["total"])
	assert.Equal(t, "USD", body["currency"])
}

func TestLiveness(t *testing.T) {
	f := cannedFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"status": "active", "project": "Nebula AI", "version": "test"}, decodeBody[map[string]string](t, rec))

	rec = f.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
