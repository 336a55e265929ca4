package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/uvlkit/uvlkit/pkg/cache"
	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/store"
)

const sandwichModel = "features\n\tSandwich\n\t\tmandatory\n\t\t\tBread\n\t\toptional\n\t\t\tCheese\n"

func testServer() *Server {
	runner := catalog.NewRunner(cache.NewNullCache(), nil)
	return New(runner, store.NewMemoryStore(), nil)
}

func post(t *testing.T, h http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := get(testServer().Handler(), "/healthz")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	h := testServer().Handler()

	w := post(t, h, "/v1/analyses/configurations_number", analysisRequest{ModelText: sandwichModel})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		Result json.Number `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Result.String() != "2" {
		t.Errorf("result = %s, want 2", resp.Result)
	}

	if id := w.Header().Get("X-Request-ID"); id == "" {
		t.Error("response missing X-Request-ID header")
	}
}

func TestAnalysisErrors(t *testing.T) {
	h := testServer().Handler()

	tests := []struct {
		name   string
		path   string
		body   analysisRequest
		status int
		code   string
	}{
		{
			name:   "UnknownOperation",
			path:   "/v1/analyses/summon_features",
			body:   analysisRequest{ModelText: sandwichModel},
			status: http.StatusNotFound,
			code:   "UNKNOWN_OPERATION",
		},
		{
			name:   "MalformedModel",
			path:   "/v1/analyses/satisfiability",
			body:   analysisRequest{ModelText: "features\n\tA\n\tB\n"},
			status: http.StatusBadRequest,
			code:   "MALFORMED_MODEL",
		},
		{
			name:   "UnknownFeature",
			path:   "/v1/analyses/commonality",
			body:   analysisRequest{ModelText: sandwichModel, Feature: "Tofu"},
			status: http.StatusUnprocessableEntity,
			code:   "UNKNOWN_FEATURE",
		},
		{
			name:   "MissingModel",
			path:   "/v1/analyses/satisfiability",
			body:   analysisRequest{},
			status: http.StatusBadRequest,
			code:   "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(t, h, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.status, w.Body)
			}
			var body errorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Error.Code != tt.code {
				t.Errorf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestModelLifecycle(t *testing.T) {
	h := testServer().Handler()

	// Upload.
	w := post(t, h, "/v1/models", createModelRequest{Name: "sandwich", Text: sandwichModel})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body)
	}
	var created store.Model
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.ID == "" {
		t.Fatal("created model has no id")
	}

	// Analyze by id.
	w = post(t, h, "/v1/analyses/core_features", analysisRequest{ModelID: created.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("analysis by id status = %d, body %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), `"Bread"`) {
		t.Errorf("core_features result missing Bread: %s", w.Body)
	}

	// Fetch and list.
	if w := get(h, "/v1/models/"+created.ID); w.Code != http.StatusOK {
		t.Errorf("get status = %d", w.Code)
	}
	if w := get(h, "/v1/models"); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), created.ID) {
		t.Errorf("list status = %d, body %s", w.Code, w.Body)
	}

	// Delete.
	req := httptest.NewRequest(http.MethodDelete, "/v1/models/"+created.ID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	if w := get(h, "/v1/models/"+created.ID); w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestCreateModelRejectsBadText(t *testing.T) {
	h := testServer().Handler()

	w := post(t, h, "/v1/models", createModelRequest{Name: "broken", Text: "features\n\tA\n\tB\n"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRenderDOT(t *testing.T) {
	h := testServer().Handler()

	w := post(t, h, "/v1/render", renderRequest{ModelText: sandwichModel, Format: "dot"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type = %s", ct)
	}
	if !strings.Contains(w.Body.String(), `"Sandwich" -> "Bread"`) {
		t.Errorf("DOT body missing tree edge: %s", w.Body)
	}

	w = post(t, h, "/v1/render", renderRequest{ModelText: sandwichModel, Format: "gif"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", w.Code)
	}
}

func TestOperationsEndpoint(t *testing.T) {
	w := get(testServer().Handler(), "/v1/operations")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp struct {
		Operations []string `json:"operations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Operations) != 21 {
		t.Errorf("listed %d operations, want 21", len(resp.Operations))
	}
}
