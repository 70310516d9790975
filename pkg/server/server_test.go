package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/influencegraph/pkg/api"
	"github.com/matzehuels/influencegraph/pkg/dataset"
	igerrors "github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/store"
)

const mc1 = `{
  "nodes": [
    {"id": 1, "Node Type": "Person", "name": "Sailor Shift"},
    {"id": 2, "Node Type": "Song", "name": "Song A"},
    {"id": 3, "Node Type": "MusicalGroup", "name": "Ivy Echos"}
  ],
  "links": [
    {"source": 2, "target": 1, "Edge Type": "LyricalReferenceTo"},
    {"source": 1, "target": 3, "Edge Type": "MemberOf"}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	d, err := dataset.Parse(strings.NewReader(mc1))
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemory()
	if _, err := st.Import(context.Background(), d, store.ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	s := New(st, WithGatherer(prometheus.NewRegistry()), WithDefaults(Defaults{Iterations: 10}))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeEnvelope(t *testing.T, resp *http.Response) model.SearchResponse {
	t.Helper()
	var env model.SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestSearchNode(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/search-node/Sailor%20Shift")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if !env.Success || env.Data == nil || len(env.Data.Nodes) != 3 || len(env.Data.Edges) != 2 {
		t.Errorf("envelope = %+v", env)
	}
	if env.Data.Nodes[0].ID != "1" {
		t.Errorf("main node = %+v", env.Data.Nodes[0])
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("missing request ID")
	}
}

func TestSearchNodeNotFound(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/search-node/nobody")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	env := decodeEnvelope(t, resp)
	if env.Success || env.Error != NotFoundMessage {
		t.Errorf("envelope = %+v", env)
	}
}

func TestSearchNodeEscapedKeywords(t *testing.T) {
	d, err := dataset.Parse(strings.NewReader(`{
		"nodes": [
			{"id": 1, "Node Type": "MusicalGroup", "name": "AC/DC"},
			{"id": 2, "Node Type": "Song", "name": "100% Pure"},
			{"id": 3, "Node Type": "Song", "name": "Thunderstruck"}
		],
		"links": [{"source": 3, "target": 1, "Edge Type": "PerformerOf"}]
	}`))
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemory()
	if _, err := st.Import(context.Background(), d, store.ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(New(st, WithGatherer(prometheus.NewRegistry())).Handler())
	defer ts.Close()

	client := api.NewClient(ts.URL, api.WithRetry(1, 0))
	for _, keyword := range []string{"AC/DC", "100% Pure"} {
		resp, err := client.Search(context.Background(), keyword)
		if err != nil {
			t.Fatalf("Search(%q): %v", keyword, err)
		}
		if !resp.Success || resp.Data == nil || len(resp.Data.Nodes) == 0 || resp.Data.Nodes[0].Name != keyword {
			t.Errorf("Search(%q) = %+v", keyword, resp)
		}
	}
}

func TestSearchNodeInvalidKeyword(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"control character", "/api/search-node/Sailor%01Shift"},
		{"too long", "/api/search-node/" + strings.Repeat("a", igerrors.MaxKeywordLength+1)},
		{"blank", "/api/search-node/%20%20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := get(t, ts.URL+tt.path)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			if env := decodeEnvelope(t, resp); env.Success || env.Error == "" {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

type failingStore struct{}

func (failingStore) Search(context.Context, string) (*model.SearchData, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Close(context.Context) error { return nil }

func TestSearchNodeStoreError(t *testing.T) {
	ts := httptest.NewServer(New(failingStore{}, WithGatherer(prometheus.NewRegistry())).Handler())
	defer ts.Close()

	resp := get(t, ts.URL+"/api/search-node/x")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if env := decodeEnvelope(t, resp); env.Success || env.Error == "" {
		t.Errorf("envelope = %+v", env)
	}
}

func TestGraphJSON(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/graph/Sailor%20Shift?switch2=true")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if mode := resp.Header.Get("X-Graph-Mode"); mode != "influence" {
		t.Errorf("mode = %q", mode)
	}
	g, err := graph.Read(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	edges := g.Edges()
	if g.NodeCount() != 2 || len(edges) != 1 {
		t.Fatalf("graph = %d nodes, %d edges", g.NodeCount(), len(edges))
	}
	if e := edges[0]; e.Source != "2" || e.Target != "1" || e.Color != "orangered" {
		t.Errorf("edge = %+v", e)
	}
}

func TestGraphDOT(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/api/graph/Sailor%20Shift?collaboratedWith=true&format=dot&layout=circular")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if dot := string(body); !strings.Contains(dot, `"1" -> "3"`) || strings.Contains(dot, `"2" -> "1"`) {
		t.Errorf("DOT = %s", dot)
	}
	if got := resp.Header.Get("X-Graph-Layout"); got != "circular" {
		t.Errorf("layout = %q", got)
	}
}

func TestGraphErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/graph/Sailor%20Shift?format=gif", http.StatusBadRequest},
		{"/api/graph/Sailor%20Shift?layout=grid", http.StatusBadRequest},
		{"/api/graph/Sailor%20Shift?mode=sideways", http.StatusBadRequest},
		{"/api/graph/Sailor%20Shift?switch2=maybe", http.StatusBadRequest},
		{"/api/graph/Sailor%20Shift?iterations=many", http.StatusBadRequest},
		{"/api/graph/nobody", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := get(t, ts.URL+tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if env := decodeEnvelope(t, resp); env.Success || env.Error == "" {
				t.Errorf("envelope = %+v", env)
			}
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	resp := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Status != "ok" {
		t.Errorf("health = %+v, %v", body, err)
	}

	if resp := get(t, ts.URL+"/metrics"); resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	ts := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request ID = %q", got)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{igerrors.New(igerrors.ErrCodeInvalidKeyword, "x"), http.StatusBadRequest},
		{igerrors.New(igerrors.ErrCodeLoadFailed, NotFoundMessage), http.StatusNotFound},
		{igerrors.New(igerrors.ErrCodeLoadFailed, igerrors.LoadFailedMessage), http.StatusBadGateway},
		{igerrors.New(igerrors.ErrCodeUnsupported, "pdf"), http.StatusNotImplemented},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
