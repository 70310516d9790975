package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/influencegraph/pkg/config"
	"github.com/matzehuels/influencegraph/pkg/dataset"
	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/graph"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/server"
	"github.com/matzehuels/influencegraph/pkg/store"
)

const mc1 = `{
  "directed": true,
  "multigraph": true,
  "nodes": [
    {"id": 1, "Node Type": "Person", "name": "Sailor Shift"},
    {"id": 2, "Node Type": "Song", "name": "Song A"},
    {"id": 3, "Node Type": "Song", "name": "Sailor's Lament"},
    {"id": 4, "Node Type": "MusicalGroup", "name": "Ivy Echos"}
  ],
  "links": [
    {"source": 2, "target": 1, "Edge Type": "LyricalReferenceTo"},
    {"source": 1, "target": 3, "Edge Type": "PerformerOf"},
    {"source": 4, "target": 3, "Edge Type": "CoverOf"},
    {"source": 1, "target": 42, "Edge Type": "CoverOf"}
  ]
}`

// writeDataset writes the sample export and returns its path.
func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mc1.json")
	if err := os.WriteFile(path, []byte(mc1), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// newAPI serves the sample dataset through the search API.
func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	d, err := dataset.Parse(strings.NewReader(mc1))
	if err != nil {
		t.Fatal(err)
	}
	st := store.NewMemory()
	if _, err := st.Import(context.Background(), d, store.ImportOptions{}); err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.New(st, server.WithGatherer(prometheus.NewRegistry())).Handler())
	t.Cleanup(ts.Close)
	return ts
}

// writeConfig writes a config file pointing at apiURL with caching off.
func writeConfig(t *testing.T, apiURL, extra string) string {
	t.Helper()
	for _, env := range []string{config.EnvAPIURL, config.EnvDBHost, config.EnvRedisAddr, config.EnvMongoURI} {
		t.Setenv(env, "")
	}
	body := fmt.Sprintf(`
[api]
url = %q
retries = 1

[cache]
backend = "none"

[store]
backend = "memory"

[layout]
iterations = 20
%s`, apiURL, extra)
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// execute runs the root command and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	c := New(&stderr, LogInfo)
	root := c.RootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(&bytes.Buffer{}, LogInfo).RootCommand()
	want := []string{"search", "render", "explore", "serve", "import", "cache", "version", "completion"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestMissingConfig(t *testing.T) {
	_, _, err := execute(t, "version", "--config", filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v, want %s", err, errors.ErrCodeInvalidConfig)
	}
}

func TestVersion(t *testing.T) {
	cfg := writeConfig(t, "http://unused", "")
	out, _, err := execute(t, "version", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "version: dev") {
		t.Errorf("output = %q", out)
	}

	out, _, err = execute(t, "version", "--json", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"version":"dev"`) {
		t.Errorf("json output = %q", out)
	}
}

func TestSearch(t *testing.T) {
	ts := newAPI(t)
	cfg := writeConfig(t, ts.URL, "")

	out, _, err := execute(t, "search", "Sailor Shift", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Sailor Shift", "Song A", "Sailor's Lament", "LyricalReferenceTo", "PerformerOf", "3 nodes"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestSearchJSON(t *testing.T) {
	ts := newAPI(t)
	cfg := writeConfig(t, ts.URL, "")

	out, _, err := execute(t, "search", "Sailor Shift", "--json", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	var resp model.SearchResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !resp.Success || len(resp.Data.Nodes) != 3 || len(resp.Data.Edges) != 2 {
		t.Errorf("response = %+v", resp)
	}
}

func TestSearchNotFound(t *testing.T) {
	ts := newAPI(t)
	cfg := writeConfig(t, ts.URL, "")

	out, _, err := execute(t, "search", "nobody", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Node not found") {
		t.Errorf("output = %q", out)
	}
}

func TestRenderFromAPI(t *testing.T) {
	ts := newAPI(t)
	cfg := writeConfig(t, ts.URL, "")
	base := filepath.Join(t.TempDir(), "sailor")

	_, stderr, err := execute(t, "render", "Sailor Shift", "--influence-only", "-f", "json,dot", "-o", base, "--config", cfg)
	if err != nil {
		t.Fatalf("render: %v\n%s", err, stderr)
	}

	g, err := graph.ReadFile(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("graph has %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	e := g.Edges()[0]
	if e.Source != "2" || e.Target != "1" || e.Label != "LyricalReferenceTo" || e.Color != "orangered" {
		t.Errorf("edge = %+v", e)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"2" -> "1"`) {
		t.Errorf("dot = %s", dot)
	}
	if !strings.Contains(stderr, base+".json") {
		t.Errorf("stderr does not list the output: %q", stderr)
	}
}

func TestRenderFromDatasetToStdout(t *testing.T) {
	cfg := writeConfig(t, "http://unused", "")
	data := writeDataset(t)

	out, _, err := execute(t, "render", "Sailor Shift", "--dataset", data, "--influenced",
		"--layout", "circular", "-f", "json", "-o", "-", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	g, err := graph.Unmarshal([]byte(out))
	if err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	// Influence edges into the focus only: 2 -> 1.
	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Errorf("graph has %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
}

func TestRenderInvalidOptions(t *testing.T) {
	cfg := writeConfig(t, "http://unused", "")
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"format", []string{"-f", "gif"}, errors.ErrCodeInvalidFormat},
		{"layout", []string{"--layout", "grid"}, errors.ErrCodeInvalidLayout},
		{"mode", []string{"--mode", "sideways"}, errors.ErrCodeInvalidFilter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "Sailor Shift", "--config", cfg}, tt.args...)
			_, _, err := execute(t, args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestImportCheck(t *testing.T) {
	cfg := writeConfig(t, "http://unused", "")
	out, _, err := execute(t, "import", writeDataset(t), "--check", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Nodes", "Dangling", "MusicalGroup", "LyricalReferenceTo"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestImportIntoMemory(t *testing.T) {
	cfg := writeConfig(t, "http://unused", "")
	out, _, err := execute(t, "import", writeDataset(t), "--store", "memory", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Imported 4 nodes and 3 edges") || !strings.Contains(out, "Skipped 1 edges") {
		t.Errorf("output = %q", out)
	}
}

func TestImportUnknownStore(t *testing.T) {
	cfg := writeConfig(t, "http://unused", "")
	_, _, err := execute(t, "import", writeDataset(t), "--store", "sqlite", "--config", cfg)
	if !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("err = %v", err)
	}
}

func TestCacheCommands(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name  string
		extra string
		args  []string
		want  string
	}{
		{"path none", "", []string{"cache", "path"}, "none"},
		{"clear none", "", []string{"cache", "clear"}, "Caching is disabled"},
		{"path file", "[cache]\nbackend = \"file\"\ndir = " + fmt.Sprintf("%q", dir), []string{"cache", "path"}, dir},
		{"clear file", "[cache]\nbackend = \"file\"\ndir = " + fmt.Sprintf("%q", dir), []string{"cache", "clear"}, "Cache cleared"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeConfig(t, "http://unused", "")
			if tt.extra != "" {
				cfg = writeFileConfig(t, tt.extra)
			}
			out, _, err := execute(t, append(tt.args, "--config", cfg)...)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

// writeFileConfig writes a config file with only the given body.
func writeFileConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenStoreMemoryPreloadsDataset(t *testing.T) {
	c := New(&bytes.Buffer{}, LogInfo)
	c.cfg.Store.Backend = config.StoreMemory
	c.cfg.Store.Dataset = writeDataset(t)

	st, err := c.openStore(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	data, err := st.Search(context.Background(), "Ivy")
	if err != nil {
		t.Fatal(err)
	}
	if data.Nodes[0].Name != "Ivy Echos" {
		t.Errorf("main node = %+v", data.Nodes[0])
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Sailor Shift":     "sailor_shift",
		"  Oceanus Folk! ": "oceanus_folk",
		"Sailor's Lament":  "sailor_s_lament",
		"!!!":              "graph",
	}
	for in, want := range tests {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, keyword, want string
	}{
		{"", "Sailor Shift", "sailor_shift"},
		{"out/graph.svg", "x", "out/graph"},
		{"out/graph", "x", "out/graph"},
		{"graph.v2", "x", "graph.v2"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.keyword); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.keyword, got, tt.want)
		}
	}
}
