package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/matzehuels/influencegraph/pkg/api"
	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/filter"
	"github.com/matzehuels/influencegraph/pkg/model"
)

func staticFetcher(resp *model.SearchResponse, err error) Fetcher {
	return FetcherFunc(func(context.Context, string) (*model.SearchResponse, error) {
		return resp, err
	})
}

func TestLoadSuccess(t *testing.T) {
	data := sampleData(t)
	l := New(staticFetcher(&model.SearchResponse{Success: true, Data: &data}, nil))

	res, err := l.Load(context.Background(), "Sailor Shift", filter.Filters{Switch2: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Keyword != "Sailor Shift" || res.Focus != "1" {
		t.Errorf("result = %+v", res)
	}
	if res.Graph.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", res.Graph.EdgeCount())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		resp     *model.SearchResponse
		err      error
		wantMsg  string
		wantCode errors.Code
	}{
		{
			name:     "payload error",
			resp:     &model.SearchResponse{Success: false, Error: "Node not found"},
			wantMsg:  "Node not found",
			wantCode: errors.ErrCodeLoadFailed,
		},
		{
			name:     "payload without error string",
			resp:     &model.SearchResponse{Success: false},
			wantMsg:  errors.LoadFailedMessage,
			wantCode: errors.ErrCodeLoadFailed,
		},
		{
			name:     "transport error",
			err:      fmt.Errorf("connection refused"),
			wantMsg:  errors.LoadFailedMessage,
			wantCode: errors.ErrCodeLoadFailed,
		},
		{
			name:     "success without data",
			resp:     &model.SearchResponse{Success: true},
			wantMsg:  errors.LoadFailedMessage,
			wantCode: errors.ErrCodeLoadFailed,
		},
		{
			name:     "nil response",
			wantMsg:  errors.LoadFailedMessage,
			wantCode: errors.ErrCodeLoadFailed,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(staticFetcher(tt.resp, tt.err))
			res, err := l.Load(context.Background(), "Sailor Shift", filter.Default())
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Error("result must be nil on error")
			}
			if got := errors.UserMessage(err); got != tt.wantMsg {
				t.Errorf("UserMessage = %q, want %q", got, tt.wantMsg)
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %s, want %s", got, tt.wantCode)
			}
		})
	}
}

func TestLoadEmptyKeywordSkipsFetch(t *testing.T) {
	called := false
	l := New(FetcherFunc(func(context.Context, string) (*model.SearchResponse, error) {
		called = true
		return nil, nil
	}))
	_, err := l.Load(context.Background(), "", filter.Default())
	if !errors.Is(err, errors.ErrCodeInvalidKeyword) {
		t.Errorf("err = %v", err)
	}
	if called {
		t.Error("fetcher called for empty keyword")
	}
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l := New(FetcherFunc(func(ctx context.Context, _ string) (*model.SearchResponse, error) {
		return nil, ctx.Err()
	}))
	_, err := l.Load(ctx, "x", filter.Default())
	if !errors.Is(err, errors.ErrCodeSuperseded) {
		t.Errorf("err = %v, want superseded", err)
	}
}

func TestWithSeed(t *testing.T) {
	data := sampleData(t)
	f := staticFetcher(&model.SearchResponse{Success: true, Data: &data}, nil)

	a, _ := New(f, WithSeed(3)).Load(context.Background(), "x", filter.Default())
	b, _ := New(f, WithSeed(3)).Load(context.Background(), "x", filter.Default())
	pa, pb := a.Graph.Positions(), b.Graph.Positions()
	for id := range pa {
		if pa[id] != pb[id] {
			t.Fatalf("positions differ for %s", id)
		}
	}
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"success": true, "data": {
			"nodes": [
				{"id": 1, "name": "Sailor Shift", "type": "Person"},
				{"id": 2, "name": "Song A", "type": 7},
				{"id": {"x": 1}, "name": "Broken Id", "type": "Song"},
				{"id": 4, "name": "Broken Props", "type": "Song", "properties": "oops"}
			],
			"edges": [
				{"source": 2, "target": 1, "type": "LyricalReferenceTo"},
				{"source": [1], "target": 1, "type": "CoverOf"},
				{"source": 4, "target": 1, "type": "CoverOf"}
			]
		}}`)
	}))
	defer ts.Close()

	l := New(api.NewClient(ts.URL, api.WithRetry(1, 0)))
	res, err := l.Load(context.Background(), "Sailor Shift", filter.Filters{Switch2: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Graph.NodeCount() != 2 || res.Graph.EdgeCount() != 1 {
		t.Fatalf("graph = %d nodes, %d edges, want 2, 1", res.Graph.NodeCount(), res.Graph.EdgeCount())
	}
	song, ok := res.Graph.Node("2")
	if !ok {
		t.Fatal("node with a non-string type was dropped")
	}
	if song.Color != model.DefaultNodeStyle.Color || song.Size != model.DefaultNodeStyle.Size {
		t.Errorf("untyped node style = %s/%v, want default", song.Color, song.Size)
	}
	if res.Skipped.Nodes != 2 || res.Skipped.Edges != 2 {
		t.Errorf("Skipped = %+v, want 2 nodes, 2 edges", res.Skipped)
	}
}
