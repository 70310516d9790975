package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/influencegraph/pkg/buildinfo"
	"github.com/matzehuels/influencegraph/pkg/errors"
	"github.com/matzehuels/influencegraph/pkg/model"
	"github.com/matzehuels/influencegraph/pkg/pipeline"
	"github.com/matzehuels/influencegraph/pkg/render"
	"github.com/matzehuels/influencegraph/pkg/store"
)

// NotFoundMessage is the error of a search that matched nothing.
const NotFoundMessage = "Node not found"

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status string         `json:"status"`
		Build  buildinfo.Info `json:"build"`
	}{"ok", buildinfo.Get()})
}

func (s *Server) searchNode(w http.ResponseWriter, r *http.Request) {
	keyword, err := keywordParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := s.store.Search(r.Context(), keyword)
	switch {
	case stderrors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, model.SearchResponse{Success: false, Error: NotFoundMessage})
	case err != nil:
		s.logger.Error("search failed", "keyword", keyword, "error", err, "request_id", RequestID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, model.SearchResponse{Success: false, Error: "search failed"})
	default:
		writeJSON(w, http.StatusOK, model.SearchResponse{Success: true, Data: data})
	}
}

func (s *Server) graph(w http.ResponseWriter, r *http.Request) {
	opts, err := s.graphOptions(r)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	f := opts.Formats[0]
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("X-Graph-Mode", res.Mode.String())
	w.Header().Set("X-Graph-Layout", string(res.Layout))
	if res.Focus != "" {
		w.Header().Set("X-Graph-Focus", string(res.Focus))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Artifacts[f])
}

// graphOptions reads the UI filter toggles and render options from the
// query string.
func (s *Server) graphOptions(r *http.Request) (pipeline.Options, error) {
	keyword, err := keywordParam(r)
	if err != nil {
		return pipeline.Options{}, err
	}
	q := r.URL.Query()
	opts := pipeline.Options{
		Keyword:    keyword,
		Mode:       q.Get("mode"),
		Layout:     firstNonEmpty(q.Get("layout"), q.Get("layoutType"), s.defaults.Layout),
		Iterations: s.defaults.Iterations,
		Seed:       s.defaults.Seed,
	}

	flags := []struct {
		name string
		dst  *bool
	}{
		{"switch1", &opts.Filters.Switch1},
		{"switch2", &opts.Filters.Switch2},
		{"collaboratedWith", &opts.Filters.CollaboratedWith},
		{"influenced", &opts.Filters.Influenced},
		{"labels", &opts.Labels},
		{"edgeLabels", &opts.EdgeLabels},
		{"refresh", &opts.Refresh},
	}
	for _, f := range flags {
		if *f.dst, err = boolParam(q.Get(f.name), f.name); err != nil {
			return opts, err
		}
	}
	opts.Filters.LayoutType = opts.Layout

	if v := q.Get("iterations"); v != "" {
		if opts.Iterations, err = strconv.Atoi(v); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid iterations %q", v)
		}
	}
	if v := q.Get("seed"); v != "" {
		if opts.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid seed %q", v)
		}
	}

	format, err := render.ParseFormat(q.Get("format"))
	if err != nil {
		return opts, err
	}
	opts.Formats = []render.Format{format}
	return opts, nil
}

// keywordParam returns the decoded {keyword} segment. chi routes on the
// escaped path when the request has one, e.g. for an encoded slash.
func keywordParam(r *http.Request) (string, error) {
	keyword := chi.URLParam(r, "keyword")
	if r.URL.RawPath != "" {
		decoded, err := url.PathUnescape(keyword)
		if err != nil {
			return "", errors.New(errors.ErrCodeInvalidKeyword, "invalid keyword %q", keyword)
		}
		keyword = decoded
	}
	if err := errors.ValidateKeyword(keyword); err != nil {
		return "", err
	}
	return keyword, nil
}

func boolParam(v, name string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, v)
	}
	return b, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	code := errors.GetCode(err)
	switch {
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case code == errors.ErrCodeNotFound:
		return http.StatusNotFound
	case code == errors.ErrCodeLoadFailed && errors.UserMessage(err) == NotFoundMessage:
		return http.StatusNotFound
	case code == errors.ErrCodeLoadFailed, code == errors.ErrCodeNetwork:
		return http.StatusBadGateway
	case code == errors.ErrCodeTimeout, code == errors.ErrCodeSuperseded:
		return http.StatusGatewayTimeout
	case code == errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), model.SearchResponse{Success: false, Error: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
