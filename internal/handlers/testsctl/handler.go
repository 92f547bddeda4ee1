// Package testsctl is the test-control HTTP handler: an endpoint the
// testsuite pokes to drive dump operations on live caches without waiting
// for their update loops.
package testsctl

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vblazhnov/go-dumpcache/internal/dumper"
)

const HandlerName = "tests-control"

type request struct {
	Action        string `json:"action"`
	Cache         string `json:"cache"`
	Content       string `json:"content,omitempty"`
	UpdateTime    string `json:"update_time,omitempty"`
	OldUpdateTime string `json:"old_update_time,omitempty"`
	NewUpdateTime string `json:"new_update_time,omitempty"`
}

type response struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Content    string `json:"content,omitempty"`
	UpdateTime string `json:"update_time,omitempty"`
}

// Handler dispatches JSON test-control actions to registered dumpers.
type Handler struct {
	mu      sync.RWMutex
	dumpers map[string]*dumper.Dumper
	log     zerolog.Logger
}

func New(logger zerolog.Logger) *Handler {
	return &Handler{
		dumpers: make(map[string]*dumper.Dumper),
		log:     logger,
	}
}

func (h *Handler) Register(name string, d *dumper.Dumper) {
	h.mu.Lock()
	h.dumpers[name] = d
	h.mu.Unlock()
}

func (h *Handler) lookup(name string) (*dumper.Dumper, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	d, ok := h.dumpers[name]
	return d, ok
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, response{Status: "error", Error: "POST only"})
		return
	}

	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "malformed request body"})
		return
	}

	d, ok := h.lookup(req.Cache)
	if !ok {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "unknown cache: " + req.Cache})
		return
	}

	h.log.Info().Str("handler", HandlerName).Str("action", req.Action).
		Str("cache", req.Cache).Msg("test-control action requested")

	switch req.Action {
	case "write_dump":
		h.writeDump(w, r, d, req)
	case "read_dump":
		h.readDump(w, r, d)
	case "bump_dump_time":
		h.bumpDumpTime(w, r, d, req)
	case "clean_dumps":
		d.Cleanup(r.Context())
		writeJSON(w, http.StatusOK, response{Status: "ok"})
	default:
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "unknown action: " + req.Action})
	}
}

func (h *Handler) writeDump(w http.ResponseWriter, r *http.Request, d *dumper.Dumper, req request) {
	contents, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "content is not valid base64"})
		return
	}
	updateTime, err := time.Parse(time.RFC3339Nano, req.UpdateTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "malformed update_time"})
		return
	}

	if !d.WriteNew(r.Context(), dumper.DumpContents{Contents: contents, UpdateTime: updateTime}) {
		writeJSON(w, http.StatusOK, response{Status: "error", Error: "dump was not written"})
		return
	}
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

func (h *Handler) readDump(w http.ResponseWriter, r *http.Request, d *dumper.Dumper) {
	dump := d.ReadLatest(r.Context())
	if dump == nil {
		writeJSON(w, http.StatusOK, response{Status: "error", Error: "no usable dump"})
		return
	}
	writeJSON(w, http.StatusOK, response{
		Status:     "ok",
		Content:    base64.StdEncoding.EncodeToString(dump.Contents),
		UpdateTime: dump.UpdateTime.UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handler) bumpDumpTime(w http.ResponseWriter, r *http.Request, d *dumper.Dumper, req request) {
	oldTime, err := time.Parse(time.RFC3339Nano, req.OldUpdateTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "malformed old_update_time"})
		return
	}
	newTime, err := time.Parse(time.RFC3339Nano, req.NewUpdateTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Status: "error", Error: "malformed new_update_time"})
		return
	}

	if !d.BumpTime(r.Context(), oldTime, newTime) {
		writeJSON(w, http.StatusOK, response{Status: "error", Error: "dump was not renamed"})
		return
	}
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

func writeJSON(w http.ResponseWriter, code int, resp response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
