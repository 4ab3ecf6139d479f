package httptransport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/awmpietro/golang-rule-engine-case/internal/app"
	"github.com/awmpietro/golang-rule-engine-case/internal/transport/ruledto"
)

const defaultMaxBodyBytes = 1 << 20

type Handler struct {
	svc          app.RuleService
	maxBodyBytes int64
}

func NewHandler(svc app.RuleService) *Handler {
	return &Handler{svc: svc, maxBodyBytes: defaultMaxBodyBytes}
}

// Register mounts every rule endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	for _, p := range ruledto.Paths() {
		mux.Handle(p, h)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ruledto.ErrorResponse{Error: ruledto.CodeInvalidJSON, Details: err.Error()})
		return
	}

	resp := ruledto.Dispatch(r.Context(), h.svc, ruledto.Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	if resp.Status == http.StatusMethodNotAllowed {
		w.Header().Set("Allow", allowedMethod(r.URL.Path))
	}
	writeJSON(w, resp.Status, resp.Body)
}

func allowedMethod(path string) string {
	if path == "/rules" {
		return http.MethodGet
	}
	return http.MethodPost
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
