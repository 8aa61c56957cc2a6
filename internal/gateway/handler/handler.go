// Package handler exposes the architect, the project store and the static
// tools as JSON over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"nebula/internal/apperr"
	"nebula/internal/architect"
	"nebula/internal/architecture"
	"nebula/internal/gateway/repository/artifact"
	"nebula/internal/gateway/repository/projectstore"
	"nebula/internal/pricing"
)

// maxBody bounds request bodies; Terraform files and diagrams are small.
const maxBody = 4 << 20

// Architect is the subset of *architect.Architect the handlers need.
type Architect interface {
	Generate(ctx context.Context, prompt string) (architect.Result, error)
	SyncFromCode(ctx context.Context, current architecture.State, code string) (architect.Result, error)
	SyncFromVisual(ctx context.Context, current architecture.State, nodes []architecture.Node, edges []architecture.Edge) (architect.Result, error)
}

type Deps struct {
	Architect Architect
	Projects  projectstore.Store
	// Exports is optional; saved projects are mirrored to it when set.
	Exports   artifact.Store
	Estimator *pricing.Estimator
	Logger    *slog.Logger

	ProjectName string
	Version     string
}

type Handler struct {
	arch      Architect
	projects  projectstore.Store
	exports   artifact.Store
	estimator *pricing.Estimator
	validate  *validator.Validate
	log       *slog.Logger

	projectName string
	version     string
}

func New(d Deps) *Handler {
	h := &Handler{
		arch:        d.Architect,
		projects:    d.Projects,
		exports:     d.Exports,
		estimator:   d.Estimator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		log:         d.Logger,
		projectName: d.ProjectName,
		version:     d.Version,
	}
	h.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	if h.estimator == nil {
		h.estimator = pricing.New(nil)
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	return h
}

// Register mounts the API under prefix on mux.
func (h *Handler) Register(mux *http.ServeMux, prefix string) {
	prefix = strings.TrimRight(prefix, "/")
	route := func(method, path string, fn http.HandlerFunc) {
		mux.HandleFunc(method+" "+prefix+path, fn)
	}
	route(http.MethodPost, "/generate", h.Generate)
	route(http.MethodPost, "/sync/code", h.SyncCode)
	route(http.MethodPost, "/sync/visual", h.SyncVisual)

	route(http.MethodPost, "/projects/save", h.SaveProject)
	route(http.MethodGet, "/projects/{ownerEmail}", h.ListProjects)
	route(http.MethodGet, "/project/{id}", h.GetProject)
	route(http.MethodGet, "/project/{id}/terraform", h.GetTerraform)
	route(http.MethodDelete, "/projects/{id}", h.DeleteProject)

	route(http.MethodPost, "/audit", h.Audit)
	route(http.MethodPost, "/estimate", h.Estimate)

	mux.HandleFunc("GET /{$}", h.Liveness)
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "active",
		"project": h.projectName,
		"version": h.version,
	})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBody)
	err := json.NewDecoder(body).Decode(dst)
	switch {
	case errors.Is(err, io.EOF):
		return apperr.InvalidRequest("handler.decode", "request body is empty")
	case err != nil:
		return apperr.InvalidRequest("handler.decode", fmt.Sprintf("invalid json body: %v", err))
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status and writes {"detail": ...}.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "kind", apperr.KindOf(err).String(), "error", err)
	}
	writeJSON(w, status, map[string]string{"detail": detail(err)})
}

func detail(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Msg != "" && ae.Kind != apperr.KindStorageFailure {
		return ae.Msg
	}
	return err.Error()
}
