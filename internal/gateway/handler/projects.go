package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"nebula/internal/apperr"
	"nebula/internal/architecture"
	"nebula/internal/gateway/repository/artifact"
	"nebula/internal/gateway/repository/projectstore"
)

type saveResponse struct {
	Message   string `json:"message"`
	ProjectID string `json:"projectId"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) SaveProject(w http.ResponseWriter, r *http.Request) {
	const op = "handler.save_project"
	var p projectstore.Project
	if err := decode(w, r, &p); err != nil {
		h.writeError(w, r, err)
		return
	}
	p.ID = ""
	p.OwnerEmail = strings.TrimSpace(p.OwnerEmail)
	p.Name = strings.TrimSpace(p.Name)
	if err := h.validate.Struct(p); err != nil {
		h.writeError(w, r, apperr.InvalidRequest(op, validationMessage(err)))
		return
	}
	if err := architecture.CheckGraph(p.Nodes, p.Edges); err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := h.projects.Save(r.Context(), p)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.export(r.Context(), id, p.TerraformCode)
	writeJSON(w, http.StatusOK, saveResponse{Message: "Project saved successfully!", ProjectID: id})
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	owner := strings.TrimSpace(r.PathValue("ownerEmail"))
	if owner == "" {
		h.writeError(w, r, apperr.InvalidRequest("handler.list_projects", "owner email is required"))
		return
	}
	list, err := h.projects.ListByOwner(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r, "Invalid Project ID format")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// GetTerraform serves the saved code as a downloadable main.tf. When the
// project was exported, the object URL is advertised in X-Artifact-Url.
func (h *Handler) GetTerraform(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r, "Invalid Project ID format")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.exports != nil {
		if u, err := h.exports.GetURL(r.Context(), id, artifact.TerraformFile); err == nil && u != "" {
			w.Header().Set("X-Artifact-Url", u)
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.TerraformFile))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(p.TerraformCode))
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := projectID(r, "Invalid Project ID")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	if h.exports != nil {
		if err := h.exports.Remove(r.Context(), id); err != nil {
			h.log.WarnContext(r.Context(), "terraform export cleanup failed", "project_id", id, "error", err)
		}
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}

// projectID rejects malformed ids before any storage call.
func projectID(r *http.Request, msg string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		return "", apperr.InvalidRequest("handler.project_id", msg)
	}
	return id.String(), nil
}

// export is best effort; the database row is the record of truth.
func (h *Handler) export(ctx context.Context, id, code string) {
	if h.exports == nil {
		return
	}
	if err := h.exports.Put(ctx, id, artifact.TerraformFile, []byte(code)); err != nil {
		h.log.WarnContext(ctx, "terraform export failed", "project_id", id, "error", err)
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			parts = append(parts, fmt.Sprintf("%s must be an email address", fe.Field()))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
