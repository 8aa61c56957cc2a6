package handler

import (
	"net/http"

	"nebula/internal/architecture"
	"nebula/internal/audit"
)

type auditRequest struct {
	TerraformCode string `json:"terraformCode"`
}

type estimateRequest struct {
	Nodes []architecture.Node `json:"nodes"`
}

func (h *Handler) Audit(w http.ResponseWriter, r *http.Request) {
	var in auditRequest
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, audit.Audit(in.TerraformCode))
}

func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var in estimateRequest
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.estimator.Estimate(in.Nodes))
}
