package handler

import (
	"net/http"

	"nebula/internal/architecture"
)

type generateRequest struct {
	Prompt string `json:"prompt"`
}

type codeSyncRequest struct {
	CurrentState architecture.State `json:"currentState"`
	UpdatedCode  string             `json:"updatedCode"`
}

type visualSyncRequest struct {
	CurrentState architecture.State  `json:"currentState"`
	UpdatedNodes []architecture.Node `json:"updatedNodes"`
	UpdatedEdges []architecture.Edge `json:"updatedEdges"`
}

// Generate answers 500 with the placeholder state when generation degraded.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var in generateRequest
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.arch.Generate(r.Context(), in.Prompt)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if res.Degraded {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, res)
}

func (h *Handler) SyncCode(w http.ResponseWriter, r *http.Request) {
	var in codeSyncRequest
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.arch.SyncFromCode(r.Context(), in.CurrentState, in.UpdatedCode)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SyncVisual(w http.ResponseWriter, r *http.Request) {
	var in visualSyncRequest
	if err := decode(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.arch.SyncFromVisual(r.Context(), in.CurrentState, in.UpdatedNodes, in.UpdatedEdges)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
