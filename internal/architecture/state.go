// Package architecture defines the canonical architecture state shared by the
// diagram and code projections, and the validating parse that turns untrusted
// provider output into it.
package architecture

import "strings"

// Cloud providers a node may target.
const (
	ProviderAWS   = "aws"
	ProviderAzure = "azure"
	ProviderGCP   = "gcp"
)

// DefaultNodeType is the diagram rendering tag applied when none is given.
const DefaultNodeType = "cloudNode"

// State is one architecture design: the diagram (Nodes, Edges) and the code
// that implements it.
type State struct {
	Summary       string `json:"summary"`
	Nodes         []Node `json:"nodes"`
	Edges         []Edge `json:"edges"`
	TerraformCode string `json:"terraformCode"`
}

// Node is one cloud resource on the diagram. Data and Position belong to the
// visual editor and are carried through without interpretation.
type Node struct {
	ID          string         `json:"id"`
	Label       string         `json:"label"`
	Type        string         `json:"type"`
	Provider    string         `json:"provider"`
	ServiceType string         `json:"serviceType"`
	Data        map[string]any `json:"data,omitempty"`
	Position    *Position      `json:"position,omitempty"`
}

// Position is the node's placement on the canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed relationship between two nodes of the same state.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// DisplayLabel returns the label the editor shows: data.label when present,
// the top-level label otherwise.
func (n Node) DisplayLabel() string {
	if n.Data != nil {
		if s, ok := n.Data["label"].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return n.Label
}

// DisplayServiceType returns the top-level serviceType, falling back to
// data.serviceType for nodes in the editor's shape.
func (n Node) DisplayServiceType() string {
	if strings.TrimSpace(n.ServiceType) != "" {
		return n.ServiceType
	}
	if n.Data != nil {
		if s, ok := n.Data["serviceType"].(string); ok {
			return s
		}
	}
	return n.ServiceType
}

// Empty reports whether the state carries neither diagram nor code.
func (s State) Empty() bool {
	return len(s.Nodes) == 0 && len(s.Edges) == 0 && strings.TrimSpace(s.TerraformCode) == ""
}

// Normalized returns s with nil slices replaced by empty ones so the JSON
// encoding is always `[]`.
func (s State) Normalized() State {
	if s.Nodes == nil {
		s.Nodes = []Node{}
	}
	if s.Edges == nil {
		s.Edges = []Edge{}
	}
	return s
}

// IsKnownProvider reports whether p is one of the supported clouds.
func IsKnownProvider(p string) bool {
	switch p {
	case ProviderAWS, ProviderAzure, ProviderGCP:
		return true
	}
	return false
}
