package projectstore

import (
	"strings"
	"time"

	"nebula/internal/architecture"
)

// DefaultCostEstimate is stored when a record arrives without an estimate.
const DefaultCostEstimate = "Calculating..."

// ListLimit caps how many projects ListByOwner returns.
const ListLimit = 100

// Project is a saved architecture snapshot.
type Project struct {
	ID            string              `json:"id"`
	OwnerEmail    string              `json:"ownerEmail" validate:"required,email"`
	Name          string              `json:"name" validate:"required,max=200"`
	Description   string              `json:"description,omitempty" validate:"max=2000"`
	Nodes         []architecture.Node `json:"nodes"`
	Edges         []architecture.Edge `json:"edges"`
	TerraformCode string              `json:"terraformCode"`
	CostEstimate  string              `json:"costEstimate"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// State returns the architecture carried by p.
func (p Project) State() architecture.State {
	return architecture.State{Nodes: p.Nodes, Edges: p.Edges, TerraformCode: p.TerraformCode}
}

func normalizeProject(p Project, now func() time.Time) Project {
	p.ID = strings.TrimSpace(p.ID)
	p.OwnerEmail = strings.TrimSpace(p.OwnerEmail)
	p.Name = strings.TrimSpace(p.Name)
	if p.Nodes == nil {
		p.Nodes = []architecture.Node{}
	}
	if p.Edges == nil {
		p.Edges = []architecture.Edge{}
	}
	if strings.TrimSpace(p.CostEstimate) == "" {
		p.CostEstimate = DefaultCostEstimate
	}
	if p.CreatedAt.IsZero() && now != nil {
		p.CreatedAt = now().UTC()
	}
	return p
}

type rowScanner interface {
	Scan(dest ...any) error
}
