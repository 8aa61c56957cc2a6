package architecture

import (
	"fmt"
	"sort"
	"strings"
)

// CheckGraph enforces the diagram invariants: node ids are non-empty and
// unique, and every edge endpoint names an existing node.
func CheckGraph(nodes []Node, edges []Edge) error {
	ids := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		path := fmt.Sprintf("nodes[%d].id", i)
		if strings.TrimSpace(n.ID) == "" {
			return violation(path, "required")
		}
		if _, dup := ids[n.ID]; dup {
			return violation(path, "duplicate id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for i, e := range edges {
		path := fmt.Sprintf("edges[%d]", i)
		if strings.TrimSpace(e.ID) == "" {
			return violation(path+".id", "required")
		}
		if _, ok := ids[e.Source]; !ok {
			return violation(path+".source", "references unknown node %q", e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return violation(path+".target", "references unknown node %q", e.Target)
		}
	}
	return nil
}

// CheckDiagram is CheckGraph plus the per-node requirements a diagram must
// meet before it is sent for code generation: every node names a label and
// a service type, either at the top level or under data, and targets a
// supported provider.
func CheckDiagram(nodes []Node, edges []Edge) error {
	if err := CheckGraph(nodes, edges); err != nil {
		return err
	}
	for i, n := range nodes {
		path := fmt.Sprintf("nodes[%d]", i)
		if strings.TrimSpace(n.DisplayLabel()) == "" {
			return violation(path+".label", "required")
		}
		if strings.TrimSpace(n.DisplayServiceType()) == "" {
			return violation(path+".serviceType", "required")
		}
		provider := strings.ToLower(strings.TrimSpace(n.Provider))
		if provider != "" && !IsKnownProvider(provider) {
			return violation(path+".provider", "must be one of aws, azure, gcp; got %q", provider)
		}
	}
	return nil
}

// nodeKey is the identity of a node for comparison purposes. Layout and
// editor-only data are excluded.
type nodeKey struct {
	ID, Label, ServiceType, Provider string
}

func keyOfNode(n Node) nodeKey {
	provider := strings.ToLower(strings.TrimSpace(n.Provider))
	if provider == "" {
		provider = ProviderAWS
	}
	return nodeKey{
		ID:          n.ID,
		Label:       strings.TrimSpace(n.DisplayLabel()),
		ServiceType: strings.TrimSpace(n.DisplayServiceType()),
		Provider:    provider,
	}
}

// SameGraph compares two diagrams as sets, ignoring order. On mismatch the
// returned string describes the first difference found.
func SameGraph(wantNodes []Node, wantEdges []Edge, gotNodes []Node, gotEdges []Edge) (bool, string) {
	if len(wantNodes) != len(gotNodes) {
		return false, fmt.Sprintf("node count changed from %d to %d", len(wantNodes), len(gotNodes))
	}
	if len(wantEdges) != len(gotEdges) {
		return false, fmt.Sprintf("edge count changed from %d to %d", len(wantEdges), len(gotEdges))
	}

	got := make(map[string]nodeKey, len(gotNodes))
	for _, n := range gotNodes {
		got[n.ID] = keyOfNode(n)
	}
	for _, n := range wantNodes {
		k, ok := got[n.ID]
		if !ok {
			return false, fmt.Sprintf("node %q missing", n.ID)
		}
		if want := keyOfNode(n); k != want {
			return false, fmt.Sprintf("node %q altered: want %+v, got %+v", n.ID, want, k)
		}
	}

	a := edgeKeys(wantEdges)
	b := edgeKeys(gotEdges)
	for i := range a {
		if a[i] != b[i] {
			return false, fmt.Sprintf("edge %s differs from %s", a[i], b[i])
		}
	}
	return true, ""
}

func edgeKeys(edges []Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.ID+":"+e.Source+"->"+e.Target)
	}
	sort.Strings(out)
	return out
}
