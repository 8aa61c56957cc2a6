package architecture

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nebula/internal/apperr"
)

func TestParseStateAppliesDefaults(t *testing.T) {
	raw := `{
	  "summary": "Web tier",
	  "nodes": [
	    {"id": "ec2-1", "label": "Web Server", "serviceType": "EC2"},
	    {"id": 7, "label": "Assets", "serviceType": "S3", "provider": "AWS", "type": "storageNode"}
	  ],
	  "edges": [{"id": "e1", "source": "ec2-1", "target": "7"}],
	  "terraform_code": "resource \"aws_instance\" \"web\" {}"
	}`

	st, err := ParseState(raw)
	require.NoError(t, err)

	assert.Equal(t, "Web tier", st.Summary)
	require.Len(t, st.Nodes, 2)
	assert.Equal(t, DefaultNodeType, st.Nodes[0].Type)
	assert.Equal(t, ProviderAWS, st.Nodes[0].Provider)
	assert.Equal(t, "7", st.Nodes[1].ID)
	assert.Equal(t, "storageNode", st.Nodes[1].Type)
	assert.Equal(t, ProviderAWS, st.Nodes[1].Provider)
	assert.Equal(t, []Edge{{ID: "e1", Source: "ec2-1", Target: "7"}}, st.Edges)
	assert.Equal(t, `resource "aws_instance" "web" {}`, st.TerraformCode)
}

func TestParseStateStripsMarkdownFences(t *testing.T) {
	raw := "Here is your design:\n```json\n{\"summary\": \"ok\", \"nodes\": [], \"edges\": []}\n```\nEnjoy!"

	st, err := ParseState(raw)
	require.NoError(t, err)
	assert.Equal(t, "ok", st.Summary)
	assert.Empty(t, st.Nodes)
	assert.NotNil(t, st.Nodes)
	assert.Empty(t, st.TerraformCode)
}

func TestParseStateFallsBackToNestedData(t *testing.T) {
	raw := `{"summary": "s", "nodes": [{"id": "n1", "data": {"label": "Orders DB", "serviceType": "RDS"}, "position": {"x": 10, "y": 20.5}}]}`

	st, err := ParseState(raw)
	require.NoError(t, err)
	require.Len(t, st.Nodes, 1)
	assert.Equal(t, "Orders DB", st.Nodes[0].Label)
	assert.Equal(t, "RDS", st.Nodes[0].ServiceType)
	assert.Equal(t, &Position{X: 10, Y: 20.5}, st.Nodes[0].Position)
}

func TestParseStateViolations(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		field string
	}{
		{"not json", "I could not do that", ""},
		{"truncated", `{"summary": "x", "nodes": [`, ""},
		{"trailing comma", `{"summary": "x",}`, ""},
		{"missing summary", `{"nodes": []}`, "summary"},
		{"empty summary", `{"summary": "  "}`, "summary"},
		{"summary wrong type", `{"summary": 3}`, "summary"},
		{"nodes wrong type", `{"summary": "s", "nodes": {}}`, "nodes"},
		{"node missing id", `{"summary": "s", "nodes": [{"label": "a", "serviceType": "EC2"}]}`, "nodes[0].id"},
		{"node missing label", `{"summary": "s", "nodes": [{"id": "a", "serviceType": "EC2"}]}`, "nodes[0].label"},
		{"node missing serviceType", `{"summary": "s", "nodes": [{"id": "a", "label": "A"}]}`, "nodes[0].serviceType"},
		{"unknown provider", `{"summary": "s", "nodes": [{"id": "a", "label": "A", "serviceType": "VM", "provider": "oracle"}]}`, "nodes[0].provider"},
		{"duplicate node", `{"summary": "s", "nodes": [{"id": "a", "label": "A", "serviceType": "EC2"}, {"id": "a", "label": "B", "serviceType": "S3"}]}`, "nodes[1].id"},
		{"edge missing target", `{"summary": "s", "nodes": [{"id": "a", "label": "A", "serviceType": "EC2"}], "edges": [{"id": "e", "source": "a"}]}`, "edges[0].target"},
		{"edge unknown node", `{"summary": "s", "nodes": [{"id": "a", "label": "A", "serviceType": "EC2"}], "edges": [{"id": "e", "source": "a", "target": "b"}]}`, "edges[0].target"},
		{"code wrong type", `{"summary": "s", "terraformCode": {"resource": {}}}`, "terraformCode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseState(tc.raw)
			require.Error(t, err)
			var v *SchemaViolation
			require.True(t, errors.As(err, &v), "want *SchemaViolation, got %T", err)
			assert.Equal(t, tc.field, v.Field)
			assert.Equal(t, apperr.KindSchemaViolation, apperr.KindOf(err))
		})
	}
}

func TestCheckGraph(t *testing.T) {
	nodes := []Node{{ID: "a"}, {ID: "b"}}
	require.NoError(t, CheckGraph(nodes, []Edge{{ID: "e1", Source: "a", Target: "b"}}))

	err := CheckGraph(nodes, []Edge{{ID: "e1", Source: "a", Target: "zz"}})
	var v *SchemaViolation
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "edges[0].target", v.Field)

	err = CheckGraph([]Node{{ID: "a"}, {ID: "a"}}, nil)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "nodes[1].id", v.Field)
}

func TestCheckDiagramRequiresNodeFields(t *testing.T) {
	ok := []Node{
		{ID: "a", Label: "Web", ServiceType: "EC2"},
		{ID: "b", Type: "default", Data: map[string]any{"label": "Bucket", "serviceType": "S3"}},
	}
	require.NoError(t, CheckDiagram(ok, []Edge{{ID: "e1", Source: "a", Target: "b"}}))

	var v *SchemaViolation
	err := CheckDiagram([]Node{{ID: "a", Data: map[string]any{"label": "Box"}}}, nil)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "nodes[0].serviceType", v.Field)

	err = CheckDiagram([]Node{{ID: "a", ServiceType: "EC2"}}, nil)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "nodes[0].label", v.Field)

	err = CheckDiagram([]Node{{ID: "a", Label: "Web", ServiceType: "EC2", Provider: "oracle"}}, nil)
	require.ErrorAs(t, err, &v)
	assert.Equal(t, "nodes[0].provider", v.Field)
}

func TestDisplayServiceType(t *testing.T) {
	assert.Equal(t, "EC2", Node{ServiceType: "EC2", Data: map[string]any{"serviceType": "RDS"}}.DisplayServiceType())
	assert.Equal(t, "RDS", Node{Data: map[string]any{"serviceType": "RDS"}}.DisplayServiceType())
	assert.Empty(t, Node{Data: map[string]any{"serviceType": 7}}.DisplayServiceType())
}

func TestSameGraphMatchesEditorShapedEcho(t *testing.T) {
	body := `{"summary": "s", "nodes": [
	  {"id": "vm", "type": "default", "data": {"label": "Web Instance", "serviceType": "EC2"}, "position": {"x": 1, "y": 2}}
	], "edges": []}`
	st, err := ParseState(body)
	require.NoError(t, err)

	in := []Node{{ID: "vm", Type: "default", Data: map[string]any{"label": "Web Instance", "serviceType": "EC2"}, Position: &Position{X: 1, Y: 2}}}
	ok, reason := SameGraph(in, nil, st.Nodes, st.Edges)
	assert.True(t, ok, reason)
}

func TestSameGraphIgnoresOrderAndLayout(t *testing.T) {
	want := []Node{
		{ID: "a", Label: "Web", ServiceType: "EC2", Provider: "aws", Position: &Position{X: 1}},
		{ID: "b", Data: map[string]any{"label": "Bucket"}, ServiceType: "S3"},
	}
	got := []Node{
		{ID: "b", Label: "Bucket", ServiceType: "S3", Provider: "aws"},
		{ID: "a", Label: "Web", ServiceType: "EC2", Provider: "AWS", Type: "cloudNode"},
	}
	edges := []Edge{{ID: "e1", Source: "a", Target: "b"}, {ID: "e2", Source: "b", Target: "a"}}
	reversed := []Edge{edges[1], edges[0]}

	ok, reason := SameGraph(want, edges, got, reversed)
	assert.True(t, ok, reason)
}

func TestSameGraphDetectsChanges(t *testing.T) {
	nodes := []Node{{ID: "a", Label: "Web", ServiceType: "EC2"}}
	edges := []Edge{}

	ok, _ := SameGraph(nodes, edges, []Node{{ID: "a", Label: "Web", ServiceType: "Lambda"}}, edges)
	assert.False(t, ok)

	ok, _ = SameGraph(nodes, edges, []Node{{ID: "x", Label: "Web", ServiceType: "EC2"}}, edges)
	assert.False(t, ok)

	ok, _ = SameGraph(nodes, edges, nodes, []Edge{{ID: "e", Source: "a", Target: "a"}})
	assert.False(t, ok)
}

func TestFormatInstructionsEmbedsSchema(t *testing.T) {
	fi := FormatInstructions()
	assert.Contains(t, fi, Schema())
	assert.Contains(t, fi, `"terraformCode"`)
}
