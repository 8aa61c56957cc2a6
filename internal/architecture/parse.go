package architecture

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nebula/internal/apperr"
)

// SchemaViolation names the first structural defect found in a candidate
// state. Field is a path such as "edges[2].target"; empty for the root.
type SchemaViolation struct {
	Field   string
	Problem string
}

func (v *SchemaViolation) Error() string {
	if v.Field == "" {
		return "schema violation: " + v.Problem
	}
	return fmt.Sprintf("schema violation at %s: %s", v.Field, v.Problem)
}

// ErrKind classifies violations for the HTTP layer.
func (v *SchemaViolation) ErrKind() apperr.Kind { return apperr.KindSchemaViolation }

func violation(field, format string, args ...any) *SchemaViolation {
	return &SchemaViolation{Field: field, Problem: fmt.Sprintf(format, args...)}
}

// ErrNoJSONObject is returned when raw provider text contains no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in output")

// ExtractJSON trims Markdown fences and surrounding prose from raw model
// output, returning the text between the first '{' and the last '}'.
func ExtractJSON(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```JSON", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)
	first := strings.IndexByte(s, '{')
	last := strings.LastIndexByte(s, '}')
	if first < 0 || last < first {
		return "", ErrNoJSONObject
	}
	return s[first : last+1], nil
}

// ParseState extracts, decodes and validates raw provider output. Decoding
// failures and structural defects are both reported as *SchemaViolation.
func ParseState(raw string) (State, error) {
	body, err := ExtractJSON(raw)
	if err != nil {
		return State{}, violation("", "%v", err)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return State{}, violation("", "invalid JSON: %v", err)
	}
	return Coerce(v)
}

// Coerce validates a decoded JSON value and converts it into a State.
// Numbers may be float64 or json.Number.
func Coerce(v any) (State, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return State{}, violation("", "expected an object, got %s", typeName(v))
	}

	var st State
	summary, present := obj["summary"]
	if !present || summary == nil {
		return State{}, violation("summary", "required")
	}
	s, ok := summary.(string)
	if !ok {
		return State{}, violation("summary", "expected a string, got %s", typeName(summary))
	}
	if strings.TrimSpace(s) == "" {
		return State{}, violation("summary", "must not be empty")
	}
	st.Summary = s

	nodes, err := coerceNodes(obj["nodes"])
	if err != nil {
		return State{}, err
	}
	st.Nodes = nodes

	edges, err := coerceEdges(obj["edges"])
	if err != nil {
		return State{}, err
	}
	st.Edges = edges

	code, field := obj["terraformCode"], "terraformCode"
	if code == nil {
		code, field = obj["terraform_code"], "terraform_code"
	}
	if code != nil {
		c, ok := code.(string)
		if !ok {
			return State{}, violation(field, "expected a string, got %s", typeName(code))
		}
		st.TerraformCode = c
	}

	if err := CheckGraph(st.Nodes, st.Edges); err != nil {
		return State{}, err
	}
	return st, nil
}

func coerceNodes(v any) ([]Node, error) {
	if v == nil {
		return []Node{}, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, violation("nodes", "expected an array, got %s", typeName(v))
	}
	out := make([]Node, 0, len(arr))
	for i, item := range arr {
		path := fmt.Sprintf("nodes[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, violation(path, "expected an object, got %s", typeName(item))
		}
		var n Node
		var err error

		if raw, present := m["data"]; present && raw != nil {
			data, ok := raw.(map[string]any)
			if !ok {
				return nil, violation(path+".data", "expected an object, got %s", typeName(raw))
			}
			n.Data = data
		}
		if n.ID, err = requiredID(m["id"], path+".id"); err != nil {
			return nil, err
		}
		if n.Label, err = stringOr(m["label"], n.Data["label"], path+".label"); err != nil {
			return nil, err
		}
		if n.ServiceType, err = stringOr(m["serviceType"], n.Data["serviceType"], path+".serviceType"); err != nil {
			return nil, err
		}
		if n.Type, err = optionalString(m["type"], path+".type"); err != nil {
			return nil, err
		}
		if n.Type == "" {
			n.Type = DefaultNodeType
		}
		provider, err := optionalString(m["provider"], path+".provider")
		if err != nil {
			return nil, err
		}
		provider = strings.ToLower(strings.TrimSpace(provider))
		if provider == "" {
			provider = ProviderAWS
		}
		if !IsKnownProvider(provider) {
			return nil, violation(path+".provider", "must be one of aws, azure, gcp; got %q", provider)
		}
		n.Provider = provider

		if raw, present := m["position"]; present && raw != nil {
			pos, err := coercePosition(raw, path+".position")
			if err != nil {
				return nil, err
			}
			n.Position = pos
		}
		out = append(out, n)
	}
	return out, nil
}

func coerceEdges(v any) ([]Edge, error) {
	if v == nil {
		return []Edge{}, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, violation("edges", "expected an array, got %s", typeName(v))
	}
	out := make([]Edge, 0, len(arr))
	for i, item := range arr {
		path := fmt.Sprintf("edges[%d]", i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, violation(path, "expected an object, got %s", typeName(item))
		}
		var e Edge
		var err error
		if e.ID, err = requiredID(m["id"], path+".id"); err != nil {
			return nil, err
		}
		if e.Source, err = requiredID(m["source"], path+".source"); err != nil {
			return nil, err
		}
		if e.Target, err = requiredID(m["target"], path+".target"); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func coercePosition(v any, path string) (*Position, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, violation(path, "expected an object, got %s", typeName(v))
	}
	x, err := number(m["x"], path+".x")
	if err != nil {
		return nil, err
	}
	y, err := number(m["y"], path+".y")
	if err != nil {
		return nil, err
	}
	return &Position{X: x, Y: y}, nil
}

// requiredID accepts a non-empty string or a number rendered as a string.
func requiredID(v any, path string) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", violation(path, "required")
	case string:
		if strings.TrimSpace(x) == "" {
			return "", violation(path, "must not be empty")
		}
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", violation(path, "expected a string, got %s", typeName(v))
	}
}

// stringOr reads a required string from primary, falling back to fallback
// when primary is absent.
func stringOr(primary, fallback any, path string) (string, error) {
	if primary == nil {
		primary = fallback
	}
	switch x := primary.(type) {
	case nil:
		return "", violation(path, "required")
	case string:
		if strings.TrimSpace(x) == "" {
			return "", violation(path, "must not be empty")
		}
		return x, nil
	default:
		return "", violation(path, "expected a string, got %s", typeName(primary))
	}
}

func optionalString(v any, path string) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	default:
		return "", violation(path, "expected a string, got %s", typeName(v))
	}
}

func number(v any, path string) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return x, nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, violation(path, "invalid number %q", x.String())
		}
		return f, nil
	default:
		return 0, violation(path, "expected a number, got %s", typeName(v))
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
