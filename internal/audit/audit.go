// Package audit runs static cost, security and reliability checks over
// Terraform source without invoking a model.
package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Severity orders findings from most to least urgent.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
	SeverityInfo     Severity = "INFO"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Rule identifiers.
const (
	RuleOversizedInstance = "cost/oversized-instance"
	RuleOpenIngress       = "security/open-ingress"
	RulePublicDatabase    = "security/public-database"
	RulePublicBucketACL   = "security/public-bucket-acl"
	RuleWildcardPrincipal = "security/wildcard-principal"
	RulePinnedZone        = "reliability/pinned-availability-zone"
	RuleUnparseable       = "syntax/unparseable"
)

// Finding is one issue detected in the source.
type Finding struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Rule     string   `json:"rule" yaml:"rule"`
	Resource string   `json:"resource,omitempty" yaml:"resource,omitempty"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

// Report is the result of auditing one source file.
type Report struct {
	Findings []Finding `json:"auditReport" yaml:"auditReport"`
}

// Critical reports whether any finding is CRITICAL.
func (r Report) Critical() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

var (
	oversizedMarkers  = []string{"xlarge", "metal", "gpu"}
	wildcardPrincipal = regexp.MustCompile(`"Principal"\s*:\s*(\{\s*"AWS"\s*:\s*)?"\*"`)
	openCIDRs         = map[string]bool{"0.0.0.0/0": true, "::/0": true}
)

// Audit parses code as HCL and checks every resource block. Source that
// does not parse yields a single INFO finding instead of an error.
func Audit(code string) Report {
	rep := Report{Findings: []Finding{}}
	if strings.TrimSpace(code) == "" {
		return rep
	}
	file, diags := hclsyntax.ParseConfig([]byte(code), "main.tf", hcl.Pos{Line: 1, Column: 1})
	if file == nil || diags.HasErrors() {
		rep.Findings = append(rep.Findings, Finding{
			Severity: SeverityInfo,
			Rule:     RuleUnparseable,
			Message:  fmt.Sprintf("Terraform source could not be parsed: %s", firstDiag(diags)),
		})
		return rep
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return rep
	}

	for _, block := range body.Blocks {
		if block.Type != "resource" || len(block.Labels) < 2 {
			continue
		}
		a := &auditor{kind: block.Labels[0], name: block.Labels[0] + "." + block.Labels[1]}
		a.resource(block.Body)
		rep.Findings = append(rep.Findings, a.findings...)
	}

	sort.SliceStable(rep.Findings, func(i, j int) bool {
		a, b := rep.Findings[i], rep.Findings[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() < b.Severity.rank()
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Rule < b.Rule
	})
	return rep
}

type auditor struct {
	kind     string
	name     string
	findings []Finding
}

func (a *auditor) add(sev Severity, rule string, attr *hclsyntax.Attribute, format string, args ...any) {
	f := Finding{Severity: sev, Rule: rule, Resource: a.name, Message: fmt.Sprintf(format, args...)}
	if attr != nil {
		f.Line = attr.SrcRange.Start.Line
	}
	a.findings = append(a.findings, f)
}

func (a *auditor) resource(body *hclsyntax.Body) {
	for name, attr := range body.Attributes {
		switch name {
		case "instance_type", "instance_class", "node_type":
			if v, ok := stringAttr(attr); ok && oversized(v) {
				a.add(SeverityCritical, RuleOversizedInstance, attr,
					"High Cost Alert: %s uses %s.", a.name, v)
			}
		case "publicly_accessible":
			if v, ok := boolAttr(attr); ok && v {
				a.add(SeverityCritical, RulePublicDatabase, attr,
					"Security Risk: %s is publicly accessible.", a.name)
			}
		case "acl":
			if v, ok := stringAttr(attr); ok && (v == "public-read" || v == "public-read-write") {
				a.add(SeverityCritical, RulePublicBucketACL, attr,
					"Security Risk: %s grants %s access.", a.name, v)
			}
		case "policy":
			if v, ok := stringAttr(attr); ok && wildcardPrincipal.MatchString(v) {
				a.add(SeverityCritical, RuleWildcardPrincipal, attr,
					"Security Risk: %s allows Principal \"*\".", a.name)
			}
		case "availability_zone":
			if v, ok := stringAttr(attr); ok && v != "" {
				a.add(SeverityWarning, RulePinnedZone, attr,
					"Reliability Risk: %s is pinned to %s.", a.name, v)
			}
		}
	}

	if a.kind == "aws_security_group_rule" {
		if v, ok := stringAttr(body.Attributes["type"]); ok && v == "ingress" {
			a.openIngress(body)
		}
	}
	if a.kind == "aws_vpc_security_group_ingress_rule" {
		a.openIngress(body)
	}
	for _, nested := range body.Blocks {
		if nested.Type == "ingress" {
			a.openIngress(nested.Body)
		}
	}
}

func (a *auditor) openIngress(body *hclsyntax.Body) {
	for _, name := range []string{"cidr_blocks", "ipv6_cidr_blocks", "cidr_ipv4", "cidr_ipv6"} {
		attr, ok := body.Attributes[name]
		if !ok {
			continue
		}
		for _, cidr := range stringsAttr(attr) {
			if openCIDRs[cidr] {
				a.add(SeverityCritical, RuleOpenIngress, attr,
					"Security Risk: %s allows ingress from %s.", a.name, cidr)
				return
			}
		}
	}
}

func oversized(instanceType string) bool {
	t := strings.ToLower(instanceType)
	for _, m := range oversizedMarkers {
		if strings.Contains(t, m) {
			return true
		}
	}
	return false
}

// Attribute values that reference variables or other resources do not
// evaluate without a context and are skipped.
func value(attr *hclsyntax.Attribute) (cty.Value, bool) {
	if attr == nil {
		return cty.NilVal, false
	}
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() {
		return cty.NilVal, false
	}
	return v, true
}

func stringAttr(attr *hclsyntax.Attribute) (string, bool) {
	v, ok := value(attr)
	if !ok || v.Type() != cty.String {
		return "", false
	}
	return v.AsString(), true
}

func boolAttr(attr *hclsyntax.Attribute) (bool, bool) {
	v, ok := value(attr)
	if !ok {
		return false, false
	}
	switch v.Type() {
	case cty.Bool:
		return v.True(), true
	case cty.String:
		return v.AsString() == "true", true
	}
	return false, false
}

func stringsAttr(attr *hclsyntax.Attribute) []string {
	v, ok := value(attr)
	if !ok {
		return nil
	}
	if v.Type() == cty.String {
		return []string{v.AsString()}
	}
	if !v.CanIterateElements() {
		return nil
	}
	var out []string
	v.ForEachElement(func(_ cty.Value, el cty.Value) (stop bool) {
		if el.IsKnown() && !el.IsNull() && el.Type() == cty.String {
			out = append(out, el.AsString())
		}
		return false
	})
	return out
}

func firstDiag(diags hcl.Diagnostics) string {
	for _, d := range diags {
		if d.Severity == hcl.DiagError {
			return d.Error()
		}
	}
	return "no body"
}
