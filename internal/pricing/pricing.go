// Package pricing estimates monthly cost for a diagram from a static keyword
// table. It is not a pricing oracle.
package pricing

import (
	"math"
	"strings"

	"nebula/internal/architecture"
)

// Currency is the only currency the estimator reports.
const Currency = "USD"

// Rate is the monthly cost attributed to a node whose label contains Keyword.
type Rate struct {
	Keyword string
	Monthly float64
}

// DefaultTable is matched in order; the first keyword found in a label wins.
var DefaultTable = []Rate{
	{"instance", 18.00},
	{"server", 18.00},
	{"ec2", 18.00},
	{"bucket", 2.50},
	{"storage", 2.50},
	{"s3", 2.50},
	{"database", 35.00},
	{"rds", 35.00},
	{"db", 35.00},
	{"cluster", 40.00},
	{"lambda", 0.00},
	{"function", 0.00},
	{"load balancer", 20.00},
	{"vpc", 0.00},
	{"subnet", 0.00},
	{"gateway", 0.00},
	{"cloudfront", 5.00},
}

// Breakdown is an itemized monthly estimate.
type Breakdown struct {
	Total     float64            `json:"total" yaml:"total"`
	Currency  string             `json:"currency" yaml:"currency"`
	Breakdown map[string]float64 `json:"breakdown" yaml:"breakdown"`
}

// Estimator prices nodes against an ordered table.
type Estimator struct {
	table []Rate
}

// New returns an Estimator over table, or DefaultTable when table is empty.
func New(table []Rate) *Estimator {
	if len(table) == 0 {
		table = DefaultTable
	}
	cp := make([]Rate, len(table))
	copy(cp, table)
	return &Estimator{table: cp}
}

// Estimate prices nodes using DefaultTable.
func Estimate(nodes []architecture.Node) Breakdown {
	return New(nil).Estimate(nodes)
}

// Estimate returns the monthly cost of nodes. Labels are matched
// case-insensitively; unmatched labels cost nothing.
func (e *Estimator) Estimate(nodes []architecture.Node) Breakdown {
	out := Breakdown{Currency: Currency, Breakdown: map[string]float64{}}
	var total float64
	for _, n := range nodes {
		label := strings.ToLower(n.DisplayLabel())
		cost := e.price(label)
		total += cost
		if cost > 0 {
			out.Breakdown[label] = round2(out.Breakdown[label] + cost)
		}
	}
	out.Total = round2(total)
	return out
}

func (e *Estimator) price(label string) float64 {
	if label == "" {
		return 0
	}
	for _, r := range e.table {
		if strings.Contains(label, r.Keyword) {
			return r.Monthly
		}
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
