package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"nebula/internal/architecture"
)

func nodes(labels ...string) []architecture.Node {
	out := make([]architecture.Node, 0, len(labels))
	for i, l := range labels {
		out = append(out, architecture.Node{ID: string(rune('a' + i)), Label: l})
	}
	return out
}

func TestEstimateBucketAndInstance(t *testing.T) {
	got := Estimate(nodes("S3 bucket", "t2 instance"))

	assert.Equal(t, 20.50, got.Total)
	assert.Equal(t, "USD", got.Currency)
	assert.Equal(t, map[string]float64{"s3 bucket": 2.50, "t2 instance": 18.00}, got.Breakdown)
}

func TestEstimateUnmatchedLabel(t *testing.T) {
	got := Estimate(nodes("mystery widget"))

	assert.Zero(t, got.Total)
	assert.Empty(t, got.Breakdown)
	assert.Equal(t, Currency, got.Currency)
}

func TestEstimateFirstKeywordWins(t *testing.T) {
	got := Estimate(nodes("Database Cluster"))
	assert.Equal(t, 35.00, got.Total, "database is listed before cluster")

	reordered := New([]Rate{{"cluster", 40}, {"database", 35}}).Estimate(nodes("Database Cluster"))
	assert.Equal(t, 40.00, reordered.Total)
}

func TestEstimateOrderIndependentAcrossNodes(t *testing.T) {
	a := Estimate(nodes("Web Server", "RDS Database", "CloudFront CDN", "Application Load Balancer"))
	b := Estimate(nodes("Application Load Balancer", "CloudFront CDN", "RDS Database", "Web Server"))

	assert.Equal(t, a, b)
	assert.Equal(t, 78.00, a.Total)
}

func TestEstimateAccumulatesRepeatedLabels(t *testing.T) {
	got := Estimate(nodes("EC2 Instance", "ec2 instance", "VPC"))

	assert.Equal(t, 36.00, got.Total)
	assert.Equal(t, map[string]float64{"ec2 instance": 36.00}, got.Breakdown)
}

func TestEstimatePrefersNestedDisplayLabel(t *testing.T) {
	n := architecture.Node{ID: "x", Label: "widget", Data: map[string]any{"label": "Media Bucket"}}

	got := Estimate([]architecture.Node{n})
	assert.Equal(t, 2.50, got.Total)
	assert.Contains(t, got.Breakdown, "media bucket")
}

func TestEstimateEmpty(t *testing.T) {
	got := Estimate(nil)
	assert.Zero(t, got.Total)
	assert.NotNil(t, got.Breakdown)
}
