package llmclient

import (
	"context"
	"sync"
)

// FakeReply is one scripted answer.
type FakeReply struct {
	Text string
	Err  error
}

// FakeClient returns scripted replies for offline use and tests. Replies are
// consumed in order; the last one repeats once the script runs out.
type FakeClient struct {
	name    string
	respond func(Prompt) (string, error)

	mu      sync.Mutex
	replies []FakeReply
	prompts []Prompt
}

func NewFakeClient(name string, replies ...FakeReply) *FakeClient {
	if name == "" {
		name = "fake"
	}
	return &FakeClient{name: name, replies: replies}
}

// NewFakeResponder builds a FakeClient whose answers are computed from the prompt.
func NewFakeResponder(name string, fn func(Prompt) (string, error)) *FakeClient {
	f := NewFakeClient(name)
	f.respond = fn
	return f
}

// NewCannedClient answers every prompt with a small valid three-tier design.
// It backs LLM_FAKE so the service can run without provider credentials.
func NewCannedClient() *FakeClient {
	return NewFakeClient(ProviderFake, FakeReply{Text: cannedArchitecture})
}

func (f *FakeClient) Name() string { return "Fake:" + f.name }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	if f.respond != nil {
		f.mu.Unlock()
		return f.respond(p)
	}
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return "", ErrEmptyResponse
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r.Text, r.Err
}

// Calls returns how many times Complete was invoked.
func (f *FakeClient) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// Prompts returns a copy of every prompt received.
func (f *FakeClient) Prompts() []Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Prompt, len(f.prompts))
	copy(out, f.prompts)
	return out
}

const cannedArchitecture = `{
  "summary": "A public web tier behind a load balancer with a managed database and an asset bucket.",
  "nodes": [
    {"id": "alb", "type": "cloudNode", "label": "Application Load Balancer", "provider": "aws", "serviceType": "ELB", "position": {"x": 250, "y": 0}},
    {"id": "web", "type": "cloudNode", "label": "Web Server Instance", "provider": "aws", "serviceType": "EC2", "position": {"x": 250, "y": 150}},
    {"id": "db", "type": "cloudNode", "label": "Orders Database", "provider": "aws", "serviceType": "RDS", "position": {"x": 100, "y": 300}},
    {"id": "assets", "type": "cloudNode", "label": "Assets Bucket", "provider": "aws", "serviceType": "S3", "position": {"x": 400, "y": 300}}
  ],
  "edges": [
    {"id": "e-alb-web", "source": "alb", "target": "web"},
    {"id": "e-web-db", "source": "web", "target": "db"},
    {"id": "e-web-assets", "source": "web", "target": "assets"}
  ],
  "terraformCode": "provider \"aws\" {\n  region = \"us-east-1\"\n}\n\nresource \"aws_lb\" \"alb\" {\n  name               = \"web-alb\"\n  load_balancer_type = \"application\"\n}\n\nresource \"aws_instance\" \"web\" {\n  ami           = \"ami-0c55b159cbfafe1f0\"\n  instance_type = \"t3.micro\"\n}\n\nresource \"aws_db_instance\" \"db\" {\n  engine         = \"postgres\"\n  instance_class = \"db.t3.micro\"\n}\n\nresource \"aws_s3_bucket\" \"assets\" {\n  bucket = \"nebula-assets\"\n}\n"
}`
