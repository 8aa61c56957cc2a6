// Package architect turns prompts into architecture states and keeps the
// diagram and code projections of a state in sync.
package architect

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"nebula/internal/apperr"
	"nebula/internal/architecture"
	"nebula/internal/llm"
	llmclient "nebula/internal/llmClient"
	"nebula/internal/llmtool"
	"nebula/internal/metrics"
	"nebula/internal/pricing"
)

const (
	// FailedSummary is the summary of a degraded generation result.
	FailedSummary = "AI failed to generate architecture."

	// CanvasClearedSummary is returned when the diagram is emptied.
	CanvasClearedSummary = "All resources removed from the visual canvas."

	// CodeClearedSummary is returned when the code is emptied.
	CodeClearedSummary = "All resources removed from the Terraform code."

	costLineFormat = "\n\nESTIMATED COST: $%.2f / month*"
)

const (
	opGenerate   = "generate"
	opSyncCode   = "sync_code"
	opSyncVisual = "sync_visual"
)

// ModelSource hands out the provider to use for one request.
type ModelSource interface {
	BestAvailableModel(ctx context.Context) (llmclient.LLMClient, error)
}

// Result is an architecture state plus its derived cost estimate.
type Result struct {
	architecture.State
	CostEstimate pricing.Breakdown `json:"costEstimate"`

	// Error is set only on degraded generation results.
	Error string `json:"error,omitempty"`
	// Degraded marks a placeholder state returned after a generation failure.
	Degraded bool  `json:"-"`
	Cause    error `json:"-"`
}

type Options struct {
	Models    ModelSource
	Logger    *slog.Logger
	Estimator *pricing.Estimator
	// Timeout bounds one operation including failover. Zero disables it.
	Timeout time.Duration
}

type Architect struct {
	models    ModelSource
	log       *slog.Logger
	estimator *pricing.Estimator
	timeout   time.Duration
}

func New(opts Options) *Architect {
	a := &Architect{
		models:    opts.Models,
		log:       opts.Logger,
		estimator: opts.Estimator,
		timeout:   opts.Timeout,
	}
	if a.log == nil {
		a.log = slog.Default()
	}
	if a.estimator == nil {
		a.estimator = pricing.New(nil)
	}
	return a
}

func (a *Architect) withDeadline(ctx context.Context, op string) (context.Context, context.CancelFunc) {
	ctx = llm.WithOperation(ctx, op)
	if a.timeout > 0 {
		return context.WithTimeout(ctx, a.timeout)
	}
	return context.WithCancel(ctx)
}

// complete obtains a provider and runs p through it.
func (a *Architect) complete(ctx context.Context, p llmclient.Prompt) (string, error) {
	if a.models == nil {
		return "", apperr.New(apperr.KindNoProviderAvailable, "architect", "no model source configured")
	}
	model, err := a.models.BestAvailableModel(ctx)
	if err != nil {
		return "", err
	}
	return model.Complete(ctx, p)
}

func (a *Architect) result(st architecture.State) Result {
	st = st.Normalized()
	return Result{State: st, CostEstimate: a.estimator.Estimate(st.Nodes)}
}

// Generate designs a new architecture from a natural-language prompt. A
// blank prompt is an InvalidRequest. Every other failure yields a degraded
// placeholder result and a nil error.
func (a *Architect) Generate(ctx context.Context, prompt string) (Result, error) {
	const op = "architect.generate"
	if strings.TrimSpace(prompt) == "" {
		metrics.ObserveOperation(opGenerate, apperr.KindInvalidRequest.String())
		return Result{}, apperr.InvalidRequest(op, "prompt must not be empty")
	}
	ctx, cancel := a.withDeadline(ctx, opGenerate)
	defer cancel()

	req, err := generateSpec.Render(llmtool.Section{Title: "user request", Body: prompt})
	if err != nil {
		return a.degraded(ctx, apperr.Wrap(apperr.KindGenerationFailed, op, err)), nil
	}
	raw, err := a.complete(ctx, req)
	if err != nil {
		return a.degraded(ctx, err), nil
	}
	st, err := architecture.ParseState(raw)
	if err != nil {
		return a.degraded(ctx, &apperr.Error{Kind: apperr.KindGenerationFailed, Op: op, Msg: "provider output rejected", Raw: raw, Err: err}), nil
	}

	res := a.result(st)
	res.Summary += fmt.Sprintf(costLineFormat, res.CostEstimate.Total)
	metrics.ObserveOperation(opGenerate, "ok")
	a.log.InfoContext(ctx, "architecture generated", "nodes", len(res.Nodes), "edges", len(res.Edges), "cost", res.CostEstimate.Total)
	return res, nil
}

func (a *Architect) degraded(ctx context.Context, err error) Result {
	metrics.ObserveOperation(opGenerate, "degraded")
	a.log.WarnContext(ctx, "generation degraded", "kind", apperr.KindOf(err).String(), "error", err)
	res := a.result(architecture.State{Summary: FailedSummary})
	res.Error = err.Error()
	res.Degraded = true
	res.Cause = err
	return res
}

// SyncFromCode re-derives the diagram from hand-edited Terraform. The
// returned terraformCode is always code, whatever the provider answered.
func (a *Architect) SyncFromCode(ctx context.Context, current architecture.State, code string) (Result, error) {
	const op = "architect.sync_code"
	if strings.TrimSpace(code) == "" {
		metrics.ObserveOperation(opSyncCode, "cleared")
		return a.result(architecture.State{Summary: CodeClearedSummary, TerraformCode: code}), nil
	}
	ctx, cancel := a.withDeadline(ctx, opSyncCode)
	defer cancel()

	prev, err := llmtool.JSONSection("previous diagram", map[string]any{
		"nodes": current.Normalized().Nodes,
		"edges": current.Normalized().Edges,
	})
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncCode, apperr.Wrap(apperr.KindSyncFailed, op, err))
	}
	req, err := codeSyncSpec.Render(
		llmtool.Section{Title: "previous summary", Body: current.Summary},
		prev,
		llmtool.Section{Title: "new terraform code", Body: code},
	)
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncCode, apperr.Wrap(apperr.KindSyncFailed, op, err))
	}

	raw, err := a.complete(ctx, req)
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncCode, providerFailure(op, err))
	}
	st, err := architecture.ParseState(raw)
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncCode, &apperr.Error{Kind: apperr.KindSyncFailed, Op: op, Msg: "provider output rejected", Raw: raw, Err: err})
	}
	st.TerraformCode = code

	metrics.ObserveOperation(opSyncCode, "ok")
	return a.result(st), nil
}

// SyncFromVisual regenerates code and summary for a hand-edited diagram.
// The provider must echo the same node and edge sets; the caller's own
// nodes and edges are returned so layout and editor data survive.
func (a *Architect) SyncFromVisual(ctx context.Context, current architecture.State, nodes []architecture.Node, edges []architecture.Edge) (Result, error) {
	const op = "architect.sync_visual"
	if err := architecture.CheckDiagram(nodes, edges); err != nil {
		metrics.ObserveOperation(opSyncVisual, apperr.KindSchemaViolation.String())
		return Result{}, err
	}
	if len(nodes) == 0 {
		metrics.ObserveOperation(opSyncVisual, "cleared")
		return a.result(architecture.State{Summary: CanvasClearedSummary}), nil
	}
	ctx, cancel := a.withDeadline(ctx, opSyncVisual)
	defer cancel()

	in, err := llmtool.JSONSection("new diagram", map[string]any{"nodes": nodes, "edges": nonNilEdges(edges)})
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncVisual, apperr.Wrap(apperr.KindSyncFailed, op, err))
	}
	req, err := visualSyncSpec.Render(in, llmtool.Section{Title: "previous terraform code", Body: current.TerraformCode})
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncVisual, apperr.Wrap(apperr.KindSyncFailed, op, err))
	}

	raw, err := a.complete(ctx, req)
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncVisual, providerFailure(op, err))
	}
	st, err := architecture.ParseState(raw)
	if err != nil {
		return Result{}, a.syncFailed(ctx, opSyncVisual, &apperr.Error{Kind: apperr.KindSyncFailed, Op: op, Msg: "provider output rejected", Raw: raw, Err: err})
	}
	if ok, why := architecture.SameGraph(nodes, edges, st.Nodes, st.Edges); !ok {
		return Result{}, a.syncFailed(ctx, opSyncVisual, &apperr.Error{Kind: apperr.KindSyncFailed, Op: op, Msg: "provider changed the diagram: " + why, Raw: raw})
	}

	metrics.ObserveOperation(opSyncVisual, "ok")
	return a.result(architecture.State{
		Summary:       st.Summary,
		Nodes:         nodes,
		Edges:         edges,
		TerraformCode: st.TerraformCode,
	}), nil
}

// providerFailure keeps NoProviderAvailable intact and reports everything
// else as a failed sync.
func providerFailure(op string, err error) error {
	if apperr.Is(err, apperr.KindNoProviderAvailable) {
		return err
	}
	return &apperr.Error{Kind: apperr.KindSyncFailed, Op: op, Msg: "provider call failed", Err: err}
}

func (a *Architect) syncFailed(ctx context.Context, op string, err error) error {
	kind := apperr.KindOf(err)
	metrics.ObserveOperation(op, kind.String())
	a.log.WarnContext(ctx, "sync failed", "operation", op, "kind", kind.String(), "error", err)
	if raw := apperr.RawOutput(err); raw != "" {
		a.log.DebugContext(ctx, "rejected provider output", "operation", op, "raw", raw)
	}
	return err
}

func nonNilEdges(edges []architecture.Edge) []architecture.Edge {
	if edges == nil {
		return []architecture.Edge{}
	}
	return edges
}
