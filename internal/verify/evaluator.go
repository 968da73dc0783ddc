package verify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ppiankov/dyadt/internal/cache"
	"github.com/ppiankov/dyadt/internal/model"
	"github.com/ppiankov/dyadt/internal/worker"
)

// DefaultMaxReadBytes bounds how much of a file FileContains reads
const DefaultMaxReadBytes int64 = 10 << 20

// Evaluator checks evidence against the filesystem and process environment.
// It never writes. Each item is evaluated independently of the others.
type Evaluator struct {
	registry     *Registry
	runner       CommandRunner
	digests      *cache.DigestCache
	limiter      *worker.SpawnLimiter
	maxReadBytes int64
	logger       *slog.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithRunner sets the command runner used for CommandSucceeds evidence.
// This is useful for injecting fakes during testing.
func WithRunner(r CommandRunner) Option {
	return func(e *Evaluator) {
		if r != nil {
			e.runner = r
		}
	}
}

// WithDigestCache memoizes FileHash digests of unchanged files
func WithDigestCache(c *cache.DigestCache) Option {
	return func(e *Evaluator) {
		e.digests = c
	}
}

// WithSpawnLimiter throttles CommandSucceeds spawns
func WithSpawnLimiter(l *worker.SpawnLimiter) Option {
	return func(e *Evaluator) {
		e.limiter = l
	}
}

// WithMaxReadBytes sets the FileContains read limit. Non-positive values are ignored.
func WithMaxReadBytes(n int64) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxReadBytes = n
		}
	}
}

// WithLogger sets the logger used for per-item debug records
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEvaluator creates an evaluator resolving Custom evidence through registry.
// A nil registry behaves like an empty one.
func NewEvaluator(registry *Registry, opts ...Option) *Evaluator {
	if registry == nil {
		registry = NewRegistry()
	}

	e := &Evaluator{
		registry:     registry,
		runner:       ExecRunner{},
		maxReadBytes: DefaultMaxReadBytes,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate checks a single piece of evidence
func (e *Evaluator) Evaluate(ctx context.Context, ev model.Evidence) model.ItemResult {
	var f model.Finding

	// Keep this switch exhaustive over the evidence variants
	switch ev := ev.(type) {
	case model.FileExists:
		f = e.checkFileExists(ev)
	case model.FileHash:
		f = e.checkFileHash(ev)
	case model.FileContains:
		f = e.checkFileContains(ev)
	case model.DirExists:
		f = e.checkDirExists(ev)
	case model.CommandSucceeds:
		f = e.checkCommand(ctx, ev)
	case model.Custom:
		f = e.checkCustom(ev)
	case nil:
		f = model.Errored("evidence is nil")
	default:
		f = model.Errored("unsupported evidence type %T", ev)
	}

	e.logger.Debug("evidence evaluated",
		"kind", kindName(ev),
		"description", model.Describe(ev),
		"outcome", f.Outcome.String(),
		"detail", f.Detail,
	)

	return model.ItemResult{Evidence: ev, Finding: f}
}

// kindName names the evidence kind without calling methods on types outside the variant set
func kindName(ev model.Evidence) string {
	switch ev.(type) {
	case model.FileExists, model.FileHash, model.FileContains, model.DirExists, model.CommandSucceeds, model.Custom:
		return string(ev.Kind())
	default:
		return fmt.Sprintf("%T", ev)
	}
}

// EvaluateAll checks every item in order, each to completion before the next.
// A failing item never stops the sequence.
func (e *Evaluator) EvaluateAll(ctx context.Context, evidence []model.Evidence) []model.ItemResult {
	results := make([]model.ItemResult, 0, len(evidence))
	for _, ev := range evidence {
		results = append(results, e.Evaluate(ctx, ev))
	}
	return results
}

// checkCustom resolves and runs a registered checker
func (e *Evaluator) checkCustom(ev model.Custom) (f model.Finding) {
	checker, err := e.registry.Resolve(ev.Name)
	if err != nil {
		return model.Unverifiable("no checker registered for %q", ev.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			f = model.Errored("checker %q panicked: %v", ev.Name, r)
		}
	}()

	params := model.CopyParams(ev.Params)
	if params == nil {
		params = map[string]string{}
	}

	found, err := checker.Check(params)
	if err != nil {
		return model.Errored("checker %q failed: %v", ev.Name, err)
	}
	if !found.Outcome.Valid() {
		return model.Errored("checker %q returned no outcome", ev.Name)
	}
	return found
}
