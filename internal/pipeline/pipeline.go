package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ppiankov/dyadt/internal/cache"
	"github.com/ppiankov/dyadt/internal/claimio"
	"github.com/ppiankov/dyadt/internal/model"
	"github.com/ppiankov/dyadt/internal/verify"
	"github.com/ppiankov/dyadt/internal/worker"
)

// Pipeline orchestrates load, verify and render for the CLI
type Pipeline struct {
	verifier *verify.Verifier
	renderer *Renderer
	config   *model.Config
	logger   *slog.Logger
}

// NewPipeline wires an evaluator from cfg around the caller's checker registry
func NewPipeline(cfg *model.Config, registry *verify.Registry, logger *slog.Logger) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := []verify.Option{
		verify.WithMaxReadBytes(cfg.Evaluation.MaxReadBytes),
		verify.WithLogger(logger),
	}
	if cfg.Evaluation.DigestCache {
		opts = append(opts, verify.WithDigestCache(cache.NewDigestCache(cfg.Evaluation.DigestCacheTTL)))
	}
	if cfg.Exec.SpawnRate > 0 || len(cfg.Exec.CommandRates) > 0 {
		limiter := worker.NewSpawnLimiter(cfg.Exec.SpawnRate, cfg.Exec.SpawnBurst)
		for command, r := range cfg.Exec.CommandRates {
			limiter.SetCommandRate(command, r.Rate, r.Burst)
		}
		opts = append(opts, verify.WithSpawnLimiter(limiter))
	}

	return &Pipeline{
		verifier: verify.NewVerifier(verify.NewEvaluator(registry, opts...)),
		renderer: NewRenderer(cfg.Output.Verbose),
		config:   cfg,
		logger:   logger,
	}
}

// CheckClaim verifies a single claim
func (p *Pipeline) CheckClaim(ctx context.Context, claim model.Claim) (model.Report, error) {
	report, err := p.verifier.Verify(ctx, claim)
	if err != nil {
		return model.Report{}, err
	}
	p.logger.Info("claim verified",
		"claim", report.Claim.ID,
		"verdict", report.Verdict.Outcome.String(),
		"items", len(report.Results),
	)
	return report, nil
}

// CheckFile loads and verifies the claim in path
func (p *Pipeline) CheckFile(ctx context.Context, path string) (model.Report, error) {
	claim, err := claimio.LoadFile(path)
	if err != nil {
		return model.Report{}, fmt.Errorf("load %s: %w", path, err)
	}
	return p.CheckClaim(ctx, claim)
}

// CheckClaims verifies claims in order and combines their verdicts
func (p *Pipeline) CheckClaims(ctx context.Context, claims []model.Claim) ([]model.Report, model.Verdict, error) {
	reports := make([]model.Report, 0, len(claims))
	verdicts := make([]model.Verdict, 0, len(claims))

	for _, claim := range claims {
		report, err := p.CheckClaim(ctx, claim)
		if err != nil {
			return nil, model.Verdict{}, err
		}
		reports = append(reports, report)
		verdicts = append(verdicts, report.Verdict)
	}

	return reports, verify.Worst(verdicts), nil
}

// CheckManyFile loads and verifies every claim in path
func (p *Pipeline) CheckManyFile(ctx context.Context, path string) ([]model.Report, model.Verdict, error) {
	claims, err := claimio.LoadManyFile(path)
	if err != nil {
		return nil, model.Verdict{}, fmt.Errorf("load %s: %w", path, err)
	}
	return p.CheckClaims(ctx, claims)
}

// RenderReports writes reports in the configured format to outPath, or to w when outPath is empty.
// overall is only rendered when non-nil.
func (p *Pipeline) RenderReports(w io.Writer, outPath string, reports []model.Report, overall *model.Verdict) (err error) {
	render, err := p.formatRenderer()
	if err != nil {
		return err
	}

	if outPath != "" {
		f, createErr := os.Create(outPath)
		if createErr != nil {
			return fmt.Errorf("create output file: %w", createErr)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("close output file: %w", closeErr)
			}
		}()
		w = f
	}

	return render(w, reports, overall)
}

type renderFunc func(w io.Writer, reports []model.Report, overall *model.Verdict) error

// formatRenderer picks the renderer for the configured output format
func (p *Pipeline) formatRenderer() (renderFunc, error) {
	switch p.config.Output.Format {
	case "", FormatText:
		return p.renderer.RenderText, nil
	case FormatJSON:
		return p.renderer.RenderJSON, nil
	case FormatMarkdown:
		return p.renderer.RenderMarkdown, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q (want text, json or markdown)", p.config.Output.Format)
	}
}
