package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ppiankov/dyadt/internal/claimio"
	"github.com/ppiankov/dyadt/internal/model"
)

// Output formats
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// detailWidth wraps long details in text tables
const detailWidth = 72

// Renderer writes verification reports
type Renderer struct {
	verbose bool
}

// NewRenderer creates a new renderer
func NewRenderer(verbose bool) *Renderer {
	return &Renderer{verbose: verbose}
}

// RenderText writes reports as terminal tables
func (r *Renderer) RenderText(w io.Writer, reports []model.Report, overall *model.Verdict) error {
	var b strings.Builder

	if overall != nil {
		b.WriteString("Verification Report\n")
		b.WriteString("===================\n\n")
	}

	for i, report := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(report.Summary())
		b.WriteString("\n")
		if report.Claim.Source != "" {
			fmt.Fprintf(&b, "  Source: %s\n", report.Claim.Source)
		}
		if r.verbose {
			fmt.Fprintf(&b, "  Claim:   %s\n", report.Claim.ID)
			fmt.Fprintf(&b, "  Made:    %s\n", report.Claim.Timestamp.Format(time.RFC3339))
			fmt.Fprintf(&b, "  Checked: %s\n", report.VerifiedAt.Format(time.RFC3339))
		}

		if len(report.Results) > 0 {
			fmt.Fprintf(&b, "  Evidence: %s\n", formatCounts(report.Counts()))
			t := resultsTable(report)
			t.SetStyle(table.StyleLight)
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 4, WidthMax: detailWidth}})
			b.WriteString(t.Render())
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  Verdict: %s\n", report.Verdict)
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if overall != nil {
		return r.RenderSummary(w, reports, *overall)
	}
	return nil
}

// RenderSummary writes per-outcome claim counts and the overall verdict
func (r *Renderer) RenderSummary(w io.Writer, reports []model.Report, overall model.Verdict) error {
	counts := make(map[model.Outcome]int, 5)
	for _, report := range reports {
		counts[report.Verdict.Outcome]++
	}

	noun := "claims"
	if len(reports) == 1 {
		noun = "claim"
	}

	var b strings.Builder
	b.WriteString("\n-------------------\n")
	fmt.Fprintf(&b, "%d %s", len(reports), noun)
	if len(reports) > 0 {
		fmt.Fprintf(&b, ": %s", formatCounts(counts))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Overall: %s %s\n", overall.Outcome.Glyph(), overall)

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderMarkdown writes reports as a Markdown document
func (r *Renderer) RenderMarkdown(w io.Writer, reports []model.Report, overall *model.Verdict) error {
	var b strings.Builder

	b.WriteString("# Verification Report\n\n")
	if overall != nil {
		fmt.Fprintf(&b, "**Overall:** %s %s\n\n", overall.Outcome.Glyph(), *overall)
	}

	for _, report := range reports {
		fmt.Fprintf(&b, "## %s\n\n", markdownEscape(report.Claim.Description))
		fmt.Fprintf(&b, "- **Verdict:** %s %s\n", report.Verdict.Outcome.Glyph(), report.Verdict)
		if len(report.Results) > 0 {
			fmt.Fprintf(&b, "- **Evidence:** %s\n", formatCounts(report.Counts()))
		}
		fmt.Fprintf(&b, "- **Claim ID:** `%s`\n", report.Claim.ID)
		if report.Claim.Source != "" {
			fmt.Fprintf(&b, "- **Source:** %s\n", markdownEscape(report.Claim.Source))
		}
		fmt.Fprintf(&b, "- **Verified at:** %s\n\n", report.VerifiedAt.Format(time.RFC3339))

		if len(report.Results) > 0 {
			b.WriteString(resultsTable(report).RenderMarkdown())
			b.WriteString("\n\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes reports as JSON. A single report without an overall
// verdict is written as one object; anything else as {"reports": [...]}.
func (r *Renderer) RenderJSON(w io.Writer, reports []model.Report, overall *model.Verdict) error {
	docs := make([]reportDoc, 0, len(reports))
	for _, report := range reports {
		doc, err := newReportDoc(report)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}

	var v any = batchDoc{Reports: docs, Overall: overall}
	if overall == nil && len(docs) == 1 {
		v = docs[0]
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode report JSON: %w", err)
	}
	return nil
}

// formatCounts renders non-zero tallies in outcome order, e.g. "2 confirmed, 1 refuted"
func formatCounts(counts map[model.Outcome]int) string {
	var parts []string
	for _, o := range []model.Outcome{
		model.OutcomeConfirmed,
		model.OutcomeRefuted,
		model.OutcomeInconclusive,
		model.OutcomeUnverifiable,
		model.OutcomeError,
	} {
		if counts[o] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[o], o))
		}
	}
	return strings.Join(parts, ", ")
}

func resultsTable(report model.Report) table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"", "Evidence", "Outcome", "Detail"})
	for _, res := range report.Results {
		t.AppendRow(table.Row{
			res.Outcome.Glyph(),
			model.Describe(res.Evidence),
			res.Outcome.String(),
			res.Detail,
		})
	}
	return t
}

func markdownEscape(s string) string {
	return strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`).Replace(s)
}

type reportDoc struct {
	Claim       claimio.Document `json:"claim"`
	Results     []resultDoc      `json:"results"`
	Verdict     model.Verdict    `json:"verdict"`
	Trustworthy bool             `json:"trustworthy"`
	VerifiedAt  time.Time        `json:"verified_at"`
}

type resultDoc struct {
	Evidence claimio.EvidenceDoc `json:"evidence"`
	Outcome  model.Outcome       `json:"outcome"`
	Detail   string              `json:"detail,omitempty"`
}

type batchDoc struct {
	Reports []reportDoc    `json:"reports"`
	Overall *model.Verdict `json:"overall,omitempty"`
}

func newReportDoc(report model.Report) (reportDoc, error) {
	claim, err := claimio.FromClaim(report.Claim)
	if err != nil {
		return reportDoc{}, fmt.Errorf("report for claim %s: %w", report.Claim.ID, err)
	}

	results := make([]resultDoc, 0, len(report.Results))
	for i, res := range report.Results {
		ev := claim.Evidence[i]
		results = append(results, resultDoc{Evidence: ev, Outcome: res.Outcome, Detail: res.Detail})
	}

	return reportDoc{
		Claim:       claim,
		Results:     results,
		Verdict:     report.Verdict,
		Trustworthy: report.Verdict.Trustworthy(),
		VerifiedAt:  report.VerifiedAt,
	}, nil
}
