// Package report renders a detection run as markdown and HTML for
// display to the user.
package report

import (
	"fmt"
	"sort"
	"strings"

	"cyclewise/domain/pattern"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Renderer formats detection reports.
type Renderer struct{}

// NewRenderer creates a report renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Markdown renders the report as a markdown document.
func (r *Renderer) Markdown(rep *pattern.DetectionReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Cycle Pattern Report\n\n")
	fmt.Fprintf(&b, "Run for user `%s` as of %s.\n\n", rep.Manifest.UserID, rep.Manifest.AsOf)
	if rep.Partial {
		fmt.Fprintf(&b, "**Partial run:** the time budget was exhausted; only analyses validated before the deadline are included.\n\n")
	}

	r.writePatterns(&b, rep.Patterns)
	r.writeInsufficientData(&b, rep.InsufficientData)
	r.writeSkipped(&b, rep.Skipped)
	r.writeManifest(&b, rep.Manifest)

	return b.String()
}

// HTML renders the report's markdown as an HTML fragment.
func (r *Renderer) HTML(rep *pattern.DetectionReport) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML([]byte(r.Markdown(rep)), p, renderer)
}

func (r *Renderer) writePatterns(b *strings.Builder, patterns []*pattern.CyclicalPattern) {
	fmt.Fprintf(b, "## Detected Patterns (%d)\n\n", len(patterns))
	if len(patterns) == 0 {
		fmt.Fprintf(b, "No statistically validated patterns this run.\n\n")
		return
	}

	fmt.Fprintf(b, "| Type | Category | Metric | Observed | Baseline | Confidence | Support |\n")
	fmt.Fprintf(b, "|---|---|---|---|---|---|---|\n")
	for _, p := range patterns {
		fmt.Fprintf(b, "| %s | %s | %s | %.2f | %.2f | %.2f | %d |\n",
			p.Type, p.CategoryKey, p.Metric, p.ObservedValue, p.BaselineValue,
			p.Confidence, p.SupportingCount)
	}
	fmt.Fprintf(b, "\n")

	for _, p := range patterns {
		if p.FindingText != "" {
			fmt.Fprintf(b, "- %s\n", p.FindingText)
		}
	}
	fmt.Fprintf(b, "\n")
}

func (r *Renderer) writeInsufficientData(b *strings.Builder, findings []pattern.InsufficientDataFinding) {
	if len(findings) == 0 {
		return
	}
	fmt.Fprintf(b, "## Insufficient Data\n\n")
	for _, f := range findings {
		fmt.Fprintf(b, "- `%s`: %s (%d of %d required occurrences, %d observations)\n",
			f.CategoryKey, f.Reason, f.Occurrences, f.RequiredOccur, f.ObservationCount)
	}
	fmt.Fprintf(b, "\n")
}

func (r *Renderer) writeSkipped(b *strings.Builder, skipped []pattern.SkippedAnalysis) {
	if len(skipped) == 0 {
		return
	}
	fmt.Fprintf(b, "## Skipped Analyses\n\n")
	for _, s := range skipped {
		target := s.CategoryKey
		if s.Metric != "" {
			if target != "" {
				target += "/"
			}
			target += s.Metric
		}
		fmt.Fprintf(b, "- %s %s: %s\n", s.AnalysisType, target, s.Reason)
	}
	fmt.Fprintf(b, "\n")
}

func (r *Renderer) writeManifest(b *strings.Builder, m pattern.Manifest) {
	fmt.Fprintf(b, "## Run Manifest\n\n")
	fmt.Fprintf(b, "- Observations analyzed: %d\n", m.ObservationCount)
	fmt.Fprintf(b, "- Candidates considered: %d\n", m.TotalCandidates)
	fmt.Fprintf(b, "- Patterns emitted: %d\n", m.PatternsEmitted)
	fmt.Fprintf(b, "- Tests executed: %s\n", strings.Join(m.TestsExecuted, ", "))
	fmt.Fprintf(b, "- Runtime: %dms\n", m.RuntimeMs)
	fmt.Fprintf(b, "- Input fingerprint: `%s`\n", m.Fingerprint)

	if len(m.Thresholds) > 0 {
		keys := make([]string, 0, len(m.Thresholds))
		for k := range m.Thresholds {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(b, "- Thresholds:")
		for _, k := range keys {
			fmt.Fprintf(b, " %s=%s", k, m.Thresholds[k])
		}
		fmt.Fprintf(b, "\n")
	}
}
