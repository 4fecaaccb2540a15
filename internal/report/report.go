// Package report renders a human-readable analysis summary: the dataset's
// headline numbers, the ranked factors, and one risk estimate. The markdown
// form feeds the CLI; the HTML form is served as the dashboard index.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

// BuildMarkdown assembles the analysis summary. estimate may be nil when no
// selection has been made yet.
func BuildMarkdown(stats collision.DatasetStats, factors []risk.FactorResult, estimate *risk.Estimate) string {
	var b strings.Builder

	b.WriteString("# Collision Risk Analysis\n\n")
	fmt.Fprintf(&b, "**Records:** %d  \n**Injury crashes:** %d  \n**Base injury rate:** %.1f%%\n\n",
		stats.Total, stats.Injured, stats.BaseRate*100)

	b.WriteString("## Top Risk Factors\n\n")
	if len(factors) == 0 {
		b.WriteString("_No factors met the minimum group size._\n\n")
	} else {
		b.WriteString("| Factor | Value | n | Injury rate | Others | Risk ratio | Chi-square |\n")
		b.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
		for _, f := range factors {
			fmt.Fprintf(&b, "| %s | %s | %d | %.1f%% | %.1f%% | %s | %.1f |\n",
				f.Dimension.Label(), f.Value, f.GroupSize,
				f.GroupRate*100, f.OtherRate*100, formatRatio(f.RiskRatio), f.ChiSquare)
		}
		b.WriteString("\n")
	}

	if estimate != nil {
		b.WriteString("## Risk Estimate\n\n")
		fmt.Fprintf(&b, "**Estimated injury rate:** %.1f%% (%.2fx baseline)  \n", estimate.EstimatedRate*100, estimate.RelativeRisk)
		fmt.Fprintf(&b, "**Method:** %s  \n**Matched records:** %d  \n**Effective sample size:** %d\n\n",
			estimate.Method, estimate.ExactMatchCount, estimate.EffectiveSampleSize)
		if len(estimate.Components) > 0 {
			b.WriteString("Contributing factors:\n\n")
			for _, c := range estimate.Components {
				fmt.Fprintf(&b, "- %s = %s (odds ratio %.2f, n=%d)\n",
					c.Dimension.Label(), c.Value, c.OddsRatio, c.SampleSize)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

// RenderHTML converts the markdown report to a standalone HTML fragment.
func RenderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.Render(doc, renderer)
}

func formatRatio(rr float64) string {
	if math.IsInf(rr, 1) {
		return "∞"
	}
	return fmt.Sprintf("%.2f", rr)
}
