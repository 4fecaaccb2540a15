package report

import (
	"math"
	"strings"
	"testing"

	"crashlens/domain/collision"
	"crashlens/domain/risk"
)

func TestBuildMarkdown(t *testing.T) {
	stats := collision.DatasetStats{Total: 1000, Injured: 100, BaseRate: 0.1}
	factors := []risk.FactorResult{
		{
			Dimension: collision.DimVehicleType,
			Value:     "Motorcycle",
			GroupSize: 120, GroupInjured: 60,
			GroupRate: 0.5, OtherRate: 0.08,
			RiskRatio: 6.25, ChiSquare: 180.4,
		},
		{
			Dimension: collision.DimBorough,
			Value:     "Deadly",
			RiskRatio: math.Inf(1), GroupSize: 40,
		},
	}
	est := &risk.Estimate{
		EstimatedRate: 0.31, RelativeRisk: 3.1,
		Method: risk.MethodBlend, ExactMatchCount: 12, EffectiveSampleSize: 52,
		Components: []risk.Component{
			{Dimension: collision.DimVehicleType, Value: "Motorcycle", OddsRatio: 6.1, SampleSize: 120},
		},
	}

	md := BuildMarkdown(stats, factors, est)

	for _, want := range []string{
		"Collision Risk Analysis",
		"Motorcycle",
		"Vehicle Type",
		"blend",
		"∞", // infinite risk ratio renders as a symbol, not Inf
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestBuildMarkdown_NoFactors(t *testing.T) {
	md := BuildMarkdown(collision.DatasetStats{}, nil, nil)
	if !strings.Contains(md, "No factors met the minimum group size") {
		t.Errorf("empty factor list should be called out:\n%s", md)
	}
}

func TestRenderHTML(t *testing.T) {
	html := string(RenderHTML("# Title\n\nbody text\n"))
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "body text") {
		t.Errorf("unexpected HTML output: %s", html)
	}
}
