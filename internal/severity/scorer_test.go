package severity

import (
	"testing"

	"github.com/repotriage/repotriage/internal/findings"
)

func TestScoreBands(t *testing.T) {
	tests := []struct {
		category   findings.Category
		confidence float64
		want       findings.Severity
	}{
		{findings.CategoryInjection, 0.9, findings.SeverityCritical},
		{findings.CategoryInjection, 0.85, findings.SeverityCritical},
		{findings.CategoryInjection, 0.54, findings.SeverityHigh},
		{findings.CategoryInjection, 0.5, findings.SeverityHigh},
		{findings.CategoryInjection, 0.49, findings.SeverityMedium},
		{findings.CategoryInjection, 0.3, findings.SeverityMedium},
		{findings.CategoryInjection, 0.29, findings.SeverityLow},
		{findings.CategoryExposedSecret, 0.95, findings.SeverityCritical},
		{findings.CategoryExposedSecret, 0.1, findings.SeverityMedium},
		{findings.CategoryXSS, 0.95, findings.SeverityHigh},
		{findings.CategoryInputValidation, 0.99, findings.SeverityMedium},
		{findings.CategoryInputValidation, 0.1, findings.SeverityInfo},
		{findings.CategoryVulnerableDependency, 0.6, findings.SeverityMedium},
	}
	for _, tt := range tests {
		if got := Score(tt.category, tt.confidence); got != tt.want {
			t.Errorf("Score(%s, %.2f) = %s, want %s", tt.category, tt.confidence, got, tt.want)
		}
	}
}

func TestScoreUnknownCategory(t *testing.T) {
	if got := Score(findings.Category("made-up"), 0.99); got != findings.SeverityLow {
		t.Errorf("unknown category scored %s, want low", got)
	}
}

func TestScoreIsMonotonicPerCategory(t *testing.T) {
	for _, category := range findings.Categories() {
		prev := Score(category, 0)
		for _, confidence := range []float64{0.3, 0.5, 0.85, 1.0} {
			cur := Score(category, confidence)
			if !cur.GTE(prev) {
				t.Errorf("%s: severity dropped from %s to %s as confidence rose to %.2f", category, prev, cur, confidence)
			}
			prev = cur
		}
	}
}

func TestApplyStampsSeverity(t *testing.T) {
	f := Apply(findings.Reconciled{Category: findings.CategoryInjection, Confidence: 0.9})
	if f.Severity != findings.SeverityCritical {
		t.Errorf("severity = %s, want critical", f.Severity)
	}
}
