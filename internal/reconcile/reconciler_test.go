package reconcile

import (
	"math"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/review"
	"github.com/repotriage/repotriage/pkg/shared/config"
)

func newTestReconciler() *Reconciler {
	return NewReconciler(config.DefaultReconcileConfig(), hclog.NewNullLogger())
}

func candidate(detector findings.Detector, category findings.Category, start, end int, confidence float64) findings.Candidate {
	return findings.Candidate{
		FilePath:   "app.py",
		Span:       findings.Span{StartLine: start, EndLine: end},
		Detector:   detector,
		Category:   category,
		Confidence: confidence,
	}
}

func TestReconcileMergesOverlappingSameCategory(t *testing.T) {
	r := newTestReconciler()

	result := r.ReconcileFile("app.py", []findings.Candidate{
		candidate(findings.DetectorPattern, findings.CategoryInjection, 42, 42, 0.6),
		candidate(findings.DetectorReviewer, findings.CategoryInjection, 42, 42, 0.9),
	}, nil)

	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 merged finding, got %d", len(result.Findings))
	}
	f := result.Findings[0]
	// max of pattern 0.6*0.4=0.24 and reviewer 0.9*0.6=0.54
	if math.Abs(f.Confidence-0.54) > 1e-9 {
		t.Errorf("confidence = %f, want 0.54", f.Confidence)
	}
	if !f.HasDetector(findings.DetectorPattern) || !f.HasDetector(findings.DetectorReviewer) {
		t.Errorf("detectors = %v, want both pattern and reviewer", f.Detectors)
	}
}

func TestReconcileKeepsCategoriesSeparate(t *testing.T) {
	r := newTestReconciler()

	// same span, different vulnerability classes
	result := r.ReconcileFile("app.py", []findings.Candidate{
		candidate(findings.DetectorReviewer, findings.CategoryInjection, 10, 10, 0.9),
		candidate(findings.DetectorReviewer, findings.CategoryExposedSecret, 10, 10, 0.9),
	}, nil)

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings (one per category), got %d", len(result.Findings))
	}
}

func TestReconcileDisjointSpansStaySeparate(t *testing.T) {
	r := newTestReconciler()

	result := r.ReconcileFile("app.py", []findings.Candidate{
		candidate(findings.DetectorReviewer, findings.CategoryInjection, 10, 10, 0.9),
		candidate(findings.DetectorReviewer, findings.CategoryInjection, 200, 200, 0.9),
	}, nil)

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(result.Findings))
	}
}

func TestReconcileVerifierRejectionSuppresses(t *testing.T) {
	r := newTestReconciler()

	result := r.ReconcileFile("app.py",
		[]findings.Candidate{
			candidate(findings.DetectorPattern, findings.CategoryInjection, 42, 42, 0.9),
			candidate(findings.DetectorReviewer, findings.CategoryInjection, 42, 42, 0.9),
		},
		[]review.Verdict{{
			Span:       findings.Span{StartLine: 42, EndLine: 42},
			Category:   findings.CategoryInjection,
			Confirmed:  false,
			Confidence: 0.9,
		}})

	if len(result.Findings) != 0 {
		t.Fatalf("rejected group must be suppressed, got %+v", result.Findings)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "suppressed") {
		t.Errorf("expected a suppression warning, got %v", result.Warnings)
	}
}

func TestReconcileVerifierConfirmationDominates(t *testing.T) {
	r := newTestReconciler()

	result := r.ReconcileFile("app.py",
		[]findings.Candidate{
			candidate(findings.DetectorReviewer, findings.CategoryInjection, 42, 42, 0.4),
		},
		[]review.Verdict{{
			Span:       findings.Span{StartLine: 42, EndLine: 42},
			Category:   findings.CategoryInjection,
			Confirmed:  true,
			Confidence: 0.8,
		}})

	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
	f := result.Findings[0]
	// verifier 0.8*1.0 beats reviewer 0.4*0.6
	if math.Abs(f.Confidence-0.8) > 1e-9 {
		t.Errorf("confidence = %f, want 0.8", f.Confidence)
	}
	if !f.HasDetector(findings.DetectorVerifier) {
		t.Errorf("detectors = %v, want verifier included", f.Detectors)
	}
}

func TestReconcileConfidenceFloor(t *testing.T) {
	r := newTestReconciler()

	// pattern 0.5 * 0.4 = 0.2, below the 0.25 floor
	result := r.ReconcileFile("app.py", []findings.Candidate{
		candidate(findings.DetectorPattern, findings.CategoryWeakCrypto, 3, 3, 0.5),
	}, nil)

	if len(result.Findings) != 0 {
		t.Errorf("expected floor drop, got %+v", result.Findings)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("floor drops are silent, got warnings %v", result.Warnings)
	}
}

func TestReconcileCrossFileCandidateDropped(t *testing.T) {
	r := newTestReconciler()

	result := r.ReconcileFile("app.py", []findings.Candidate{
		{
			FilePath:   "other.py",
			Span:       findings.Span{StartLine: 1, EndLine: 1},
			Detector:   findings.DetectorReviewer,
			Category:   findings.CategoryInjection,
			Confidence: 0.9,
		},
	}, nil)

	if len(result.Findings) != 0 {
		t.Errorf("cross-file candidate must not produce a finding, got %+v", result.Findings)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "inconsistency") {
		t.Errorf("expected an inconsistency warning, got %v", result.Warnings)
	}
}

func TestReconcileDeterministicOrder(t *testing.T) {
	r := newTestReconciler()

	candidates := []findings.Candidate{
		candidate(findings.DetectorReviewer, findings.CategoryXSS, 50, 50, 0.9),
		candidate(findings.DetectorReviewer, findings.CategoryInjection, 50, 50, 0.9),
		candidate(findings.DetectorReviewer, findings.CategoryInjection, 10, 10, 0.9),
	}

	result := r.ReconcileFile("app.py", candidates, nil)
	if len(result.Findings) != 3 {
		t.Fatalf("expected 3 findings, got %d", len(result.Findings))
	}
	if result.Findings[0].Span.StartLine != 10 {
		t.Errorf("findings not ordered by start line: %+v", result.Findings)
	}
	if result.Findings[1].Category != findings.CategoryInjection || result.Findings[2].Category != findings.CategoryXSS {
		t.Errorf("tie on start line must break by category: %+v", result.Findings)
	}
}

func TestReconcilePrefersReviewerRationale(t *testing.T) {
	r := newTestReconciler()

	pattern := candidate(findings.DetectorPattern, findings.CategoryInjection, 5, 5, 0.9)
	pattern.Rationale = "rule description"
	reviewer := candidate(findings.DetectorReviewer, findings.CategoryInjection, 5, 5, 0.9)
	reviewer.Rationale = "model explanation"

	result := r.ReconcileFile("app.py", []findings.Candidate{pattern, reviewer}, nil)
	if len(result.Findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(result.Findings))
	}
	if result.Findings[0].Rationale != "model explanation" {
		t.Errorf("rationale = %q, want the reviewer's", result.Findings[0].Rationale)
	}
}
