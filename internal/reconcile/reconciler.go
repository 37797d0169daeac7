// Package reconcile merges candidate findings from all detectors into the
// deduplicated, trust-adjusted findings that reach the report. All merging is
// per file: an evidence span never crosses a file boundary.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/review"
	"github.com/repotriage/repotriage/pkg/shared/config"
)

// Reconciler groups overlapping same-category candidates and resolves
// detector disagreement using the configured weighting table.
type Reconciler struct {
	cfg    config.Reconcile
	logger hclog.Logger
}

// Result carries the reconciled findings for one file plus any warnings
// raised while merging (suppressions, inconsistencies).
type Result struct {
	Findings []findings.Reconciled
	Warnings []string
}

// NewReconciler creates a reconciler with the given weighting table.
func NewReconciler(cfg config.Reconcile, logger hclog.Logger) *Reconciler {
	return &Reconciler{cfg: cfg, logger: logger}
}

type group struct {
	category findings.Category
	span     findings.Span
	members  []findings.Candidate
}

// ReconcileFile merges all candidates for one file. Candidates belonging to a
// different file are a defensive inconsistency: they are dropped with a warning
// instead of corrupting the per-file aggregation.
func (r *Reconciler) ReconcileFile(filePath string, candidates []findings.Candidate, verdicts []review.Verdict) Result {
	var result Result

	var groups []*group
	for _, c := range candidates {
		if c.FilePath != filePath {
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"reconciliation inconsistency: candidate for %q reached reconciliation of %q, dropped", c.FilePath, filePath))
			continue
		}
		r.place(&groups, c)
	}

	for _, g := range groups {
		verdict := matchVerdict(g, verdicts)
		if verdict != nil && !verdict.Confirmed {
			// A rejection from the specialized confirmation pass suppresses
			// the whole group, it is not merely down-weighted.
			result.Warnings = append(result.Warnings, fmt.Sprintf(
				"%s:%d-%d: %s finding suppressed by verifier (confidence %.2f)",
				filePath, g.span.StartLine, g.span.EndLine, g.category, verdict.Confidence))
			continue
		}

		confidence, detectors := r.combine(g, verdict)
		if confidence < r.cfg.ConfidenceFloor {
			r.logger.Debug("group below confidence floor, dropped",
				"file", filePath, "category", g.category, "confidence", confidence)
			continue
		}

		result.Findings = append(result.Findings, findings.Reconciled{
			FilePath:   filePath,
			Span:       g.span,
			Category:   g.category,
			Confidence: confidence,
			Detectors:  detectors,
			Rationale:  pickRationale(g.members),
			Excerpt:    pickExcerpt(g.members),
		})
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.Span.StartLine != b.Span.StartLine {
			return a.Span.StartLine < b.Span.StartLine
		}
		return a.Category < b.Category
	})
	return result
}

// place adds a candidate to the first group whose category matches and whose
// span overlaps by more than the configured fraction, creating a new group
// otherwise. Overlapping spans of different categories deliberately stay in
// separate groups: vulnerability classes are never merged on shared code.
func (r *Reconciler) place(groups *[]*group, c findings.Candidate) {
	for _, g := range *groups {
		if g.category != c.Category {
			continue
		}
		if g.span.OverlapFraction(c.Span) > r.cfg.OverlapFraction {
			g.members = append(g.members, c)
			g.span = g.span.Union(c.Span)
			return
		}
	}
	*groups = append(*groups, &group{category: c.Category, span: c.Span, members: []findings.Candidate{c}})
}

// combine computes the final confidence as a weighted combination: the
// pattern detector contributes its fixed baseline weight, the reviewer its
// own, and a confirmed verifier opinion dominates both.
func (r *Reconciler) combine(g *group, verdict *review.Verdict) (float64, []findings.Detector) {
	confidence := 0.0
	detectorSet := map[findings.Detector]bool{}

	for _, m := range g.members {
		weighted := r.detectorWeight(m.Detector) * m.Confidence
		if weighted > confidence {
			confidence = weighted
		}
		detectorSet[m.Detector] = true
	}

	if verdict != nil && verdict.Confirmed {
		if v := r.cfg.VerifierWeight * verdict.Confidence; v > confidence {
			confidence = v
		}
		detectorSet[findings.DetectorVerifier] = true
	}

	if confidence > 1 {
		confidence = 1
	}

	detectors := make([]findings.Detector, 0, len(detectorSet))
	for d := range detectorSet {
		detectors = append(detectors, d)
	}
	sort.Slice(detectors, func(i, j int) bool { return detectors[i] < detectors[j] })
	return confidence, detectors
}

func (r *Reconciler) detectorWeight(d findings.Detector) float64 {
	switch d {
	case findings.DetectorPattern, findings.DetectorDeps:
		return r.cfg.PatternWeight
	case findings.DetectorReviewer:
		return r.cfg.ReviewerWeight
	case findings.DetectorVerifier:
		return r.cfg.VerifierWeight
	}
	return 0
}

// matchVerdict finds the verifier opinion covering a group, if any.
func matchVerdict(g *group, verdicts []review.Verdict) *review.Verdict {
	for i := range verdicts {
		v := &verdicts[i]
		if v.Category == g.category && v.Span.OverlapFraction(g.span) > 0 {
			return v
		}
	}
	return nil
}

// pickRationale prefers the reviewer's explanation over a rule description.
func pickRationale(members []findings.Candidate) string {
	for _, m := range members {
		if m.Detector == findings.DetectorReviewer && m.Rationale != "" {
			return m.Rationale
		}
	}
	for _, m := range members {
		if m.Rationale != "" {
			return m.Rationale
		}
	}
	return ""
}

func pickExcerpt(members []findings.Candidate) string {
	for _, m := range members {
		if m.Excerpt != "" {
			return m.Excerpt
		}
	}
	return ""
}
