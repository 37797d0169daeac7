// Package report assembles the final scan report: the ordered reconciled
// findings plus summary counts, the skip/warning lists, and the overall
// security score. Building is reproducible: the same finding sequence always
// yields the same report apart from the timestamp.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/repo"
)

// Summary holds the aggregate metrics of one scan.
type Summary struct {
	ScanID         string         `json:"scan_id"`
	Target         string         `json:"target"`
	ScanDate       time.Time      `json:"scan_date"`
	TotalFindings  int            `json:"total_findings"`
	SecurityScore  int            `json:"security_score"`
	SeverityCounts map[string]int `json:"severity_breakdown"`
	CategoryCounts map[string]int `json:"category_breakdown"`
	FilesAnalyzed  int            `json:"files_analyzed"`
	FilesSkipped   int            `json:"files_skipped"`
}

// Report is the single structured document exported for external renderers.
// Immutable once built; a re-scan produces a new Report.
type Report struct {
	Summary         Summary              `json:"summary"`
	Findings        []findings.Reconciled `json:"findings"`
	Skipped         []repo.SkippedFile   `json:"skipped,omitempty"`
	Warnings        []string             `json:"warnings,omitempty"`
	Recommendations []string             `json:"recommendations,omitempty"`
}

// severityWeights feed the overall score: 100 minus the weighted sum of
// findings, saturating at 0. Info findings do not weigh.
var severityWeights = map[findings.Severity]int{
	findings.SeverityCritical: 10,
	findings.SeverityHigh:     5,
	findings.SeverityMedium:   2,
	findings.SeverityLow:      1,
}

// Build assembles a report from the scan outputs. The finding slice is
// re-sorted into the canonical order (file, start line, category) so the
// output does not depend on worker completion order.
func Build(scanID, target string, reconciled []findings.Reconciled, skipped []repo.SkippedFile, warnings []string, filesAnalyzed int) *Report {
	sorted := make([]findings.Reconciled, len(reconciled))
	copy(sorted, reconciled)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		if a.Span.StartLine != b.Span.StartLine {
			return a.Span.StartLine < b.Span.StartLine
		}
		return a.Category < b.Category
	})

	severityCounts := make(map[string]int, len(findings.Severities()))
	for _, s := range findings.Severities() {
		severityCounts[string(s)] = 0
	}
	categoryCounts := make(map[string]int)
	weight := 0
	for _, f := range sorted {
		severityCounts[string(f.Severity)]++
		categoryCounts[string(f.Category)]++
		weight += severityWeights[f.Severity]
	}

	score := 100 - weight
	if score < 0 {
		score = 0
	}

	return &Report{
		Summary: Summary{
			ScanID:         scanID,
			Target:         target,
			ScanDate:       time.Now().UTC(),
			TotalFindings:  len(sorted),
			SecurityScore:  score,
			SeverityCounts: severityCounts,
			CategoryCounts: categoryCounts,
			FilesAnalyzed:  filesAnalyzed,
			FilesSkipped:   len(skipped),
		},
		Findings:        sorted,
		Skipped:         skipped,
		Warnings:        warnings,
		Recommendations: recommendations(sorted),
	}
}

// recommendationTexts maps categories to remediation advice, emitted in the
// fixed category order for reproducibility.
var recommendationTexts = map[findings.Category]string{
	findings.CategoryInjection:            "Use parameterized queries and avoid building commands from user input",
	findings.CategoryXSS:                  "Escape all user-controlled output and prefer safe templating APIs",
	findings.CategoryCSRF:                 "Enable CSRF protection on every state-changing endpoint",
	findings.CategoryWeakAuth:             "Enforce TLS verification and strong authentication flows",
	findings.CategoryErrorDisclosure:      "Disable debug output and strip stack traces from user-facing errors",
	findings.CategoryInputValidation:      "Validate and bound all external input before use",
	findings.CategoryVulnerableDependency: "Upgrade the flagged dependencies to their fixed versions",
	findings.CategoryExposedSecret:        "Move secrets to environment variables or a secret store and rotate them",
	findings.CategoryAccessControl:        "Check authorization on every privileged operation",
	findings.CategoryWeakCrypto:           "Replace weak hash and cipher primitives with modern algorithms (SHA-256, AES-GCM)",
}

func recommendations(reconciled []findings.Reconciled) []string {
	present := make(map[findings.Category]bool)
	for _, f := range reconciled {
		present[f.Category] = true
	}

	var out []string
	for _, c := range findings.Categories() {
		if present[c] {
			out = append(out, recommendationTexts[c])
		}
	}
	return out
}

// WriteJSON writes the report as indented JSON to the given path.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write report to %q: %w", path, err)
	}
	return nil
}
