package report

import (
	"fmt"
	"os"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/repotriage/repotriage/internal/findings"
)

const toolURI = "https://github.com/repotriage/repotriage"

// WriteSarif exports the report as SARIF 2.1.0 so the findings plug into any
// tooling that already speaks the format.
func (r *Report) WriteSarif(path string) error {
	sarifReport, err := sarif.New(sarif.Version210)
	if err != nil {
		return fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI("repotriage", toolURI)
	for _, finding := range r.Findings {
		ruleID := string(finding.Category)
		rule := run.AddRule(ruleID).
			WithDescription(recommendationTexts[finding.Category]).
			WithDefaultConfiguration(&sarif.ReportingConfiguration{
				Level: toSarifLevel(finding.Severity),
			})

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(finding.FilePath)).
				WithRegion(sarif.NewRegion().
					WithStartLine(finding.Span.StartLine).
					WithEndLine(finding.Span.EndLine)),
		)

		message := finding.Rationale
		if message == "" {
			message = fmt.Sprintf("%s finding (confidence %.2f)", finding.Category, finding.Confidence)
		}

		result := sarif.NewRuleResult(rule.ID).
			WithMessage(sarif.NewTextMessage(message)).
			WithLevel(toSarifLevel(finding.Severity)).
			WithLocations([]*sarif.Location{location})
		run.AddResult(result)
	}
	sarifReport.AddRun(run)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open SARIF output %q: %w", path, err)
	}
	defer func() { _ = file.Close() }()

	return sarifReport.PrettyWrite(file)
}

func toSarifLevel(severity findings.Severity) string {
	switch severity {
	case findings.SeverityCritical, findings.SeverityHigh:
		return "error"
	case findings.SeverityMedium:
		return "warning"
	case findings.SeverityLow:
		return "note"
	default:
		return "none"
	}
}
