package rules

import (
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/extract"
	"github.com/repotriage/repotriage/internal/findings"
)

// Detector applies the rule sets to chunks. Detection is pure and
// deterministic: identical (chunk, language) input always yields the same
// candidate sequence. No I/O, no network.
type Detector struct {
	logger hclog.Logger
}

// NewDetector creates a pattern detector.
func NewDetector(logger hclog.Logger) *Detector {
	return &Detector{logger: logger}
}

// Detect runs every rule for the chunk's language against each line and
// returns one candidate per rule hit. Rules are independent: multiple rules
// may fire on the same line. A crashing rule is isolated and logged; the
// remaining rules still run.
func (d *Detector) Detect(chunk extract.Chunk) []findings.Candidate {
	var candidates []findings.Candidate

	lines := strings.Split(chunk.Content, "\n")
	for _, rule := range RulesFor(chunk.Language) {
		candidates = append(candidates, d.applyRule(rule, chunk, lines)...)
	}
	return candidates
}

// applyRule matches a single rule, recovering from a panicking pattern so one
// bad rule cannot take down the scan.
func (d *Detector) applyRule(rule Rule, chunk extract.Chunk, lines []string) (out []findings.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("rule crashed, skipping", "rule", rule.ID, "file", chunk.FilePath, "panic", r)
			out = nil
		}
	}()

	for i, line := range lines {
		if !rule.Pattern.MatchString(line) {
			continue
		}
		lineNo := chunk.Span.StartLine + i
		out = append(out, findings.Candidate{
			FilePath:   chunk.FilePath,
			Span:       findings.Span{StartLine: lineNo, EndLine: lineNo},
			Detector:   findings.DetectorPattern,
			Category:   rule.Category,
			Confidence: rule.Confidence,
			RuleID:     rule.ID,
			Rationale:  rule.Description,
			Excerpt:    strings.TrimSpace(line),
		})
	}
	return out
}
