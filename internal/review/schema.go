package review

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/repotriage/repotriage/internal/extract"
	"github.com/repotriage/repotriage/internal/findings"
)

// noFindingsSentinel is the exact token the reviewer must emit for a clean chunk.
const noFindingsSentinel = "NO_VULNERABILITIES_FOUND"

const reviewerSystemPrompt = `You are a security code reviewer. Analyse the given source code for vulnerabilities.
Report each finding as a block of exactly these fields:
CATEGORY: <injection|xss|csrf|weak-auth|error-disclosure|input-validation|vulnerable-dependency|exposed-secret|access-control|weak-crypto>
SEVERITY: <info|low|medium|high|critical>
CONFIDENCE: <0.0-1.0>
LINE: <line number within the shown code, first line is 1>
DESCRIPTION: <one sentence>
Separate blocks with a line containing only ---.
If there are no vulnerabilities, reply with exactly NO_VULNERABILITIES_FOUND and nothing else.`

// repairInstruction is appended on the single schema-repair retry.
const repairInstruction = `Your previous reply did not follow the required format. Reply ONLY with finding blocks in the exact field format given, or exactly NO_VULNERABILITIES_FOUND. No prose, no markdown.`

const verifierSystemPrompt = `You are a senior security auditor verifying a reported finding.
You are given a code excerpt, the reported finding, and what a pattern scanner saw.
Decide whether the finding is real. Reply with exactly two lines:
VERDICT: <CONFIRM|REJECT>
CONFIDENCE: <0.0-1.0>`

// reviewerFinding is one schema-valid block of a reviewer response. Lines are
// relative to the chunk (1-based) so cached results can be replayed onto any
// chunk with identical content.
type reviewerFinding struct {
	Category     findings.Category
	SeverityHint findings.Severity
	Confidence   float64
	Line         int
	Description  string
}

// buildReviewerPrompt renders the user prompt for one chunk.
func buildReviewerPrompt(chunk extract.Chunk, repair bool) string {
	var b strings.Builder
	if repair {
		b.WriteString(repairInstruction)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "File: %s (language: %s, lines %d-%d)\n\n", chunk.FilePath, chunk.Language, chunk.Span.StartLine, chunk.Span.EndLine)
	b.WriteString("```\n")
	b.WriteString(chunk.Content)
	b.WriteString("\n```\n")
	return b.String()
}

// buildVerifierPrompt renders the verifier prompt with both prior opinions.
func buildVerifierPrompt(chunk extract.Chunk, disputed findings.Candidate, patternHits []findings.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s (language: %s)\n\n", chunk.FilePath, chunk.Language)
	b.WriteString("Code:\n```\n")
	b.WriteString(chunk.Content)
	b.WriteString("\n```\n\n")
	fmt.Fprintf(&b, "Reported finding: category=%s confidence=%.2f lines=%d-%d\n%s\n\n",
		disputed.Category, disputed.Confidence, disputed.Span.StartLine, disputed.Span.EndLine, disputed.Rationale)

	if len(patternHits) == 0 {
		b.WriteString("Pattern scanner: no rule matched this code.\n")
	} else {
		b.WriteString("Pattern scanner matches:\n")
		for _, hit := range patternHits {
			fmt.Fprintf(&b, "- rule=%s category=%s line=%d: %s\n", hit.RuleID, hit.Category, hit.Span.StartLine, hit.Rationale)
		}
	}
	return b.String()
}

// parseReviewerResponse validates a reviewer reply against the fixed schema.
// It returns the parsed findings, or an error when the reply violates the
// schema (which triggers the single repair retry).
func parseReviewerResponse(content string, chunkLines int) ([]reviewerFinding, error) {
	cleaned := stripReasoning(content)
	if strings.Contains(strings.ToUpper(cleaned), noFindingsSentinel) {
		return nil, nil
	}

	var out []reviewerFinding
	current := reviewerFinding{Confidence: -1}
	sawField := false

	flush := func() error {
		if !sawField {
			return nil
		}
		if err := validateReviewerFinding(current, chunkLines); err != nil {
			return err
		}
		out = append(out, current)
		current = reviewerFinding{Confidence: -1}
		sawField = false
		return nil
	}

	for _, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "---":
			if err := flush(); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "CATEGORY:"):
			label := strings.TrimSpace(strings.TrimPrefix(line, "CATEGORY:"))
			category, ok := findings.NormalizeCategory(label)
			if !ok {
				return nil, fmt.Errorf("unknown category %q", label)
			}
			current.Category = category
			sawField = true
		case strings.HasPrefix(line, "SEVERITY:"):
			current.SeverityHint = findings.ParseSeverity(strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, "SEVERITY:"))))
			sawField = true
		case strings.HasPrefix(line, "CONFIDENCE:"):
			v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:")), 64)
			if err != nil {
				return nil, fmt.Errorf("unparseable confidence: %w", err)
			}
			current.Confidence = v
			sawField = true
		case strings.HasPrefix(line, "LINE:"):
			v, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "LINE:")))
			if err != nil {
				return nil, fmt.Errorf("unparseable line reference: %w", err)
			}
			current.Line = v
			sawField = true
		case strings.HasPrefix(line, "DESCRIPTION:"):
			current.Description = strings.TrimSpace(strings.TrimPrefix(line, "DESCRIPTION:"))
			sawField = true
		}
	}
	if err := flush(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("response contains neither findings nor the %s sentinel", noFindingsSentinel)
	}
	return out, nil
}

func validateReviewerFinding(f reviewerFinding, chunkLines int) error {
	if !f.Category.IsValid() {
		return fmt.Errorf("finding block missing category")
	}
	if f.Confidence < 0 || f.Confidence > 1 {
		return fmt.Errorf("confidence %f out of range", f.Confidence)
	}
	if f.Line < 1 || f.Line > chunkLines {
		return fmt.Errorf("line reference %d outside chunk (1-%d)", f.Line, chunkLines)
	}
	if f.SeverityHint == "" {
		return fmt.Errorf("finding block missing severity")
	}
	return nil
}

// parseVerifierResponse extracts the binary verdict and its confidence.
func parseVerifierResponse(content string) (confirmed bool, confidence float64, err error) {
	cleaned := stripReasoning(content)
	sawVerdict := false
	confidence = -1

	for _, raw := range strings.Split(cleaned, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, "VERDICT:"):
			verdict := strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "VERDICT:")))
			switch verdict {
			case "CONFIRM":
				confirmed = true
			case "REJECT":
				confirmed = false
			default:
				return false, 0, fmt.Errorf("unknown verdict %q", verdict)
			}
			sawVerdict = true
		case strings.HasPrefix(line, "CONFIDENCE:"):
			v, parseErr := strconv.ParseFloat(strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:")), 64)
			if parseErr != nil {
				return false, 0, fmt.Errorf("unparseable confidence: %w", parseErr)
			}
			confidence = v
		}
	}
	if !sawVerdict {
		return false, 0, fmt.Errorf("response contains no verdict")
	}
	if confidence < 0 || confidence > 1 {
		return false, 0, fmt.Errorf("confidence missing or out of range")
	}
	return confirmed, confidence, nil
}

// stripReasoning removes <think>...</think> sections some reasoning models
// prepend to their answers.
func stripReasoning(content string) string {
	for {
		start := strings.Index(content, "<think>")
		if start < 0 {
			break
		}
		end := strings.Index(content, "</think>")
		if end < 0 || end < start {
			content = content[:start]
			break
		}
		content = content[:start] + content[end+len("</think>"):]
	}
	return strings.TrimSpace(content)
}
