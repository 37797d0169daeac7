package findings

// Detector identifies which analysis stage produced a candidate finding.
type Detector string

const (
	DetectorPattern  Detector = "pattern"
	DetectorReviewer Detector = "reviewer"
	DetectorVerifier Detector = "verifier"
	DetectorDeps     Detector = "deps"
)

// Span is a 1-based inclusive line range inside a single file.
type Span struct {
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Lines returns the number of lines covered by the span.
func (s Span) Lines() int {
	if s.EndLine < s.StartLine {
		return 0
	}
	return s.EndLine - s.StartLine + 1
}

// Union returns the smallest span covering both s and other.
func (s Span) Union(other Span) Span {
	out := s
	if other.StartLine < out.StartLine {
		out.StartLine = other.StartLine
	}
	if other.EndLine > out.EndLine {
		out.EndLine = other.EndLine
	}
	return out
}

// OverlapFraction returns the overlap between two spans relative to the
// smaller of the two. Returns 0 when the spans are disjoint.
func (s Span) OverlapFraction(other Span) float64 {
	lo := s.StartLine
	if other.StartLine > lo {
		lo = other.StartLine
	}
	hi := s.EndLine
	if other.EndLine < hi {
		hi = other.EndLine
	}
	if hi < lo {
		return 0
	}
	smaller := s.Lines()
	if o := other.Lines(); o < smaller {
		smaller = o
	}
	if smaller == 0 {
		return 0
	}
	return float64(hi-lo+1) / float64(smaller)
}

// Candidate is an unreconciled detector output. Candidates from different
// detectors may duplicate or contradict each other; the reconciler resolves that.
type Candidate struct {
	FilePath   string   `json:"file_path"`
	Span       Span     `json:"span"`
	Detector   Detector `json:"detector"`
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"` // detector-local scale, [0,1]
	RuleID     string   `json:"rule_id,omitempty"`
	Rationale  string   `json:"rationale,omitempty"`
	Excerpt    string   `json:"excerpt,omitempty"`
}

// Reconciled is a deduplicated, trust-adjusted finding as it appears in the
// final report. Its evidence span is the union of its contributors' spans and
// never crosses a file boundary.
type Reconciled struct {
	FilePath   string     `json:"file_path"`
	Span       Span       `json:"span"`
	Category   Category   `json:"category"`
	Severity   Severity   `json:"severity"`
	Confidence float64    `json:"confidence"`
	Detectors  []Detector `json:"detectors"`
	Rationale  string     `json:"rationale,omitempty"`
	Excerpt    string     `json:"excerpt,omitempty"`
}

// HasDetector reports whether the finding carries evidence from the given detector.
func (r Reconciled) HasDetector(d Detector) bool {
	for _, have := range r.Detectors {
		if have == d {
			return true
		}
	}
	return false
}
