package findings

// Severity is the ordinal risk level assigned after reconciliation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityInfo:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Severities lists every severity from least to most severe.
func Severities() []Severity {
	return []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// IsValid checks if the severity is one of the fixed ordinal scale values.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// Rank returns the ordinal position of the severity, info being 0.
func (s Severity) Rank() int {
	return severityRank[s]
}

// GTE reports whether s is at least as severe as other.
func (s Severity) GTE(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// ParseSeverity normalizes a model-reported severity hint. Unknown values
// fall back to low rather than failing the whole response.
func ParseSeverity(raw string) Severity {
	switch Severity(raw) {
	case SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(raw)
	}
	return SeverityLow
}
