// Package severity maps reconciled findings onto the fixed ordinal severity
// scale. The mapping is a static lookup table over (category, confidence
// band): deterministic, no hidden heuristics.
package severity

import (
	"github.com/repotriage/repotriage/internal/findings"
)

// Confidence band boundaries. A finding falls into the highest band whose
// lower bound it reaches.
const (
	bandMedium = 0.3
	bandHigh   = 0.5
	bandTop    = 0.85
)

// table holds one severity per confidence band, ordered
// [<0.3, 0.3-0.5, 0.5-0.85, >=0.85]. Injection and exposed secrets have the
// highest ceiling; weak input validation never rises above medium.
var table = map[findings.Category][4]findings.Severity{
	findings.CategoryInjection:            {findings.SeverityLow, findings.SeverityMedium, findings.SeverityHigh, findings.SeverityCritical},
	findings.CategoryExposedSecret:        {findings.SeverityMedium, findings.SeverityMedium, findings.SeverityHigh, findings.SeverityCritical},
	findings.CategoryXSS:                  {findings.SeverityLow, findings.SeverityMedium, findings.SeverityHigh, findings.SeverityHigh},
	findings.CategoryWeakAuth:             {findings.SeverityLow, findings.SeverityMedium, findings.SeverityHigh, findings.SeverityHigh},
	findings.CategoryAccessControl:        {findings.SeverityLow, findings.SeverityMedium, findings.SeverityHigh, findings.SeverityHigh},
	findings.CategoryCSRF:                 {findings.SeverityLow, findings.SeverityMedium, findings.SeverityMedium, findings.SeverityHigh},
	findings.CategoryInputValidation:      {findings.SeverityInfo, findings.SeverityLow, findings.SeverityMedium, findings.SeverityMedium},
	findings.CategoryErrorDisclosure:      {findings.SeverityInfo, findings.SeverityLow, findings.SeverityMedium, findings.SeverityMedium},
	findings.CategoryVulnerableDependency: {findings.SeverityLow, findings.SeverityLow, findings.SeverityMedium, findings.SeverityMedium},
	findings.CategoryWeakCrypto:           {findings.SeverityInfo, findings.SeverityLow, findings.SeverityMedium, findings.SeverityMedium},
}

// Score returns the severity for a category at the given final confidence.
// Unknown categories score as low so a mapping gap can never hide a finding.
func Score(category findings.Category, confidence float64) findings.Severity {
	bands, ok := table[category]
	if !ok {
		return findings.SeverityLow
	}
	switch {
	case confidence >= bandTop:
		return bands[3]
	case confidence >= bandHigh:
		return bands[2]
	case confidence >= bandMedium:
		return bands[1]
	default:
		return bands[0]
	}
}

// Apply stamps the severity onto a reconciled finding and returns it.
func Apply(f findings.Reconciled) findings.Reconciled {
	f.Severity = Score(f.Category, f.Confidence)
	return f
}
