package findings

import "strings"

// Category is the closed set of vulnerability classes the pipeline reports.
type Category string

const (
	CategoryInjection            Category = "injection"
	CategoryXSS                  Category = "xss"
	CategoryCSRF                 Category = "csrf"
	CategoryWeakAuth             Category = "weak-auth"
	CategoryErrorDisclosure      Category = "error-disclosure"
	CategoryInputValidation      Category = "input-validation"
	CategoryVulnerableDependency Category = "vulnerable-dependency"
	CategoryExposedSecret        Category = "exposed-secret"
	CategoryAccessControl        Category = "access-control"
	CategoryWeakCrypto           Category = "weak-crypto"
)

// Categories lists every valid category in reporting order.
func Categories() []Category {
	return []Category{
		CategoryInjection,
		CategoryXSS,
		CategoryCSRF,
		CategoryWeakAuth,
		CategoryErrorDisclosure,
		CategoryInputValidation,
		CategoryVulnerableDependency,
		CategoryExposedSecret,
		CategoryAccessControl,
		CategoryWeakCrypto,
	}
}

// IsValid checks if the category is part of the closed enumeration.
func (c Category) IsValid() bool {
	switch c {
	case CategoryInjection, CategoryXSS, CategoryCSRF, CategoryWeakAuth,
		CategoryErrorDisclosure, CategoryInputValidation, CategoryVulnerableDependency,
		CategoryExposedSecret, CategoryAccessControl, CategoryWeakCrypto:
		return true
	}
	return false
}

// categoryAliases maps detector- and model-reported labels onto the canonical
// categories. Comparison happens after lowercasing and trimming.
var categoryAliases = map[string]Category{
	"sql_injection":         CategoryInjection,
	"sql-injection":         CategoryInjection,
	"sqli":                  CategoryInjection,
	"command_injection":     CategoryInjection,
	"command-injection":     CategoryInjection,
	"code_injection":        CategoryInjection,
	"cross_site_scripting":  CategoryXSS,
	"cross-site-scripting":  CategoryXSS,
	"cross_site_request_forgery": CategoryCSRF,
	"hardcoded_secrets":     CategoryExposedSecret,
	"hardcoded_secret":      CategoryExposedSecret,
	"hardcoded_credentials": CategoryExposedSecret,
	"secret":                CategoryExposedSecret,
	"secrets":               CategoryExposedSecret,
	"insecure_crypto":       CategoryWeakCrypto,
	"weak_crypto":           CategoryWeakCrypto,
	"weak_cryptography":     CategoryWeakCrypto,
	"crypto":                CategoryWeakCrypto,
	"weak_auth":             CategoryWeakAuth,
	"weak_authentication":   CategoryWeakAuth,
	"authentication":        CategoryWeakAuth,
	"broken_auth":           CategoryWeakAuth,
	"error_disclosure":      CategoryErrorDisclosure,
	"information_disclosure": CategoryErrorDisclosure,
	"info_disclosure":       CategoryErrorDisclosure,
	"input_validation":      CategoryInputValidation,
	"improper_input_validation": CategoryInputValidation,
	"path_traversal":        CategoryInputValidation,
	"unsafe_deserialization": CategoryInputValidation,
	"vulnerable_dependency": CategoryVulnerableDependency,
	"outdated_dependency":   CategoryVulnerableDependency,
	"access_control":        CategoryAccessControl,
	"broken_access_control": CategoryAccessControl,
	"authorization":         CategoryAccessControl,
	"idor":                  CategoryAccessControl,
}

// NormalizeCategory maps a raw detector- or model-reported label onto the
// canonical closed enumeration. The second return value is false when the
// label is not recognized.
func NormalizeCategory(raw string) (Category, bool) {
	label := strings.ToLower(strings.TrimSpace(raw))
	label = strings.ReplaceAll(label, " ", "_")

	if c := Category(label); c.IsValid() {
		return c, true
	}
	if c, ok := categoryAliases[label]; ok {
		return c, true
	}
	// tolerate dash/underscore variants of canonical names
	if c := Category(strings.ReplaceAll(label, "_", "-")); c.IsValid() {
		return c, true
	}
	return "", false
}
