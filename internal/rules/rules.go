// Package rules implements the deterministic pattern detector. Rule sets are
// data: adding a language means adding entries to the dispatch table below,
// not new control flow.
package rules

import (
	"regexp"

	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/repo"
)

// Rule is one deterministic match predicate with its category tag and
// confidence weight.
type Rule struct {
	ID          string
	Category    findings.Category
	Pattern     *regexp.Regexp
	Confidence  float64
	Description string
}

func mustRule(id string, category findings.Category, pattern string, confidence float64, description string) Rule {
	return Rule{
		ID:          id,
		Category:    category,
		Pattern:     regexp.MustCompile(`(?i)` + pattern),
		Confidence:  confidence,
		Description: description,
	}
}

// commonRules apply to every language.
var commonRules = []Rule{
	mustRule("secret-password", findings.CategoryExposedSecret, `password\s*=\s*["'][^"']{8,}["']`, 0.7, "Hardcoded password literal"),
	mustRule("secret-api-key", findings.CategoryExposedSecret, `api_?key\s*=\s*["'][^"']{10,}["']`, 0.7, "Hardcoded API key literal"),
	mustRule("secret-generic", findings.CategoryExposedSecret, `secret\s*=\s*["'][^"']{8,}["']`, 0.6, "Hardcoded secret literal"),
	mustRule("secret-private-key", findings.CategoryExposedSecret, `-----BEGIN (RSA|EC|OPENSSH|DSA) PRIVATE KEY-----`, 0.95, "Private key material embedded in source"),
	mustRule("crypto-md5", findings.CategoryWeakCrypto, `\bmd5\s*\(`, 0.6, "MD5 is not collision resistant"),
	mustRule("crypto-sha1", findings.CategoryWeakCrypto, `\bsha1\s*\(`, 0.5, "SHA-1 is deprecated for security use"),
	mustRule("crypto-des", findings.CategoryWeakCrypto, `\bDES\s*\(`, 0.6, "DES provides inadequate key length"),
	mustRule("sqli-concat-where", findings.CategoryInjection, `WHERE.*=.*\+`, 0.4, "SQL WHERE clause built by string concatenation"),
	mustRule("sqli-query-concat", findings.CategoryInjection, `query\s*\(\s*["'].*\+`, 0.6, "Query assembled by string concatenation"),
	mustRule("sqli-execute-format", findings.CategoryInjection, `execute\s*\(\s*["'].*%.*["']`, 0.6, "Query assembled by string formatting"),
}

// languageRules is the per-language dispatch table, resolved once per file.
var languageRules = map[repo.Language][]Rule{
	repo.LangPython: {
		mustRule("py-os-system", findings.CategoryInjection, `os\.system\s*\(.*(\+|%|format)`, 0.7, "Shell command built from dynamic input"),
		mustRule("py-subprocess-shell", findings.CategoryInjection, `subprocess\.\w+\(.*shell\s*=\s*True`, 0.6, "subprocess invoked with shell=True"),
		mustRule("py-eval", findings.CategoryInjection, `\beval\s*\(`, 0.5, "eval on dynamic input"),
		mustRule("py-pickle-loads", findings.CategoryInputValidation, `pickle\.loads?\s*\(`, 0.6, "Unsafe deserialization via pickle"),
		mustRule("py-yaml-load", findings.CategoryInputValidation, `yaml\.load\s*\((?:[^)]*\))?`, 0.4, "yaml.load without SafeLoader"),
		mustRule("py-traceback-print", findings.CategoryErrorDisclosure, `traceback\.(print_exc|format_exc)\s*\(`, 0.3, "Stack trace surfaced to output"),
		mustRule("py-debug-true", findings.CategoryErrorDisclosure, `debug\s*=\s*True`, 0.3, "Debug mode enabled"),
		mustRule("py-csrf-exempt", findings.CategoryCSRF, `@csrf_exempt`, 0.7, "CSRF protection disabled for a view"),
	},
	repo.LangJavaScript: {
		mustRule("js-innerhtml", findings.CategoryXSS, `innerHTML\s*=.*\+`, 0.6, "DOM sink fed by concatenated input"),
		mustRule("js-document-write", findings.CategoryXSS, `document\.write\s*\(.*\+`, 0.6, "document.write with dynamic input"),
		mustRule("js-eval", findings.CategoryXSS, `\beval\s*\(`, 0.5, "eval on dynamic input"),
		mustRule("js-child-process", findings.CategoryInjection, `(exec|execSync)\s*\(\s*["'\x60].*(\+|\$\{)`, 0.6, "Shell command built from dynamic input"),
		mustRule("js-dangerously-set", findings.CategoryXSS, `dangerouslySetInnerHTML`, 0.5, "Raw HTML injection point"),
	},
	repo.LangTypeScript: {
		mustRule("ts-innerhtml", findings.CategoryXSS, `innerHTML\s*=.*\+`, 0.6, "DOM sink fed by concatenated input"),
		mustRule("ts-eval", findings.CategoryXSS, `\beval\s*\(`, 0.5, "eval on dynamic input"),
	},
	repo.LangJava: {
		mustRule("java-stmt-concat", findings.CategoryInjection, `createStatement\(\)|executeQuery\s*\(.*\+`, 0.5, "Statement executed with concatenated SQL"),
		mustRule("java-runtime-exec", findings.CategoryInjection, `Runtime\.getRuntime\(\)\.exec\s*\(.*\+`, 0.7, "Shell command built from dynamic input"),
		mustRule("java-printstacktrace", findings.CategoryErrorDisclosure, `\.printStackTrace\s*\(`, 0.3, "Stack trace surfaced to output"),
		mustRule("java-trust-all", findings.CategoryWeakAuth, `TrustAllCerts|ALLOW_ALL_HOSTNAME_VERIFIER`, 0.7, "TLS verification disabled"),
	},
	repo.LangPHP: {
		mustRule("php-mysql-concat", findings.CategoryInjection, `mysqli?_query\s*\(.*\.\s*\$`, 0.6, "Query assembled from request input"),
		mustRule("php-echo-request", findings.CategoryXSS, `echo\s+\$_(GET|POST|REQUEST)`, 0.7, "Request parameter echoed unescaped"),
		mustRule("php-include-request", findings.CategoryInputValidation, `(include|require)(_once)?\s*\(?\s*\$_(GET|POST|REQUEST)`, 0.8, "File inclusion driven by request input"),
		mustRule("php-exec", findings.CategoryInjection, `(shell_exec|passthru|system)\s*\(.*\$`, 0.7, "Shell command built from dynamic input"),
	},
	repo.LangRuby: {
		mustRule("rb-send-exec", findings.CategoryInjection, "`.*#\\{", 0.6, "Shell command interpolation"),
		mustRule("rb-sql-interp", findings.CategoryInjection, `where\s*\(\s*["'].*#\{`, 0.6, "SQL fragment with string interpolation"),
	},
	repo.LangGo: {
		mustRule("go-sql-sprintf", findings.CategoryInjection, `(Query|Exec)\s*\(\s*fmt\.Sprintf`, 0.6, "Query assembled with fmt.Sprintf"),
		mustRule("go-exec-command", findings.CategoryInjection, `exec\.Command\s*\(\s*["']sh["']`, 0.5, "Shell invocation with dynamic arguments"),
		mustRule("go-tls-skip-verify", findings.CategoryWeakAuth, `InsecureSkipVerify\s*:\s*true`, 0.7, "TLS verification disabled"),
	},
	repo.LangC: {
		mustRule("c-strcpy", findings.CategoryInputValidation, `\b(strcpy|strcat|sprintf|gets)\s*\(`, 0.5, "Unbounded buffer write"),
		mustRule("c-system", findings.CategoryInjection, `\bsystem\s*\(`, 0.5, "Shell invocation"),
	},
	repo.LangCPP: {
		mustRule("cpp-strcpy", findings.CategoryInputValidation, `\b(strcpy|strcat|sprintf|gets)\s*\(`, 0.5, "Unbounded buffer write"),
		mustRule("cpp-system", findings.CategoryInjection, `\bsystem\s*\(`, 0.5, "Shell invocation"),
	},
	repo.LangCSharp: {
		mustRule("cs-sql-concat", findings.CategoryInjection, `SqlCommand\s*\(.*\+`, 0.6, "SqlCommand with concatenated SQL"),
		mustRule("cs-process-start", findings.CategoryInjection, `Process\.Start\s*\(.*\+`, 0.6, "Process started with dynamic arguments"),
	},
}

// RulesFor returns the ordered rule set for a language: the shared rules
// followed by the language-specific ones. Unknown languages still get the
// shared rules (secrets and weak crypto are language agnostic).
func RulesFor(lang repo.Language) []Rule {
	specific := languageRules[lang]
	out := make([]Rule, 0, len(commonRules)+len(specific))
	out = append(out, commonRules...)
	out = append(out, specific...)
	return out
}
