// Package deps audits dependency manifests against a static table of
// known-vulnerable version ranges. It is deliberately offline: no advisory
// feed lookups, just the pinned versions the repository declares.
package deps

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/findings"
)

// vulnRange marks every version below FixedIn as affected.
type vulnRange struct {
	FixedIn  string
	Advisory string
}

// knownVulnerable is the static audit table, keyed by ecosystem then package.
var knownVulnerable = map[string]map[string][]vulnRange{
	"pypi": {
		"django":   {{FixedIn: "3.2.13", Advisory: "multiple CVEs fixed in 3.2.13"}, {FixedIn: "4.0.4", Advisory: "multiple CVEs fixed in 4.0.4"}},
		"flask":    {{FixedIn: "2.2.0", Advisory: "session handling fixes in 2.2.0"}},
		"requests": {{FixedIn: "2.28.0", Advisory: "proxy credential leak fixed in 2.28.0"}},
		"urllib3":  {{FixedIn: "1.26.5", Advisory: "CVE-2021-33503 fixed in 1.26.5"}},
		"pyyaml":   {{FixedIn: "5.4", Advisory: "arbitrary code execution via full_load fixed in 5.4"}},
	},
	"npm": {
		"lodash":   {{FixedIn: "4.17.21", Advisory: "prototype pollution fixed in 4.17.21"}},
		"minimist": {{FixedIn: "1.2.6", Advisory: "prototype pollution fixed in 1.2.6"}},
		"express":  {{FixedIn: "4.17.3", Advisory: "open redirect fixed in 4.17.3"}},
		"axios":    {{FixedIn: "0.21.2", Advisory: "SSRF fixed in 0.21.2"}},
	},
	"rubygems": {
		"rails":    {{FixedIn: "6.1.7.3", Advisory: "multiple CVEs fixed in 6.1.7.3"}},
		"nokogiri": {{FixedIn: "1.13.10", Advisory: "libxml2 CVEs fixed in 1.13.10"}},
		"rack":     {{FixedIn: "2.2.6.4", Advisory: "denial of service fixed in 2.2.6.4"}},
	},
	"maven": {
		"log4j-core":          {{FixedIn: "2.17.1", Advisory: "Log4Shell and follow-ups fixed in 2.17.1"}},
		"commons-collections": {{FixedIn: "3.2.2", Advisory: "unsafe deserialization fixed in 3.2.2"}},
		"jackson-databind":    {{FixedIn: "2.13.4", Advisory: "deserialization gadget CVEs fixed in 2.13.4"}},
	},
}

// Audit scans the repository root for dependency manifests and returns
// vulnerable-dependency candidates. Manifest parse failures become warnings,
// never fatal errors.
func Audit(root string, logger hclog.Logger) ([]findings.Candidate, []string) {
	var candidates []findings.Candidate
	var warnings []string

	c, w := auditRequirements(root)
	candidates = append(candidates, c...)
	warnings = append(warnings, w...)

	c, w = auditPackageJSON(root)
	candidates = append(candidates, c...)
	warnings = append(warnings, w...)

	c, w = auditGemfile(root)
	candidates = append(candidates, c...)
	warnings = append(warnings, w...)

	c, w = auditPom(root)
	candidates = append(candidates, c...)
	warnings = append(warnings, w...)

	logger.Debug("dependency audit finished", "candidates", len(candidates), "warnings", len(warnings))
	return candidates, warnings
}

// auditRequirements checks pinned versions in requirements.txt.
func auditRequirements(root string) ([]findings.Candidate, []string) {
	path := filepath.Join(root, "requirements.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []string{fmt.Sprintf("requirements.txt unreadable: %v", err)}
	}

	var out []findings.Candidate
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, "==") {
			continue
		}
		parts := strings.SplitN(line, "==", 2)
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		version := strings.TrimSpace(parts[1])

		if c := check("pypi", name, version, "requirements.txt", i+1); c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// auditPackageJSON checks dependencies and devDependencies of package.json.
// Range prefixes (^, ~, >=) are stripped: the declared floor is what is audited.
func auditPackageJSON(root string) ([]findings.Candidate, []string) {
	path := filepath.Join(root, "package.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []string{fmt.Sprintf("package.json unreadable: %v", err)}
	}

	var manifest struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, []string{fmt.Sprintf("package.json unparseable: %v", err)}
	}

	var out []findings.Candidate
	for _, deps := range []map[string]string{manifest.Dependencies, manifest.DevDependencies} {
		for name, version := range deps {
			version = strings.TrimLeft(version, "^~>=v ")
			if c := check("npm", strings.ToLower(name), version, "package.json", 1); c != nil {
				out = append(out, *c)
			}
		}
	}
	return out, nil
}

// gemPin matches exact-version gem declarations: gem 'name', '1.2.3'.
var gemPin = regexp.MustCompile(`^\s*gem\s+['"]([\w-]+)['"]\s*,\s*['"](\d[\w.]*)['"]`)

// auditGemfile checks exact-version pins in a Gemfile. Constraint operators
// (~>, >=) are not audited: only a plain pinned version is a reliable floor.
func auditGemfile(root string) ([]findings.Candidate, []string) {
	path := filepath.Join(root, "Gemfile")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []string{fmt.Sprintf("Gemfile unreadable: %v", err)}
	}

	var out []findings.Candidate
	for i, raw := range strings.Split(string(data), "\n") {
		m := gemPin.FindStringSubmatch(raw)
		if m == nil {
			continue
		}
		if c := check("rubygems", strings.ToLower(m[1]), m[2], "Gemfile", i+1); c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

// auditPom checks dependency versions declared inline in a Maven pom.xml.
// Property-interpolated versions (${...}) are skipped.
func auditPom(root string) ([]findings.Candidate, []string) {
	path := filepath.Join(root, "pom.xml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []string{fmt.Sprintf("pom.xml unreadable: %v", err)}
	}

	var pom struct {
		Dependencies []struct {
			ArtifactID string `xml:"artifactId"`
			Version    string `xml:"version"`
		} `xml:"dependencies>dependency"`
	}
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, []string{fmt.Sprintf("pom.xml unparseable: %v", err)}
	}

	var out []findings.Candidate
	for _, dep := range pom.Dependencies {
		if dep.Version == "" || strings.Contains(dep.Version, "${") {
			continue
		}
		if c := check("maven", strings.ToLower(dep.ArtifactID), dep.Version, "pom.xml", 1); c != nil {
			out = append(out, *c)
		}
	}
	return out, nil
}

func check(ecosystem, name, version, manifest string, line int) *findings.Candidate {
	ranges, ok := knownVulnerable[ecosystem][name]
	if !ok {
		return nil
	}
	for _, r := range ranges {
		if versionLess(version, r.FixedIn) {
			return &findings.Candidate{
				FilePath:   manifest,
				Span:       findings.Span{StartLine: line, EndLine: line},
				Detector:   findings.DetectorDeps,
				Category:   findings.CategoryVulnerableDependency,
				Confidence: 0.6,
				RuleID:     fmt.Sprintf("dep-%s-%s", ecosystem, name),
				Rationale:  fmt.Sprintf("%s %s is below %s: %s", name, version, r.FixedIn, r.Advisory),
				Excerpt:    fmt.Sprintf("%s==%s", name, version),
			}
		}
	}
	return nil
}

// versionLess compares dotted numeric versions; non-numeric segments compare
// as strings. Unparseable versions are treated as not vulnerable.
func versionLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aerr := strconv.Atoi(as[i])
		bn, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
			continue
		}
		if an != bn {
			return an < bn
		}
	}
	return len(as) < len(bs)
}
