package rules

import (
	"reflect"
	"testing"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/extract"
	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/repo"
)

func pythonChunk(content string, startLine int) extract.Chunk {
	return extract.Chunk{
		FilePath: "app.py",
		Language: repo.LangPython,
		Span:     findings.Span{StartLine: startLine, EndLine: startLine + 10},
		Content:  content,
	}
}

func TestDetectLanguageSpecificRule(t *testing.T) {
	d := NewDetector(hclog.NewNullLogger())

	chunk := pythonChunk("import os\nos.system(\"rm -rf \" + user_input)\n", 1)
	candidates := d.Detect(chunk)

	var hit *findings.Candidate
	for i := range candidates {
		if candidates[i].RuleID == "py-os-system" {
			hit = &candidates[i]
		}
	}
	if hit == nil {
		t.Fatal("expected py-os-system to fire")
	}
	if hit.Category != findings.CategoryInjection {
		t.Errorf("category = %q, want injection", hit.Category)
	}
	if hit.Span.StartLine != 2 || hit.Span.EndLine != 2 {
		t.Errorf("span = %+v, want line 2", hit.Span)
	}
	if hit.Detector != findings.DetectorPattern {
		t.Errorf("detector = %q, want pattern", hit.Detector)
	}
}

func TestDetectAbsoluteLineNumbers(t *testing.T) {
	d := NewDetector(hclog.NewNullLogger())

	// chunk starting at line 481: a hit on its third line is file line 483
	chunk := pythonChunk("x = 1\ny = 2\npassword = \"hunter2hunter2\"\n", 481)
	candidates := d.Detect(chunk)

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Span.StartLine != 483 {
		t.Errorf("line = %d, want 483", candidates[0].Span.StartLine)
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	d := NewDetector(hclog.NewNullLogger())
	chunk := pythonChunk("import hashlib\nh = md5(data)\npassword = \"supersecretvalue\"\neval(payload)\n", 1)

	first := d.Detect(chunk)
	for i := 0; i < 5; i++ {
		if got := d.Detect(chunk); !reflect.DeepEqual(first, got) {
			t.Fatalf("run %d differs from first run", i)
		}
	}
}

func TestDetectMultipleRulesOnOneLine(t *testing.T) {
	d := NewDetector(hclog.NewNullLogger())

	// both the md5 rule and the sha1 rule fire on this line
	chunk := pythonChunk("digest = md5(sha1(data))\n", 1)
	candidates := d.Detect(chunk)

	seen := map[string]bool{}
	for _, c := range candidates {
		seen[c.RuleID] = true
	}
	if !seen["crypto-md5"] || !seen["crypto-sha1"] {
		t.Errorf("expected both crypto rules to fire, got %v", seen)
	}
}

func TestDetectCleanChunkYieldsNothing(t *testing.T) {
	d := NewDetector(hclog.NewNullLogger())
	chunk := pythonChunk("def add(a, b):\n    return a + b\n", 1)

	if candidates := d.Detect(chunk); len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d: %+v", len(candidates), candidates)
	}
}

func TestRulesForUnknownLanguageKeepsCommonRules(t *testing.T) {
	rules := RulesFor(repo.LangUnknown)
	if len(rules) != len(commonRules) {
		t.Errorf("unknown language should get exactly the common rules, got %d", len(rules))
	}
}
