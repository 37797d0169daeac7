package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/repo"
)

func span(start, end int) findings.Span {
	return findings.Span{StartLine: start, EndLine: end}
}

func makeFile(path string, lines int) *repo.File {
	var b strings.Builder
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return &repo.File{Path: path, Language: repo.LangPython, Content: []byte(b.String())}
}

func TestSplitSmallFileSingleChunk(t *testing.T) {
	c := NewChunker(500, 20)

	chunks := c.Split(makeFile("small.py", 500))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Span.StartLine != 1 || chunks[0].Span.EndLine != 500 {
		t.Errorf("unexpected span %+v", chunks[0].Span)
	}
}

func TestSplitCoverageAndOverlap(t *testing.T) {
	c := NewChunker(500, 20)

	chunks := c.Split(makeFile("large.py", 5000))
	if len(chunks) != 11 {
		t.Fatalf("expected 11 chunks for 5000 lines, got %d", len(chunks))
	}

	if chunks[0].Span.StartLine != 1 {
		t.Errorf("first chunk must start at line 1, got %d", chunks[0].Span.StartLine)
	}
	if chunks[len(chunks)-1].Span.EndLine != 5000 {
		t.Errorf("last chunk must end at line 5000, got %d", chunks[len(chunks)-1].Span.EndLine)
	}

	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		overlap := prev.Span.EndLine - cur.Span.StartLine + 1
		if cur.Span.EndLine < 5000 && overlap != 20 {
			t.Errorf("chunks %d and %d overlap by %d lines, want 20", i-1, i, overlap)
		}
		if cur.Span.StartLine > prev.Span.EndLine+1 {
			t.Errorf("gap between chunks %d and %d", i-1, i)
		}
	}
}

func TestSplitEmptyFile(t *testing.T) {
	c := NewChunker(500, 20)
	if chunks := c.Split(&repo.File{Path: "empty.py"}); chunks != nil {
		t.Errorf("expected no chunks for empty file, got %d", len(chunks))
	}
}

func TestChunkHashIsContentDerived(t *testing.T) {
	c := NewChunker(100, 10)

	a := c.Split(makeFile("a.py", 50))
	b := c.Split(makeFile("b.py", 50))
	if a[0].Hash != b[0].Hash {
		t.Error("identical content in different files must hash identically")
	}

	d := c.Split(makeFile("d.py", 51))
	if a[0].Hash == d[0].Hash {
		t.Error("different content must not collide on the cache key")
	}
}

func TestExcerptClampsToChunk(t *testing.T) {
	c := NewChunker(100, 10)
	chunk := c.Split(makeFile("a.py", 50))[0]

	tests := []struct {
		name string
		span struct{ start, end int }
		want string
	}{
		{"single line", struct{ start, end int }{3, 3}, "line 3"},
		{"clamped below", struct{ start, end int }{-5, 1}, "line 1"},
		{"clamped above", struct{ start, end int }{50, 90}, "line 50"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := chunk.Excerpt(span(tt.span.start, tt.span.end))
			if got != tt.want {
				t.Errorf("Excerpt = %q, want %q", got, tt.want)
			}
		})
	}
}
