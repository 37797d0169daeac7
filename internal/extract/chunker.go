// Package extract splits ingested files into bounded, overlapping chunks,
// the unit of analysis for both the pattern detector and the model review.
package extract

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/repo"
)

// Chunk is a bounded contiguous slice of one file's content. Chunks are
// derived per scan and discarded afterwards; they are never persisted.
type Chunk struct {
	FilePath string
	Language repo.Language
	Span     findings.Span
	Content  string
	Hash     string // SHA-256 of the content, used as the review cache key
}

// Chunker produces chunks with a fixed target line count and overlap margin.
type Chunker struct {
	targetLines int
	overlap     int
}

// NewChunker creates a Chunker. overlap must be smaller than targetLines;
// the config validation layer enforces that before a scan starts.
func NewChunker(targetLines, overlap int) *Chunker {
	return &Chunker{targetLines: targetLines, overlap: overlap}
}

// Split chunks a single file. A file no longer than the target becomes a
// single chunk. Every line of the file is covered by at least one chunk and
// adjacent chunks overlap by exactly the configured margin, so a construct
// sitting on a chunk boundary is still seen whole by one of the two chunks.
func (c *Chunker) Split(f *repo.File) []Chunk {
	lines := f.Lines()
	total := len(lines)
	if total == 0 {
		return nil
	}

	stride := c.targetLines - c.overlap

	var chunks []Chunk
	for start := 0; ; start += stride {
		end := start + c.targetLines
		if end > total {
			end = total
		}
		chunks = append(chunks, newChunk(f, lines, start, end))
		if end == total {
			break
		}
	}
	return chunks
}

func newChunk(f *repo.File, lines []string, start, end int) Chunk {
	content := strings.Join(lines[start:end], "\n")
	sum := sha256.Sum256([]byte(content))
	return Chunk{
		FilePath: f.Path,
		Language: f.Language,
		Span:     findings.Span{StartLine: start + 1, EndLine: end},
		Content:  content,
		Hash:     fmt.Sprintf("%x", sum[:]),
	}
}

// Excerpt returns the chunk lines covering the given span, with the span
// clamped to the chunk bounds. Used to attach evidence to findings.
func (ch *Chunk) Excerpt(span findings.Span) string {
	lines := strings.Split(ch.Content, "\n")
	start := span.StartLine - ch.Span.StartLine
	end := span.EndLine - ch.Span.StartLine + 1
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return ""
	}
	return strings.Join(lines[start:end], "\n")
}
