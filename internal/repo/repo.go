// Package repo ingests a resolved local source tree into an immutable
// Repository value: the ordered file list the rest of the pipeline works on.
package repo

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// SkipReason classifies why a file was excluded from analysis.
type SkipReason string

const (
	SkipTooLarge   SkipReason = "too-large"
	SkipBinary     SkipReason = "binary"
	SkipUnreadable SkipReason = "unreadable"
)

// SkippedFile records a per-file skip condition. Skips are reported, not fatal.
type SkippedFile struct {
	Path   string     `json:"path"`
	Reason SkipReason `json:"reason"`
	Detail string     `json:"detail,omitempty"`
}

// File is one ingested source file. Content is owned by the File and never
// mutated after ingestion.
type File struct {
	Path     string   // relative to the repository root
	Language Language
	Content  []byte
}

// Lines returns the file content split into lines.
func (f *File) Lines() []string {
	return splitLines(string(f.Content))
}

// Repository is an ingested source tree. Immutable once built; a new scan
// re-ingests from scratch.
type Repository struct {
	Root    string
	Files   []File
	Skipped []SkippedFile
}

// excludedDirs are pruned from the walk entirely.
var excludedDirs = map[string]bool{
	".git":        true,
	"node_modules": true,
	"__pycache__": true,
	".venv":       true,
	"venv":        true,
	"build":       true,
	"dist":        true,
	"vendor":      true,
}

// Ingest walks the tree rooted at root and returns a Repository with every
// supported source file that passed the size and binary checks. An unreadable
// root is the only fatal condition.
func Ingest(root string, maxFileSize int64, logger hclog.Logger) (*Repository, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unreadable repository root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %q is not a directory", root)
	}

	repository := &Repository{Root: root}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			logger.Warn("skipping unreadable entry", "path", path, "error", walkErr)
			return nil
		}
		if d.IsDir() {
			if excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		// Files with a foreign extension are out of scope. Extension-less
		// files fall through so interpreter scripts can be classified by
		// content sniff.
		sourceExt := IsSourceExtension(path)
		if !sourceExt && filepath.Ext(path) != "" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		fileInfo, err := d.Info()
		if err != nil {
			repository.Skipped = append(repository.Skipped, SkippedFile{Path: rel, Reason: SkipUnreadable, Detail: err.Error()})
			return nil
		}
		if fileInfo.Size() > maxFileSize {
			logger.Debug("file exceeds size cap", "path", rel, "size", fileInfo.Size())
			repository.Skipped = append(repository.Skipped, SkippedFile{
				Path:   rel,
				Reason: SkipTooLarge,
				Detail: fmt.Sprintf("%d bytes", fileInfo.Size()),
			})
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			repository.Skipped = append(repository.Skipped, SkippedFile{Path: rel, Reason: SkipUnreadable, Detail: err.Error()})
			return nil
		}
		if isBinary(content) {
			repository.Skipped = append(repository.Skipped, SkippedFile{Path: rel, Reason: SkipBinary})
			return nil
		}

		language := DetectLanguage(rel, content)
		if !sourceExt && language == LangUnknown {
			logger.Debug("extension-less file matched no interpreter hint", "path", rel)
			return nil
		}

		repository.Files = append(repository.Files, File{
			Path:     rel,
			Language: language,
			Content:  content,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk repository root %q: %w", root, err)
	}

	// deterministic file order regardless of filesystem iteration
	sort.Slice(repository.Files, func(i, j int) bool {
		return repository.Files[i].Path < repository.Files[j].Path
	})
	sort.Slice(repository.Skipped, func(i, j int) bool {
		return repository.Skipped[i].Path < repository.Skipped[j].Path
	})

	logger.Info("repository ingested", "root", root, "files", len(repository.Files), "skipped", len(repository.Skipped))
	return repository, nil
}

// isBinary applies a cheap content heuristic: a NUL byte within the sniff
// window marks the file as binary.
func isBinary(content []byte) bool {
	window := content
	if len(window) > 8000 {
		window = window[:8000]
	}
	return bytes.IndexByte(window, 0) >= 0
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
