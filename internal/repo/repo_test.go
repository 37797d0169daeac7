package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func writeTree(t *testing.T, root string, files map[string][]byte) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestIngest(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"app.py":                  []byte("print('hi')\n"),
		"lib/util.js":             []byte("module.exports = {}\n"),
		"README.md":               []byte("# readme\n"),
		"node_modules/dep/x.js":   []byte("ignored\n"),
		"assets/logo.png":         []byte("ignored\n"),
		"native.py.so":            []byte("ignored\n"),
	})

	repository, err := Ingest(root, 1<<20, hclog.NewNullLogger())
	if err != nil {
		t.Fatal(err)
	}

	paths := make([]string, 0, len(repository.Files))
	for _, f := range repository.Files {
		paths = append(paths, f.Path)
	}
	if len(paths) != 2 || paths[0] != "app.py" || paths[1] != filepath.Join("lib", "util.js") {
		t.Errorf("unexpected ingested files: %v", paths)
	}
	if repository.Files[0].Language != LangPython {
		t.Errorf("language = %s, want python", repository.Files[0].Language)
	}
}

func TestIngestSkipsTooLarge(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 2048)
	for i := range big {
		big[i] = 'a'
	}
	writeTree(t, root, map[string][]byte{"big.py": big})

	repository, err := Ingest(root, 1024, hclog.NewNullLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(repository.Files) != 0 {
		t.Errorf("oversized file must not be ingested: %+v", repository.Files)
	}
	if len(repository.Skipped) != 1 || repository.Skipped[0].Reason != SkipTooLarge {
		t.Errorf("expected a too-large skip, got %+v", repository.Skipped)
	}
}

func TestIngestSkipsBinary(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{"blob.py": {0x00, 0x01, 0x02, 'a'}})

	repository, err := Ingest(root, 1<<20, hclog.NewNullLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(repository.Skipped) != 1 || repository.Skipped[0].Reason != SkipBinary {
		t.Errorf("expected a binary skip, got %+v", repository.Skipped)
	}
}

func TestIngestSniffsExtensionlessScripts(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string][]byte{
		"script":   []byte("#!/usr/bin/env python3\nimport os\nos.system(cmd)\n"),
		"Makefile": []byte("all:\n\ttrue\n"),
	})

	repository, err := Ingest(root, 1<<20, hclog.NewNullLogger())
	if err != nil {
		t.Fatal(err)
	}
	if len(repository.Files) != 1 || repository.Files[0].Path != "script" {
		t.Fatalf("expected only the shebang script to be ingested, got %+v", repository.Files)
	}
	if repository.Files[0].Language != LangPython {
		t.Errorf("language = %s, want python", repository.Files[0].Language)
	}
	if len(repository.Skipped) != 0 {
		t.Errorf("unrecognized extension-less files must not clutter the skip list: %+v", repository.Skipped)
	}
}

func TestIngestUnreadableRootIsFatal(t *testing.T) {
	if _, err := Ingest(filepath.Join(t.TempDir(), "missing"), 1<<20, hclog.NewNullLogger()); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestFileLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"empty", "", 0},
		{"no trailing newline", "a\nb", 2},
		{"trailing newline", "a\nb\n", 2},
		{"single line", "a", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := File{Content: []byte(tt.content)}
			if got := len(f.Lines()); got != tt.want {
				t.Errorf("lines = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path    string
		content string
		want    Language
	}{
		{"main.py", "", LangPython},
		{"app.TSX", "", LangTypeScript},
		{"handler.go", "", LangGo},
		{"legacy.h", "", LangC},
		{"script", "#!/usr/bin/env python3\nprint()", LangPython},
		{"cli", "#!/usr/bin/env node\n", LangJavaScript},
		{"index", "<?php echo 1; ?>", LangPHP},
		{"notes.txt", "plain text", LangUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path, []byte(tt.content)); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %s, want %s", tt.path, got, tt.want)
			}
		})
	}
}
