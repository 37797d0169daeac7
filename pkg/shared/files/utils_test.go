package files

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want string
	}{
		{"tilde prefix", "~/keys/id_ed25519", filepath.Join(home, "keys", "id_ed25519")},
		{"absolute path untouched", "/etc/hosts", "/etc/hosts"},
		{"relative path untouched", "keys/id_ed25519", "keys/id_ed25519"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExpandPath(tt.path)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "key")
	if err := os.WriteFile(file, []byte("data"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := ValidatePath(file); err != nil {
		t.Errorf("regular file must validate: %v", err)
	}
	if err := ValidatePath(dir); err == nil {
		t.Error("directory must not validate as a file")
	}
	if err := ValidatePath(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing path must not validate")
	}
}

func TestValidateDirPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := ValidateDirPath(dir); err != nil {
		t.Errorf("directory must validate: %v", err)
	}
	if err := ValidateDirPath(file); err == nil {
		t.Error("file must not validate as a directory")
	}
}

func TestCreateFolderIfNotExists(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "reports")

	if err := CreateFolderIfNotExists(target); err != nil {
		t.Fatal(err)
	}
	if err := ValidateDirPath(target); err != nil {
		t.Errorf("folder not created: %v", err)
	}

	// Idempotent on an existing folder.
	if err := CreateFolderIfNotExists(target); err != nil {
		t.Errorf("existing folder must be accepted: %v", err)
	}
}
