package gitfetch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
)

func TestNewWithMissingSSHKey(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "id_ed25519")

	if _, err := New(hclog.NewNullLogger(), time.Minute, WithSSHKey(missing, "")); err == nil {
		t.Fatal("expected error for a missing key file")
	}
}

func TestNewWithSSHKeyDirectory(t *testing.T) {
	if _, err := New(hclog.NewNullLogger(), time.Minute, WithSSHKey(t.TempDir(), "")); err == nil {
		t.Fatal("expected error for a directory key path")
	}
}

func TestNewWithMalformedSSHKey(t *testing.T) {
	key := filepath.Join(t.TempDir(), "id_ed25519")
	if err := os.WriteFile(key, []byte("not a pem block"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := New(hclog.NewNullLogger(), time.Minute, WithSSHKey(key, "")); err == nil {
		t.Fatal("expected error for a malformed key file")
	}
}

func TestNewWithoutOptions(t *testing.T) {
	f, err := New(hclog.NewNullLogger(), time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if f.auth != nil {
		t.Error("no auth method expected without options")
	}
}
