package scan

import (
	"testing"
)

func TestValidateScanArgs(t *testing.T) {
	tests := []struct {
		name    string
		opts    RunOptionsScan
		args    []string
		wantErr bool
	}{
		{"local path", RunOptionsScan{Format: "json"}, []string{"."}, false},
		{"remote url", RunOptionsScan{RepoURL: "https://github.com/example/app", Format: "json"}, nil, false},
		{"remote url with ssh key", RunOptionsScan{RepoURL: "ssh://git@example.com/app.git", SSHKey: "~/.ssh/id_ed25519", Format: "sarif"}, nil, false},
		{"no target", RunOptionsScan{Format: "json"}, nil, true},
		{"both targets", RunOptionsScan{RepoURL: "https://github.com/example/app", Format: "json"}, []string{"."}, true},
		{"two paths", RunOptionsScan{Format: "json"}, []string{"a", "b"}, true},
		{"ssh key without url", RunOptionsScan{SSHKey: "~/.ssh/id_ed25519", Format: "json"}, []string{"."}, true},
		{"bad format", RunOptionsScan{Format: "xml"}, []string{"."}, true},
		{"negative threads", RunOptionsScan{Format: "json", Threads: -1}, []string{"."}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateScanArgs(&tt.opts, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateScanArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLocalRoot(t *testing.T) {
	if _, err := validateLocalRoot(t.TempDir()); err != nil {
		t.Errorf("existing directory rejected: %v", err)
	}
	if _, err := validateLocalRoot("/definitely/not/a/real/path"); err == nil {
		t.Error("expected error for missing directory")
	}
}
