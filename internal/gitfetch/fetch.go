// Package gitfetch resolves a remote repository reference into a local tree
// the analysis pipeline can consume. It is a thin collaborator: cloning is
// all it does, the pipeline never touches the network for source code itself.
package gitfetch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gitsight/go-vcsurl"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
	"github.com/hashicorp/go-hclog"
	crssh "golang.org/x/crypto/ssh"

	"github.com/repotriage/repotriage/pkg/shared/files"
	log "github.com/repotriage/repotriage/pkg/shared/logger"
)

// Fetcher clones remote repositories into temporary directories.
type Fetcher struct {
	logger  hclog.Logger
	timeout time.Duration
	auth    transport.AuthMethod
}

// Option configures a Fetcher.
type Option func(*Fetcher) error

// WithSSHKey enables SSH key authentication for private repositories.
func WithSSHKey(keyPath, password string) Option {
	return func(f *Fetcher) error {
		expanded, err := files.ExpandPath(keyPath)
		if err != nil {
			return fmt.Errorf("failed to expand SSH key path %q: %w", keyPath, err)
		}
		if err := files.ValidatePath(expanded); err != nil {
			return fmt.Errorf("invalid SSH key path %q: %w", keyPath, err)
		}
		auth, err := ssh.NewPublicKeysFromFile("git", expanded, password)
		if err != nil {
			return fmt.Errorf("failed to set up SSH key authentication: %w", err)
		}
		auth.HostKeyCallbackHelper = ssh.HostKeyCallbackHelper{
			HostKeyCallback: crssh.InsecureIgnoreHostKey(), // TODO: known_hosts verification
		}
		f.auth = auth
		return nil
	}
}

// New creates a Fetcher with the given clone timeout.
func New(logger hclog.Logger, timeout time.Duration, opts ...Option) (*Fetcher, error) {
	f := &Fetcher{logger: logger, timeout: timeout}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Fetch shallow-clones the repository behind rawURL into a temporary
// directory and returns the local path plus a cleanup function. The caller
// must invoke cleanup after the scan regardless of outcome.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, func(), error) {
	info, err := vcsurl.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to parse VCS URL %q: %w", rawURL, err)
	}

	targetFolder, err := os.MkdirTemp("", "repotriage-"+info.Name+"-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temporary clone folder: %w", err)
	}
	cleanup := func() {
		if err := os.RemoveAll(targetFolder); err != nil {
			f.logger.Warn("failed to remove clone folder", "folder", targetFolder, "error", err)
		}
	}

	cloneCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	f.logger.Debug("starting repository fetch", "repository", info.Name, "cloneURL", rawURL, "targetFolder", targetFolder)
	_, err = git.PlainCloneContext(cloneCtx, targetFolder, false, &git.CloneOptions{
		Auth:     f.auth,
		URL:      rawURL,
		Progress: log.GetLoggerOutput(f.logger),
		Depth:    1,
	})
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("error occurred during clone of %q: %w", rawURL, err)
	}

	f.logger.Info("repository fetched", "repository", info.Name, "targetFolder", targetFolder)
	return targetFolder, cleanup, nil
}
