package scan

import (
	"fmt"

	"github.com/repotriage/repotriage/pkg/shared/files"
)

// validateScanArgs checks the mutually exclusive target forms and flag values
// before any work starts.
func validateScanArgs(opts *RunOptionsScan, args []string) error {
	if opts.RepoURL == "" && len(args) == 0 {
		return fmt.Errorf("either a local PATH argument or --repo-url must be provided")
	}
	if opts.RepoURL != "" && len(args) > 0 {
		return fmt.Errorf("a local PATH argument and --repo-url are mutually exclusive")
	}
	if len(args) > 1 {
		return fmt.Errorf("expected a single PATH argument, got %d", len(args))
	}
	if opts.SSHKey != "" && opts.RepoURL == "" {
		return fmt.Errorf("--ssh-key is only valid together with --repo-url")
	}
	if opts.Threads < 0 {
		return fmt.Errorf("threads number must be positive: %d", opts.Threads)
	}
	switch opts.Format {
	case "json", "sarif":
	default:
		return fmt.Errorf("unsupported report format %q: use json or sarif", opts.Format)
	}
	return nil
}

// validateLocalRoot expands and checks a local scan target.
func validateLocalRoot(path string) (string, error) {
	expanded, err := files.ExpandPath(path)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", path, err)
	}
	if err := files.ValidateDirPath(expanded); err != nil {
		return "", fmt.Errorf("invalid scan target %q: %w", path, err)
	}
	return expanded, nil
}
