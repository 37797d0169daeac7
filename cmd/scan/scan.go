package scan

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/repotriage/repotriage/internal/gitfetch"
	"github.com/repotriage/repotriage/internal/llm"
	"github.com/repotriage/repotriage/internal/progress"
	"github.com/repotriage/repotriage/internal/review"
	"github.com/repotriage/repotriage/internal/scanner"
	"github.com/repotriage/repotriage/pkg/shared/config"
	"github.com/repotriage/repotriage/pkg/shared/files"
	"github.com/repotriage/repotriage/pkg/shared/httpclient"
	"github.com/repotriage/repotriage/pkg/shared/logger"
)

// RunOptionsScan holds the arguments for the scan command.
type RunOptionsScan struct {
	RepoURL string
	SSHKey  string
	Output  string
	Format  string
	Threads int
}

var (
	AppConfig        *config.Config
	scanOptions      RunOptionsScan
	exampleScanUsage = `  # Scanning a local working copy
  repotriage scan ~/src/myservice

  # Scanning a remote repository over HTTPS
  repotriage scan --repo-url https://github.com/example/myservice

  # Scanning a private remote repository with an SSH key
  repotriage scan --repo-url ssh://git@github.com/example/myservice.git --ssh-key ~/.ssh/id_ed25519

  # Writing a SARIF report with 8 concurrent file workers
  repotriage scan -j 8 --format sarif --output myservice.sarif ~/src/myservice`
)

var ScanCmd = &cobra.Command{
	Use:                   "scan [--repo-url URL [--ssh-key/-k PATH] | PATH] [--output/-o PATH] [--format/-f json|sarif] [-j THREADS_NUMBER]",
	SilenceUsage:          true,
	DisableFlagsInUseLine: true,
	Example:               exampleScanUsage,
	Short:                 "Runs the security analysis pipeline over a repository",
	RunE:                  runScanCommand,
}

// Init initializes the global configuration variable.
func Init(cfg *config.Config) {
	AppConfig = cfg
}

// runScanCommand executes the scan command.
func runScanCommand(cmd *cobra.Command, args []string) error {
	logger := logger.NewLogger(AppConfig, "core-scan")

	if err := validateScanArgs(&scanOptions, args); err != nil {
		logger.Error("invalid scan arguments", "error", err)
		return err
	}
	if scanOptions.Threads > 0 {
		AppConfig.Scan.Threads = scanOptions.Threads
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := progress.NewLogReporter(logger)

	root, target, cleanup, err := resolveTarget(ctx, args, logger, reporter)
	if err != nil {
		logger.Error("failed to resolve scan target", "error", err)
		return err
	}
	defer cleanup()

	restyClient := httpclient.InitializeRestyClient(logger.Named("http"), AppConfig)
	reviewer := llm.NewOllamaClient(restyClient, "reviewer", AppConfig.Models.Reviewer)
	verifier := llm.NewOllamaClient(restyClient, "verifier", AppConfig.Models.Verifier)
	for _, provider := range []llm.Provider{reviewer, verifier} {
		if err := provider.Validate(); err != nil {
			logger.Error("model endpoint misconfigured", "error", err)
			return err
		}
	}

	orchestrator := review.NewOrchestrator(
		reviewer,
		verifier,
		AppConfig.Scan.ReviewThreshold,
		AppConfig.Scan.ModelThreads,
		AppConfig.Models.Reviewer.MaxRetries,
		AppConfig.Models.Verifier.MaxRetries,
		logger.Named("review"),
	)

	s := scanner.New(AppConfig, orchestrator, reporter, logger)
	rep, err := s.Scan(ctx, root, target)
	if err != nil {
		logger.Error("scan failed", "error", err)
		return err
	}

	output := scanOptions.Output
	if output == "" {
		output = "repotriage-report." + scanOptions.Format
	}
	if err := files.CreateFolderIfNotExists(filepath.Dir(output)); err != nil {
		logger.Error("failed to prepare report folder", "error", err)
		return err
	}
	switch scanOptions.Format {
	case "sarif":
		err = rep.WriteSarif(output)
	default:
		err = rep.WriteJSON(output)
	}
	if err != nil {
		logger.Error("failed to write report", "error", err)
		return err
	}

	logger.Info("scan command completed successfully",
		"report", output,
		"findings", rep.Summary.TotalFindings,
		"score", rep.Summary.SecurityScore,
	)
	return nil
}

// resolveTarget turns the command input into a local directory to scan: a
// validated local path, or a freshly cloned temporary copy of a remote URL.
// The returned cleanup removes the temporary clone and is a no-op for local paths.
func resolveTarget(ctx context.Context, args []string, log hclog.Logger, reporter progress.Reporter) (root, target string, cleanup func(), err error) {
	if scanOptions.RepoURL == "" {
		root, err = validateLocalRoot(args[0])
		if err != nil {
			return "", "", nil, err
		}
		return root, args[0], func() {}, nil
	}

	reporter.Publish(progress.Event{Stage: progress.StageFetch})

	var opts []gitfetch.Option
	if scanOptions.SSHKey != "" {
		opts = append(opts, gitfetch.WithSSHKey(scanOptions.SSHKey, ""))
	}
	fetcher, err := gitfetch.New(log.Named("fetch"), AppConfig.Scan.GitTimeout, opts...)
	if err != nil {
		return "", "", nil, err
	}
	root, cleanup, err = fetcher.Fetch(ctx, scanOptions.RepoURL)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to fetch %q: %w", scanOptions.RepoURL, err)
	}
	return root, scanOptions.RepoURL, cleanup, nil
}

func init() {
	ScanCmd.Flags().StringVar(&scanOptions.RepoURL, "repo-url", "", "Remote repository URL to clone and scan instead of a local PATH.")
	ScanCmd.Flags().StringVarP(&scanOptions.SSHKey, "ssh-key", "k", "", "Path to an SSH key for cloning private repositories.")
	ScanCmd.Flags().StringVarP(&scanOptions.Output, "output", "o", "", "Path of the report to write (default: repotriage-report.<format>).")
	ScanCmd.Flags().StringVarP(&scanOptions.Format, "format", "f", "json", "Report format: json or sarif.")
	ScanCmd.Flags().IntVarP(&scanOptions.Threads, "threads", "j", 0, "Number of concurrent file workers (default from config).")
	ScanCmd.Flags().BoolP("help", "h", false, "Show help for the scan command.")
}
