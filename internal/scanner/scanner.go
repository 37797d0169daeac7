// Package scanner wires the whole analysis pipeline together: ingestion,
// chunking, pattern detection, the two-tier model review, reconciliation,
// severity scoring and report assembly. One Scanner instance runs one scan.
package scanner

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/deps"
	"github.com/repotriage/repotriage/internal/extract"
	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/progress"
	"github.com/repotriage/repotriage/internal/reconcile"
	"github.com/repotriage/repotriage/internal/report"
	"github.com/repotriage/repotriage/internal/repo"
	"github.com/repotriage/repotriage/internal/review"
	"github.com/repotriage/repotriage/internal/rules"
	"github.com/repotriage/repotriage/internal/severity"
	"github.com/repotriage/repotriage/pkg/shared/config"
)

// Scanner runs the analysis pipeline over one local source tree.
type Scanner struct {
	cfg          *config.Config
	logger       hclog.Logger
	chunker      *extract.Chunker
	detector     *rules.Detector
	orchestrator *review.Orchestrator
	reconciler   *reconcile.Reconciler
	reporter     progress.Reporter
}

// New assembles a Scanner from the validated configuration and the shared
// review orchestrator. The orchestrator is passed in, not built here, so its
// scan-scoped cache lifetime is visible to the caller.
func New(cfg *config.Config, orchestrator *review.Orchestrator, reporter progress.Reporter, logger hclog.Logger) *Scanner {
	if reporter == nil {
		reporter = progress.Nop()
	}
	return &Scanner{
		cfg:          cfg,
		logger:       logger,
		chunker:      extract.NewChunker(cfg.Scan.ChunkLines, cfg.Scan.ChunkOverlap),
		detector:     rules.NewDetector(logger.Named("rules")),
		orchestrator: orchestrator,
		reconciler:   reconcile.NewReconciler(cfg.Reconcile, logger.Named("reconcile")),
		reporter:     reporter,
	}
}

// fileResult is the outcome of analyzing one file. Results are collected per
// file index so the aggregate never depends on worker completion order.
type fileResult struct {
	findings  []findings.Reconciled
	warnings  []string
	cancelled bool
}

// Scan ingests the tree at root and runs the full pipeline. target is the
// user-facing name recorded in the report (a path or the original clone URL).
// Cancellation discards the partial results of unfinished files; files that
// completed before the cancellation are still reported.
func (s *Scanner) Scan(ctx context.Context, root, target string) (*report.Report, error) {
	scanID := uuid.New().String()
	s.logger.Info("scan started", "scanID", scanID, "target", target)

	s.reporter.Publish(progress.Event{Stage: progress.StageIngest})
	repository, err := repo.Ingest(root, s.cfg.Scan.MaxFileSize, s.logger.Named("ingest"))
	if err != nil {
		return nil, err
	}

	total := len(repository.Files)
	results := make([]fileResult, total)
	var processed, found int64

	s.reporter.Publish(progress.Event{Stage: progress.StageAnalyze, FilesTotal: total})

	threads := s.cfg.Scan.Threads
	if threads < 1 {
		threads = 1
	}
	guard := make(chan struct{}, threads)
	var wg sync.WaitGroup
	for i := range repository.Files {
		wg.Add(1)
		guard <- struct{}{}
		go func(index int, file *repo.File) {
			defer wg.Done()
			defer func() { <-guard }()

			results[index] = s.analyzeFile(ctx, file)

			done := atomic.AddInt64(&processed, 1)
			count := atomic.AddInt64(&found, int64(len(results[index].findings)))
			s.reporter.Publish(progress.Event{
				Stage:          progress.StageAnalyze,
				FilesProcessed: int(done),
				FilesTotal:     total,
				FindingsSoFar:  int(count),
				CurrentFile:    file.Path,
			})
		}(i, &repository.Files[i])
	}
	wg.Wait()

	var reconciled []findings.Reconciled
	var warnings []string
	analyzed := 0
	for i, r := range results {
		if r.cancelled {
			warnings = append(warnings, repository.Files[i].Path+": analysis cancelled, partial results discarded")
			continue
		}
		analyzed++
		reconciled = append(reconciled, r.findings...)
		warnings = append(warnings, r.warnings...)
	}

	s.reporter.Publish(progress.Event{Stage: progress.StageDeps, FilesProcessed: analyzed, FilesTotal: total})
	depFindings, depWarnings := s.auditDependencies(root)
	reconciled = append(reconciled, depFindings...)
	warnings = append(warnings, depWarnings...)

	s.reporter.Publish(progress.Event{Stage: progress.StageReport, FilesProcessed: analyzed, FilesTotal: total, FindingsSoFar: len(reconciled)})
	rep := report.Build(scanID, target, reconciled, repository.Skipped, warnings, analyzed)

	s.reporter.Publish(progress.Event{Stage: progress.StageComplete, FilesProcessed: analyzed, FilesTotal: total, FindingsSoFar: rep.Summary.TotalFindings})
	s.logger.Info("scan finished",
		"scanID", scanID,
		"files", analyzed,
		"findings", rep.Summary.TotalFindings,
		"score", rep.Summary.SecurityScore,
	)
	return rep, nil
}

// analyzeFile runs chunking, pattern detection, the model review and
// reconciliation for a single file. A context cancellation mid-file marks the
// whole file cancelled: no half-reviewed chunk set ever reaches the report.
func (s *Scanner) analyzeFile(ctx context.Context, file *repo.File) fileResult {
	if ctx.Err() != nil {
		return fileResult{cancelled: true}
	}

	var candidates []findings.Candidate
	var verdicts []review.Verdict
	var warnings []string

	for _, chunk := range s.chunker.Split(file) {
		patternHits := s.detector.Detect(chunk)
		candidates = append(candidates, patternHits...)

		chunkReview, err := s.orchestrator.ReviewChunk(ctx, chunk, patternHits)
		if err != nil {
			return fileResult{cancelled: true}
		}
		candidates = append(candidates, chunkReview.Candidates...)
		verdicts = append(verdicts, chunkReview.Verdicts...)
		warnings = append(warnings, chunkReview.Warnings...)
	}

	merged := s.reconciler.ReconcileFile(file.Path, candidates, verdicts)
	warnings = append(warnings, merged.Warnings...)

	out := make([]findings.Reconciled, 0, len(merged.Findings))
	for _, f := range merged.Findings {
		out = append(out, severity.Apply(f))
	}
	return fileResult{findings: out, warnings: warnings}
}

// auditDependencies runs the offline manifest audit. Dependency candidates
// come from a static advisory table, not from detector agreement, so they
// bypass the weighting pass and carry their table confidence directly.
func (s *Scanner) auditDependencies(root string) ([]findings.Reconciled, []string) {
	candidates, warnings := deps.Audit(root, s.logger.Named("deps"))

	out := make([]findings.Reconciled, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, severity.Apply(findings.Reconciled{
			FilePath:   c.FilePath,
			Span:       c.Span,
			Category:   c.Category,
			Confidence: c.Confidence,
			Detectors:  []findings.Detector{c.Detector},
			Rationale:  c.Rationale,
			Excerpt:    c.Excerpt,
		}))
	}
	return out, warnings
}
