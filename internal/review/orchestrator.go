// Package review drives the two-tier model analysis: a fast reviewer pass
// over every chunk and a stronger verifier pass on unresolved or disputed
// findings. Retry and escalation logic is an explicit per-chunk state machine
// so it stays testable independently of any model-serving client.
package review

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/repotriage/repotriage/internal/extract"
	"github.com/repotriage/repotriage/internal/findings"
	"github.com/repotriage/repotriage/internal/llm"
)

// State is the review state of a single chunk.
type State string

const (
	StatePending        State = "pending"
	StateReviewed       State = "reviewed"
	StateConfirmed      State = "confirmed"
	StateRejected       State = "rejected"
	StateEscalatedError State = "escalated-error"
)

// Verdict is the verifier's binary opinion on one disputed finding.
type Verdict struct {
	Span       findings.Span
	Category   findings.Category
	Confirmed  bool
	Confidence float64
}

// ChunkReview is the outcome of the model passes over one chunk.
type ChunkReview struct {
	FilePath   string
	Span       findings.Span
	State      State
	Candidates []findings.Candidate // reviewer-derived candidates
	Verdicts   []Verdict
	Warnings   []string
}

// Orchestrator coordinates reviewer and verifier calls for a whole scan.
// A single instance is shared across file workers: the semaphore caps
// concurrent model calls and the cache deduplicates identical chunks.
type Orchestrator struct {
	reviewer        llm.Provider
	verifier        llm.Provider
	threshold       float64 // reviewer confidence below this escalates to the verifier
	reviewerRetries int
	verifierRetries int
	backoff         time.Duration
	sem             chan struct{}
	logger          hclog.Logger

	mu     sync.Mutex
	cache  map[string][]reviewerFinding // chunk content hash -> reviewer outcome
	vcache map[string]verifierOutcome   // chunk hash + category + relative span -> verdict
}

// verifierOutcome is one cached verifier verdict, stored without the absolute
// span so it can be replayed for identical chunk content in another file.
type verifierOutcome struct {
	confirmed  bool
	confidence float64
}

// NewOrchestrator creates the orchestrator for one scan. The caches are scoped
// to the orchestrator and therefore to the scan; they are never reused across scans.
func NewOrchestrator(reviewer, verifier llm.Provider, threshold float64, modelThreads, reviewerRetries, verifierRetries int, logger hclog.Logger) *Orchestrator {
	if modelThreads < 1 {
		modelThreads = 1
	}
	if reviewerRetries < 0 {
		reviewerRetries = 0
	}
	if verifierRetries < 0 {
		verifierRetries = 0
	}
	return &Orchestrator{
		reviewer:        reviewer,
		verifier:        verifier,
		threshold:       threshold,
		reviewerRetries: reviewerRetries,
		verifierRetries: verifierRetries,
		backoff:         500 * time.Millisecond,
		sem:             make(chan struct{}, modelThreads),
		logger:          logger,
		cache:           make(map[string][]reviewerFinding),
		vcache:          make(map[string]verifierOutcome),
	}
}

// ReviewChunk runs the state machine for one chunk:
// pending -> reviewed -> {confirmed, rejected, escalated-error}.
// The returned error is non-nil only when the scan context was cancelled;
// every other failure degrades to a state plus warnings.
func (o *Orchestrator) ReviewChunk(ctx context.Context, chunk extract.Chunk, patternHits []findings.Candidate) (ChunkReview, error) {
	review := ChunkReview{
		FilePath: chunk.FilePath,
		Span:     chunk.Span,
		State:    StatePending,
	}

	parsed, warning, err := o.reviewerPass(ctx, chunk)
	if err != nil {
		if ctx.Err() != nil {
			return review, ctx.Err()
		}
		review.State = StateEscalatedError
		review.Warnings = append(review.Warnings, fmt.Sprintf("%s:%d-%d: reviewer pass failed after retries: %v",
			chunk.FilePath, chunk.Span.StartLine, chunk.Span.EndLine, err))
		return review, nil
	}
	review.State = StateReviewed
	if warning != "" {
		review.Warnings = append(review.Warnings, warning)
	}
	review.Candidates = materialize(chunk, parsed)

	disputed := o.selectDisputed(chunk, review.Candidates, patternHits)
	if len(disputed) == 0 {
		return review, nil
	}

	for _, candidate := range disputed {
		confirmed, confidence, err := o.verifierPass(ctx, chunk, candidate, patternHits)
		if err != nil {
			if ctx.Err() != nil {
				return review, ctx.Err()
			}
			review.State = StateEscalatedError
			review.Warnings = append(review.Warnings, fmt.Sprintf("%s:%d-%d: verifier pass failed after retries: %v",
				chunk.FilePath, candidate.Span.StartLine, candidate.Span.EndLine, err))
			continue
		}
		review.Verdicts = append(review.Verdicts, Verdict{
			Span:       candidate.Span,
			Category:   candidate.Category,
			Confirmed:  confirmed,
			Confidence: confidence,
		})
	}

	if review.State == StateEscalatedError {
		return review, nil
	}
	review.State = verdictState(review.Verdicts)
	return review, nil
}

// reviewerPass returns the reviewer outcome for a chunk, consulting the
// scan-scoped cache first so identical chunks hit the model boundary once.
// The warning return is set when a schema-invalid reply was downgraded to
// "no finding" after the repair retry.
func (o *Orchestrator) reviewerPass(ctx context.Context, chunk extract.Chunk) ([]reviewerFinding, string, error) {
	o.mu.Lock()
	cached, hit := o.cache[chunk.Hash]
	o.mu.Unlock()
	if hit {
		o.logger.Debug("review cache hit", "file", chunk.FilePath, "hash", chunk.Hash[:12])
		return cached, "", nil
	}

	chunkLines := chunk.Span.Lines()

	resp, err := o.complete(ctx, o.reviewer, o.reviewerRetries, llm.CompletionRequest{
		SystemPrompt: reviewerSystemPrompt,
		UserPrompt:   buildReviewerPrompt(chunk, false),
		Temperature:  0.1,
	})
	if err != nil {
		return nil, "", err
	}

	parsed, parseErr := parseReviewerResponse(resp.Content, chunkLines)
	if parseErr != nil {
		// One repair retry with a stricter instruction, then give up on the
		// reply rather than looping.
		o.logger.Warn("reviewer response failed schema validation, repairing", "file", chunk.FilePath, "error", parseErr)
		resp, err = o.complete(ctx, o.reviewer, o.reviewerRetries, llm.CompletionRequest{
			SystemPrompt: reviewerSystemPrompt,
			UserPrompt:   buildReviewerPrompt(chunk, true),
			Temperature:  0,
		})
		if err != nil {
			return nil, "", err
		}
		parsed, parseErr = parseReviewerResponse(resp.Content, chunkLines)
		if parseErr != nil {
			o.logger.Warn("reviewer repair retry still schema-invalid, treating as no finding", "file", chunk.FilePath, "error", parseErr)
			warning := fmt.Sprintf("%s:%d-%d: reviewer reply stayed schema-invalid, treated as no finding",
				chunk.FilePath, chunk.Span.StartLine, chunk.Span.EndLine)
			o.storeCache(chunk.Hash, nil)
			return nil, warning, nil
		}
	}

	o.storeCache(chunk.Hash, parsed)
	return parsed, "", nil
}

// verifierPass asks the verifier for a binary verdict on one disputed finding,
// consulting the scan-scoped verdict cache first so an identical dispute in an
// identical chunk hits the model boundary once per scan.
func (o *Orchestrator) verifierPass(ctx context.Context, chunk extract.Chunk, disputed findings.Candidate, patternHits []findings.Candidate) (bool, float64, error) {
	key := verdictKey(chunk, disputed)
	o.mu.Lock()
	cached, hit := o.vcache[key]
	o.mu.Unlock()
	if hit {
		o.logger.Debug("verdict cache hit", "file", chunk.FilePath, "category", disputed.Category)
		return cached.confirmed, cached.confidence, nil
	}

	resp, err := o.complete(ctx, o.verifier, o.verifierRetries, llm.CompletionRequest{
		SystemPrompt: verifierSystemPrompt,
		UserPrompt:   buildVerifierPrompt(chunk, disputed, patternHits),
		Temperature:  0,
	})
	if err != nil {
		return false, 0, err
	}

	confirmed, confidence, parseErr := parseVerifierResponse(resp.Content)
	if parseErr != nil {
		return false, 0, fmt.Errorf("%w: %v", llm.ErrMalformedResponse, parseErr)
	}

	o.mu.Lock()
	o.vcache[key] = verifierOutcome{confirmed: confirmed, confidence: confidence}
	o.mu.Unlock()
	return confirmed, confidence, nil
}

// verdictKey identifies one dispute independently of the file it occurred in:
// the chunk content hash plus the category and the chunk-relative span.
func verdictKey(chunk extract.Chunk, disputed findings.Candidate) string {
	relStart := disputed.Span.StartLine - chunk.Span.StartLine + 1
	relEnd := disputed.Span.EndLine - chunk.Span.StartLine + 1
	return fmt.Sprintf("%s:%s:%d-%d", chunk.Hash, disputed.Category, relStart, relEnd)
}

// complete executes one model call under the shared concurrency cap with a
// bounded retry/backoff loop. Each provider carries its own retry bound.
// Retried calls re-parse from scratch, so a retry can never double-count
// toward confidence.
func (o *Orchestrator) complete(ctx context.Context, provider llm.Provider, maxRetries int, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := o.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case o.sem <- struct{}{}:
		}
		resp, err := provider.Complete(ctx, req)
		<-o.sem

		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		o.logger.Warn("model call failed", "provider", provider.Name(), "attempt", attempt+1, "error", err)
	}
	return nil, lastErr
}

func (o *Orchestrator) storeCache(hash string, parsed []reviewerFinding) {
	o.mu.Lock()
	o.cache[hash] = parsed
	o.mu.Unlock()
}

// selectDisputed picks the candidates that need the verifier: reviewer
// findings below the confidence threshold, and pattern hits the reviewer
// stayed silent about (the two detectors disagree on that span).
func (o *Orchestrator) selectDisputed(chunk extract.Chunk, reviewerCandidates, patternHits []findings.Candidate) []findings.Candidate {
	var disputed []findings.Candidate

	for _, c := range reviewerCandidates {
		if c.Confidence < o.threshold {
			disputed = append(disputed, c)
		}
	}

	for _, hit := range patternHits {
		seen := false
		for _, c := range reviewerCandidates {
			if c.Category == hit.Category && c.Span.OverlapFraction(hit.Span) > 0 {
				seen = true
				break
			}
		}
		if !seen {
			disputed = append(disputed, hit)
		}
	}
	return disputed
}

// materialize turns chunk-relative reviewer findings into absolute candidates.
func materialize(chunk extract.Chunk, parsed []reviewerFinding) []findings.Candidate {
	var out []findings.Candidate
	for _, f := range parsed {
		line := chunk.Span.StartLine + f.Line - 1
		span := findings.Span{StartLine: line, EndLine: line}
		out = append(out, findings.Candidate{
			FilePath:   chunk.FilePath,
			Span:       span,
			Detector:   findings.DetectorReviewer,
			Category:   f.Category,
			Confidence: f.Confidence,
			Rationale:  f.Description,
			Excerpt:    strings.TrimSpace(chunk.Excerpt(span)),
		})
	}
	return out
}

// verdictState folds the verifier verdicts into the chunk state. Any
// confirmation wins over rejections; no verdicts leaves the chunk reviewed.
func verdictState(verdicts []Verdict) State {
	if len(verdicts) == 0 {
		return StateReviewed
	}
	for _, v := range verdicts {
		if v.Confirmed {
			return StateConfirmed
		}
	}
	return StateRejected
}
