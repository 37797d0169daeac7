// Package progress carries coarse-grained scan progress events to whatever
// front end is listening. Events are advisory: dropping them never affects
// scan correctness.
package progress

import (
	"github.com/hashicorp/go-hclog"
)

// Stage identifies the pipeline phase an event belongs to.
type Stage string

const (
	StageFetch    Stage = "fetch"
	StageIngest   Stage = "ingest"
	StageAnalyze  Stage = "analyze"
	StageDeps     Stage = "dependency-audit"
	StageReport   Stage = "report"
	StageComplete Stage = "complete"
)

// Event is one progress notification.
type Event struct {
	Stage          Stage  `json:"stage"`
	FilesProcessed int    `json:"files_processed"`
	FilesTotal     int    `json:"files_total"`
	FindingsSoFar  int    `json:"findings_so_far"`
	CurrentFile    string `json:"current_file,omitempty"`
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use: file workers publish in parallel.
type Reporter interface {
	Publish(Event)
}

// ReporterFunc adapts a plain function to the Reporter interface.
type ReporterFunc func(Event)

func (f ReporterFunc) Publish(e Event) { f(e) }

// NewLogReporter returns a Reporter that mirrors events onto the logger.
func NewLogReporter(logger hclog.Logger) Reporter {
	return ReporterFunc(func(e Event) {
		logger.Info("scan progress",
			"stage", e.Stage,
			"files", e.FilesProcessed,
			"total", e.FilesTotal,
			"findings", e.FindingsSoFar,
		)
	})
}

// Nop returns a Reporter that discards every event.
func Nop() Reporter {
	return ReporterFunc(func(Event) {})
}
