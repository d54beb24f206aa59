package events

import "time"

// SourceChanged is emitted by the file watcher for every relevant filesystem
// event, before any debouncing.
type SourceChanged struct {
	Path      string
	Op        string
	ChangedAt time.Time
}

// BuildRequested indicates that a rebuild should happen soon. The debouncer
// coalesces bursts of these into a single BuildNow.
type BuildRequested struct {
	Reason      string // "source_changed", "scheduled", "manual"
	Path        string // triggering path, when known
	RequestedAt time.Time
}

// BuildNow is emitted by the Debouncer once it decides to start a build.
// The build controller is its sole consumer.
type BuildNow struct {
	TriggeredAt   time.Time
	RequestCount  int
	LastReason    string
	LastPath      string
	FirstRequest  time.Time
	LastRequest   time.Time
	DebounceCause string // "quiet" or "max_delay" or "after_running"
}

// BuildCompleted is emitted by the build controller after a build finishes,
// whatever the outcome. Status surfaces (SSE, NATS) subscribe to it.
type BuildCompleted struct {
	BuildID      string
	Outcome      string
	Entry        string
	Artifact     string
	ErrorCount   int
	WarningCount int
	Duration     time.Duration
	FinishedAt   time.Time
}
