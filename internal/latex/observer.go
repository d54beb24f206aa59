package latex

import (
	"github.com/LinhMuks-DFox/Smart-Latex/internal/metrics"
)

// BuildObserver receives pipeline lifecycle notifications. Implementations
// must be fast; hooks run inline on the build path.
type BuildObserver interface {
	BuildStarted(plan Plan)
	PassFinished(rec PassRecord)
	BuildFinished(report *BuildReport)
}

// NoopObserver ignores all notifications.
type NoopObserver struct{}

func (NoopObserver) BuildStarted(Plan)          {}
func (NoopObserver) PassFinished(PassRecord)    {}
func (NoopObserver) BuildFinished(*BuildReport) {}

// recorderObserver bridges pipeline notifications to a metrics.Recorder.
type recorderObserver struct {
	rec metrics.Recorder
}

// NewRecorderObserver adapts a metrics recorder into a BuildObserver.
func NewRecorderObserver(rec metrics.Recorder) BuildObserver {
	if rec == nil {
		return NoopObserver{}
	}
	return recorderObserver{rec: rec}
}

func (o recorderObserver) BuildStarted(Plan) {}

func (o recorderObserver) PassFinished(rec PassRecord) {
	o.rec.IncPassResult(rec.Tool, metrics.ResultLabel(rec.Result))
	if rec.Result != string(metrics.ResultSkipped) {
		o.rec.ObservePassDuration(rec.Tool, rec.Duration)
	}
}

func (o recorderObserver) BuildFinished(report *BuildReport) {
	o.rec.ObserveBuildDuration(report.Duration())
	o.rec.IncBuildOutcome(string(report.Outcome))
}

// MultiObserver fans notifications out to several observers in order.
type MultiObserver []BuildObserver

func (m MultiObserver) BuildStarted(plan Plan) {
	for _, o := range m {
		o.BuildStarted(plan)
	}
}

func (m MultiObserver) PassFinished(rec PassRecord) {
	for _, o := range m {
		o.PassFinished(rec)
	}
}

func (m MultiObserver) BuildFinished(report *BuildReport) {
	for _, o := range m {
		o.BuildFinished(report)
	}
}
