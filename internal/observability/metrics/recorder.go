package metrics

// Recorder is the subset of TriageMetrics the orchestrator depends on, so
// tests can run without a registry.
type Recorder interface {
	// RecordClip counts one finished clip under its outcome label.
	RecordClip(outcome string)

	// RecordStage records how long a pipeline stage took and whether it succeeded.
	RecordStage(stage, status string, seconds float64)

	// RecordEmergency counts a detected emergency by voice label and its keyword hits.
	RecordEmergency(label string, keywords []string)

	// ClipStarted and ClipFinished bracket in-flight clip processing.
	ClipStarted()
	ClipFinished()
}

// NoOp discards everything.
type NoOp struct{}

func (NoOp) RecordClip(string)                   {}
func (NoOp) RecordStage(string, string, float64) {}
func (NoOp) RecordEmergency(string, []string)    {}
func (NoOp) ClipStarted()                        {}
func (NoOp) ClipFinished()                       {}

var (
	_ Recorder = NoOp{}
	_ Recorder = (*TriageMetrics)(nil)
)
