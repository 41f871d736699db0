package metrics

// Pipeline stage labels.
const (
	StageTranscribe = "transcribe"
	StageExtract    = "extract"
	StageClassify   = "classify"
	StageClip       = "clip"
)

// Clip outcome labels, mirroring triage.OutcomeStatus values.
const (
	OutcomeEmergency           = "emergency"
	OutcomeNoMatch             = "no-match"
	OutcomeTranscriptionFailed = "transcription-failed"
)

// Status labels for operations.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)
