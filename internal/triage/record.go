package triage

import (
	"time"

	"github.com/harkveil/harkveil/internal/classifier"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/geo"
)

// EmergencyRecord is the triage result for one clip whose transcript matched
// the lexicon. It round-trips through JSON field for field.
type EmergencyRecord struct {
	ClipID         string           `json:"clip_id"`
	OriginName     string           `json:"origin_name"`
	Format         clip.Format      `json:"format"`
	Keywords       []string         `json:"keywords"`
	Label          classifier.Label `json:"label"`
	Phone          string           `json:"phone"`
	CallerLocation geo.Point        `json:"caller_location"`
	DetectedAt     time.Time        `json:"detected_at"`
}

// AudioFile is the scratch file name the clip is served under.
func (r EmergencyRecord) AudioFile() string {
	return r.ClipID + "." + string(r.Format)
}

// OutcomeStatus summarizes what happened to one input clip.
type OutcomeStatus string

const (
	OutcomeEmergency           OutcomeStatus = "emergency"
	OutcomeNoMatch             OutcomeStatus = "no-match"
	OutcomeTranscriptionFailed OutcomeStatus = "transcription-failed"
)

// ExtractionStatus reports the feature extraction stage for emergencies.
type ExtractionStatus string

const (
	ExtractionOK      ExtractionStatus = "ok"
	ExtractionFailed  ExtractionStatus = "failed"
	ExtractionSkipped ExtractionStatus = "skipped" // clip was not an emergency
)

// ClipOutcome is reported for every input clip, emergency or not.
type ClipOutcome struct {
	ClipID     string           `json:"clip_id"`
	OriginName string           `json:"origin_name"`
	Status     OutcomeStatus    `json:"status"`
	Extraction ExtractionStatus `json:"extraction"`
	Reason     string           `json:"reason,omitempty"`
}

// Report is the result of one triage batch. Records hold emergencies only;
// Outcomes hold one entry per input clip. Both follow input order.
type Report struct {
	Operator geo.Point         `json:"operator"`
	Records  []EmergencyRecord `json:"records"`
	Outcomes []ClipOutcome     `json:"outcomes"`
}

// Counts tallies outcomes by status.
func (r Report) Counts() map[OutcomeStatus]int {
	counts := make(map[OutcomeStatus]int, 3)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}
