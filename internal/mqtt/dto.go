package mqtt

import (
	"time"

	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/triage"
)

// AlertDTO is the payload published for each emergency record.
//
// Field names are part of the alert contract consumed by dispatch consoles.
type AlertDTO struct {
	ClipID     string    `json:"clipId"`
	SessionID  string    `json:"sessionId,omitempty"`
	OriginName string    `json:"originName"`
	Keywords   []string  `json:"keywords"`
	Label      string    `json:"label"`
	LabelText  string    `json:"labelText"`
	Phone      string    `json:"phone"`
	Caller     geo.Point `json:"caller"`
	Operator   geo.Point `json:"operator"`
	DistanceKm float64   `json:"distanceKm"`
	DetectedAt string    `json:"detectedAt"` // RFC3339 UTC
	AudioPath  string    `json:"audioPath,omitempty"`
}

// NewAlertDTO builds the alert payload for one record.
func NewAlertDTO(sessionID string, operator geo.Point, r *triage.EmergencyRecord) *AlertDTO {
	return &AlertDTO{
		ClipID:     r.ClipID,
		SessionID:  sessionID,
		OriginName: r.OriginName,
		Keywords:   r.Keywords,
		Label:      string(r.Label),
		LabelText:  r.Label.DisplayName(),
		Phone:      r.Phone,
		Caller:     r.CallerLocation,
		Operator:   operator,
		DistanceKm: geo.DistanceKm(operator, r.CallerLocation),
		DetectedAt: r.DetectedAt.UTC().Format(time.RFC3339),
	}
}

// SetAudioPath sets the relative URL the clip can be fetched from.
func (dto *AlertDTO) SetAudioPath(path string) {
	dto.AudioPath = path
}
