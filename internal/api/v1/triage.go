package v1

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harkveil/harkveil/internal/api/middleware"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/observability/metrics"
	"github.com/harkveil/harkveil/internal/triage"
)

// UploadField is the multipart field carrying the audio files.
const UploadField = "audio_files"

// TriageResponse is returned by POST /api/v1/triage.
type TriageResponse struct {
	SessionID string                   `json:"session_id"`
	Operator  geo.Point                `json:"operator"`
	Records   []triage.EmergencyRecord `json:"records"`
	Outcomes  []triage.ClipOutcome     `json:"outcomes"`
	Rejected  []clip.Rejected          `json:"rejected,omitempty"`
}

// TriageUpload accepts a batch of audio files, triages them and stores the
// report as a session for the trace step. Files outside the allow-list are
// reported as rejected; an empty batch yields an empty report.
func (c *Controller) TriageUpload(ctx echo.Context) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return c.HandleError(ctx, err, "Expected a multipart form", http.StatusBadRequest)
	}

	uploads, rejected := c.readUploads(form.File[UploadField])
	clips, invalid := clip.FromUploads(uploads)
	rejected = append(rejected, invalid...)
	c.countRejected(metrics.RejectInvalidFile, len(invalid))
	if c.deps.HTTPMetrics != nil {
		for _, cl := range clips {
			c.deps.HTTPMetrics.ObserveUpload(len(cl.Data))
		}
	}

	// Stored copies back playback; a failed save only loses playback.
	stored := make([]clip.AudioClip, 0, len(clips))
	for _, cl := range clips {
		saved, err := c.deps.Clips.Save(cl)
		if err != nil {
			c.log.Warn("failed to store clip", logger.ClipID(cl.ID), logger.Error(err))
			saved = cl
		}
		stored = append(stored, saved)
	}

	report := c.deps.Triager.Triage(ctx.Request().Context(), stored)
	sess := c.deps.Sessions.Save(report)

	c.publishAlerts(sess.ID, report)

	c.log.Info("triage request complete",
		logger.SessionID(sess.ID),
		logger.Int("clips", len(stored)),
		logger.Int("rejected", len(rejected)),
		logger.Int("emergencies", len(report.Records)))

	ctx.Response().Header().Set(middleware.HeaderSessionID, sess.ID)
	return ctx.JSON(http.StatusOK, TriageResponse{
		SessionID: sess.ID,
		Operator:  report.Operator,
		Records:   report.Records,
		Outcomes:  report.Outcomes,
		Rejected:  rejected,
	})
}

// readUploads reads every file part, skipping oversized or unreadable ones.
func (c *Controller) readUploads(files []*multipart.FileHeader) ([]clip.Upload, []clip.Rejected) {
	uploads := make([]clip.Upload, 0, len(files))
	var rejected []clip.Rejected

	for _, fh := range files {
		if fh.Size > c.deps.MaxUploadBytes {
			c.countRejected(metrics.RejectTooLarge, 1)
			rejected = append(rejected, clip.Rejected{
				Name:   fh.Filename,
				Reason: fmt.Sprintf("file exceeds %d bytes", c.deps.MaxUploadBytes),
			})
			continue
		}

		data, err := readPart(fh)
		if err != nil {
			c.countRejected(metrics.RejectUnreadable, 1)
			rejected = append(rejected, clip.Rejected{Name: fh.Filename, Reason: err.Error()})
			continue
		}
		uploads = append(uploads, clip.Upload{Name: fh.Filename, Data: data})
	}

	return uploads, rejected
}

func (c *Controller) countRejected(reason string, n int) {
	if c.deps.HTTPMetrics == nil {
		return
	}
	for range n {
		c.deps.HTTPMetrics.RecordUploadRejected(reason)
	}
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// publishAlerts sends the report to the alert publisher in the background so
// a slow broker does not delay the response.
func (c *Controller) publishAlerts(sessionID string, report triage.Report) {
	if c.deps.Alerts == nil || len(report.Records) == 0 {
		return
	}

	c.wg.Go(func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.deps.AlertTimeout)
		defer cancel()
		if err := c.deps.Alerts.PublishReport(ctx, sessionID, report); err != nil {
			c.log.Warn("alert publication failed", logger.SessionID(sessionID), logger.Error(err))
		}
	})
}
