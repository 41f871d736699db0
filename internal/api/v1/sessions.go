package v1

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/harkveil/harkveil/internal/api/middleware"
	"github.com/harkveil/harkveil/internal/classifier"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/session"
)

// maxTraceBody bounds POST /api/v1/trace bodies.
const maxTraceBody = 8 << 20

// GetSession returns a stored session as serialized by session.Encode.
func (c *Controller) GetSession(ctx echo.Context) error {
	sess, err := c.deps.Sessions.Get(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Session not found", statusFor(err))
	}

	data, err := session.Encode(sess)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to encode session", http.StatusInternalServerError)
	}
	ctx.Response().Header().Set(middleware.HeaderSessionID, sess.ID)
	return ctx.JSONBlob(http.StatusOK, data)
}

// CallerMarker is one emergency placed on the trace map.
type CallerMarker struct {
	ClipID     string           `json:"clip_id"`
	Phone      string           `json:"phone"`
	Keywords   []string         `json:"keywords"`
	Label      classifier.Label `json:"label"`
	LabelText  string           `json:"label_text"`
	Location   geo.Point        `json:"location"`
	DistanceKm float64          `json:"distance_km"`
	AudioURL   string           `json:"audio_url"`
}

// TraceResponse carries what a map view needs to plot a session.
type TraceResponse struct {
	SessionID string         `json:"session_id"`
	Operator  geo.Point      `json:"operator"`
	Callers   []CallerMarker `json:"callers"`
}

// NewTraceResponse builds the map markers for a session.
func NewTraceResponse(sess *session.Session) TraceResponse {
	resp := TraceResponse{
		SessionID: sess.ID,
		Operator:  sess.Report.Operator,
		Callers:   make([]CallerMarker, 0, len(sess.Report.Records)),
	}
	for _, r := range sess.Report.Records {
		resp.Callers = append(resp.Callers, CallerMarker{
			ClipID:     r.ClipID,
			Phone:      r.Phone,
			Keywords:   r.Keywords,
			Label:      r.Label,
			LabelText:  r.Label.DisplayName(),
			Location:   r.CallerLocation,
			DistanceKm: geo.DistanceKm(sess.Report.Operator, r.CallerLocation),
			AudioURL:   "/api/v1/clips/" + r.ClipID,
		})
	}
	return resp
}

// TraceSession renders the trace view from the server-side session store.
func (c *Controller) TraceSession(ctx echo.Context) error {
	sess, err := c.deps.Sessions.Get(ctx.Param("id"))
	if err != nil {
		return c.HandleError(ctx, err, "Session not found", statusFor(err))
	}
	ctx.Response().Header().Set(middleware.HeaderSessionID, sess.ID)
	return ctx.JSON(http.StatusOK, NewTraceResponse(sess))
}

// TraceUpload renders the trace view from a client-held serialized session,
// the second step of the detect-then-trace flow.
func (c *Controller) TraceUpload(ctx echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(ctx.Request().Body, maxTraceBody))
	if err != nil {
		return c.HandleError(ctx, err, "Failed to read request body", http.StatusBadRequest)
	}

	sess, err := session.Decode(body)
	if err != nil {
		return c.HandleError(ctx, err, "Invalid session payload", http.StatusBadRequest)
	}
	return ctx.JSON(http.StatusOK, NewTraceResponse(sess))
}
