// Package httpasr is a transcribe.Recognizer for self-hosted Whisper-style
// servers exposing POST /transcribe with a multipart "file" field.
package httpasr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/httpclient"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/transcribe"
)

// maxErrorBody caps how much of an error response is quoted.
const maxErrorBody = 512

// Segment is one timed piece of a transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Response accepts both flat and segmented server replies.
type Response struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`
}

// Transcript returns Text, or the joined segment texts when Text is empty.
func (r *Response) Transcript() string {
	if t := strings.TrimSpace(r.Text); t != "" {
		return t
	}
	parts := make([]string, 0, len(r.Segments))
	for _, s := range r.Segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// Recognizer uploads clips as 16-bit WAV.
type Recognizer struct {
	baseURL  string
	language string
	client   *httpclient.Client
}

// New returns a Recognizer for the server at baseURL.
func New(baseURL, language string, client *httpclient.Client) *Recognizer {
	if client == nil {
		client = httpclient.New(nil)
	}
	return &Recognizer{
		baseURL:  strings.TrimRight(baseURL, "/"),
		language: language,
		client:   client,
	}
}

// Name implements transcribe.Recognizer.
func (r *Recognizer) Name() string {
	return "http"
}

// Recognize implements transcribe.Recognizer.
func (r *Recognizer) Recognize(ctx context.Context, req transcribe.Request) (string, error) {
	if req.PCM == nil || len(req.PCM.Samples) == 0 {
		return "", nil
	}

	wavData, err := myaudio.WAVBytes(req.PCM)
	if err != nil {
		return "", fmt.Errorf("asr encode: %w", err)
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("file", req.ClipID+".wav")
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(wavData); err != nil {
		return "", err
	}
	if r.language != "" {
		if err := w.WriteField("language", languageBase(r.language)); err != nil {
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	resp, err := r.client.Post(ctx, r.baseURL+"/transcribe", w.FormDataContentType(), body.Bytes())
	if err != nil {
		return "", r.requestError(ctx, fmt.Errorf("asr request: %w", err), errors.CategoryNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		err := fmt.Errorf("asr %s: %s", resp.Status, strings.TrimSpace(string(msg)))
		return "", r.requestError(ctx, err, errors.CategoryHTTP)
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("asr decode: %w", err)
	}
	return out.Transcript(), nil
}

func (r *Recognizer) requestError(ctx context.Context, err error, category errors.ErrorCategory) error {
	var remaining time.Duration
	if deadline, ok := ctx.Deadline(); ok {
		remaining = time.Until(deadline)
	}
	return errors.New(err).
		Component("transcribe").
		Category(category).
		NetworkContext(r.baseURL, remaining).
		Context("backend", r.Name()).
		Build()
}

// languageBase turns "en-US" into "en", the form Whisper servers expect.
func languageBase(tag string) string {
	base, _, _ := strings.Cut(tag, "-")
	return strings.ToLower(base)
}
