package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// StaticRecognizer returns fixed transcripts keyed by clip origin name. It
// backs offline demos and tests.
type StaticRecognizer struct {
	texts map[string]string
}

// NewStaticRecognizer indexes texts by lowercase base filename.
func NewStaticRecognizer(texts map[string]string) *StaticRecognizer {
	idx := make(map[string]string, len(texts))
	for name, text := range texts {
		idx[strings.ToLower(filepath.Base(name))] = text
	}
	return &StaticRecognizer{texts: idx}
}

// Name implements Recognizer.
func (s *StaticRecognizer) Name() string {
	return "static"
}

// Recognize implements Recognizer.
func (s *StaticRecognizer) Recognize(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := s.texts[strings.ToLower(filepath.Base(req.OriginName))]
	if !ok {
		return "", fmt.Errorf("no static transcript for %q", req.OriginName)
	}
	return text, nil
}
