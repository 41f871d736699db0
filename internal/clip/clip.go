// Package clip defines the uploaded audio unit that flows through triage and
// the scratch store that keeps clips available for playback.
package clip

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/harkveil/harkveil/internal/errors"
)

// Format is a lowercase container extension without the dot.
type Format string

const (
	FormatMP3  Format = "mp3"
	FormatWAV  Format = "wav"
	FormatM4A  Format = "m4a"
	FormatMP4  Format = "mp4"
	FormatFLAC Format = "flac"
)

// allowedFormats is the upload allow-list.
var allowedFormats = map[Format]struct{}{
	FormatMP3:  {},
	FormatWAV:  {},
	FormatM4A:  {},
	FormatMP4:  {},
	FormatFLAC: {},
}

// ErrUnsupportedFormat is returned for filenames outside the allow-list.
var ErrUnsupportedFormat = errors.NewStd("unsupported clip format")

// ErrEmptyClip is returned for uploads without content.
var ErrEmptyClip = errors.NewStd("clip is empty")

// MIMEType returns the content type used when serving a clip back.
func (f Format) MIMEType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatWAV:
		return "audio/wav"
	case FormatM4A:
		return "audio/mp4"
	case FormatMP4:
		return "video/mp4"
	case FormatFLAC:
		return "audio/flac"
	default:
		return "application/octet-stream"
	}
}

// ParseFormat extracts and validates the format from a filename.
func ParseFormat(filename string) (Format, error) {
	ext := Format(strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")))
	if _, ok := allowedFormats[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	return ext, nil
}

// IsAllowed reports whether filename has an allow-listed extension.
func IsAllowed(filename string) bool {
	_, err := ParseFormat(filename)
	return err == nil
}

// AudioClip is one uploaded recording. It is not modified after creation.
type AudioClip struct {
	ID         string // uuid hex, opaque
	Data       []byte
	Format     Format
	OriginName string // caller-supplied filename, untrusted
	Path       string // scratch file when stored, empty otherwise
}

// New validates the upload and assigns a fresh identifier.
func New(originName string, data []byte) (AudioClip, error) {
	format, err := ParseFormat(originName)
	if err != nil {
		return AudioClip{}, err
	}
	if len(data) == 0 {
		return AudioClip{}, fmt.Errorf("%w: %s", ErrEmptyClip, filepath.Base(originName))
	}

	return AudioClip{
		ID:         NewID(),
		Data:       data,
		Format:     format,
		OriginName: filepath.Base(originName),
	}, nil
}

// NewID returns a 32-character hex identifier.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// FileName is the scratch file name: the id followed by the format extension.
func (c AudioClip) FileName() string {
	return c.ID + "." + string(c.Format)
}

// Upload is raw multipart or CLI input before validation.
type Upload struct {
	Name string
	Data []byte
}

// Rejected records an upload that was filtered out and why.
type Rejected struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// FromUploads builds clips from the allow-listed uploads, keeping input order.
// Unsupported or empty uploads are returned separately instead of failing the batch.
func FromUploads(uploads []Upload) ([]AudioClip, []Rejected) {
	clips := make([]AudioClip, 0, len(uploads))
	var rejected []Rejected

	for _, u := range uploads {
		c, err := New(u.Name, u.Data)
		if err != nil {
			rejected = append(rejected, Rejected{Name: filepath.Base(u.Name), Reason: err.Error()})
			continue
		}
		clips = append(clips, c)
	}

	return clips, rejected
}
