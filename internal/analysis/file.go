package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/triage"
)

// Output formats for FileTriage.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// FileResult is the CLI view of a batch: the report plus inputs that never
// became clips.
type FileResult struct {
	triage.Report
	Rejected []clip.Rejected `json:"rejected,omitempty"`
}

// ReadUploads reads the named files in order. Unreadable or oversized files
// are rejected instead of failing the batch; directories are rejected too.
func ReadUploads(paths []string, maxBytes int64) ([]clip.Upload, []clip.Rejected) {
	uploads := make([]clip.Upload, 0, len(paths))
	var rejected []clip.Rejected

	for _, path := range paths {
		name := filepath.Base(path)
		info, err := os.Stat(path)
		switch {
		case err != nil:
			rejected = append(rejected, clip.Rejected{Name: name, Reason: err.Error()})
			continue
		case info.IsDir():
			rejected = append(rejected, clip.Rejected{Name: name, Reason: "is a directory"})
			continue
		case maxBytes > 0 && info.Size() > maxBytes:
			rejected = append(rejected, clip.Rejected{Name: name, Reason: fmt.Sprintf("file exceeds %d bytes", maxBytes)})
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			rejected = append(rejected, clip.Rejected{Name: name, Reason: err.Error()})
			continue
		}
		uploads = append(uploads, clip.Upload{Name: path, Data: data})
	}

	return uploads, rejected
}

// FileTriage triages local audio files and writes the result to w.
func FileTriage(ctx context.Context, app *App, paths []string, format string, w io.Writer) error {
	maxBytes := int64(app.Settings.Audio.MaxUploadMB) << 20
	uploads, rejected := ReadUploads(paths, maxBytes)
	clips, invalid := clip.FromUploads(uploads)
	rejected = append(rejected, invalid...)

	for _, r := range rejected {
		GetLogger().Warn("input skipped", logger.String("file", r.Name), logger.String("reason", r.Reason))
	}

	result := FileResult{Report: app.Orchestrator.Triage(ctx, clips), Rejected: rejected}

	if app.Alerts != nil && len(result.Records) > 0 {
		sess := app.Sessions.Save(result.Report)
		if err := app.Alerts.PublishReport(ctx, sess.ID, result.Report); err != nil {
			GetLogger().Warn("alert publication failed", logger.Error(err))
		}
	}

	return WriteResult(w, result, format)
}

// WriteResult renders result as a table or JSON.
func WriteResult(w io.Writer, result FileResult, format string) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case FormatTable, "":
		return writeTable(w, result)
	default:
		return fmt.Errorf("unsupported output format %q, use %s or %s", format, FormatTable, FormatJSON)
	}
}

func writeTable(w io.Writer, result FileResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Operator\t%s\n\n", result.Operator)

	fmt.Fprintln(tw, "FILE\tPHONE\tLABEL\tKEYWORDS\tCALLER LOCATION")
	for _, r := range result.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.OriginName, r.Phone, r.Label.DisplayName(), strings.Join(r.Keywords, ", "), r.CallerLocation)
	}

	counts := result.Counts()
	fmt.Fprintf(tw, "\n%d clip(s): %d emergency, %d no match, %d transcription failed, %d rejected\n",
		len(result.Outcomes),
		counts[triage.OutcomeEmergency],
		counts[triage.OutcomeNoMatch],
		counts[triage.OutcomeTranscriptionFailed],
		len(result.Rejected))

	for _, o := range result.Outcomes {
		if o.Reason != "" {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", o.OriginName, o.Status, o.Reason)
		}
	}
	for _, r := range result.Rejected {
		fmt.Fprintf(tw, "  %s\trejected\t%s\n", r.Name, r.Reason)
	}

	return tw.Flush()
}
