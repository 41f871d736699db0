// Package analysis wires configuration into a ready triage pipeline and
// drives it from the command line or the HTTP server.
package analysis

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/harkveil/harkveil/internal/classifier"
	"github.com/harkveil/harkveil/internal/clip"
	"github.com/harkveil/harkveil/internal/conf"
	"github.com/harkveil/harkveil/internal/errors"
	"github.com/harkveil/harkveil/internal/features"
	"github.com/harkveil/harkveil/internal/geo"
	"github.com/harkveil/harkveil/internal/httpclient"
	"github.com/harkveil/harkveil/internal/keyword"
	"github.com/harkveil/harkveil/internal/logger"
	"github.com/harkveil/harkveil/internal/mqtt"
	"github.com/harkveil/harkveil/internal/myaudio"
	"github.com/harkveil/harkveil/internal/observability"
	"github.com/harkveil/harkveil/internal/secrets"
	"github.com/harkveil/harkveil/internal/session"
	"github.com/harkveil/harkveil/internal/transcribe"
	"github.com/harkveil/harkveil/internal/transcribe/googlespeech"
	"github.com/harkveil/harkveil/internal/transcribe/httpasr"
	"github.com/harkveil/harkveil/internal/triage"
)

// App holds the long-lived components built from Settings.
type App struct {
	Settings     *conf.Settings
	Metrics      *observability.Metrics
	Orchestrator *triage.Orchestrator
	Transcriber  *transcribe.Transcriber
	Classifier   *classifier.Classifier
	Lexicon      *keyword.Lexicon
	Locator      *geo.Simulator
	Clips        *clip.Store
	Sessions     *session.Store
	Alerts       *mqtt.Publisher // nil unless alert.enabled

	closers []func()
}

// NewApp loads the classifier and lexicon, selects the transcription backend
// and builds the orchestrator. Startup fails on an unreadable classifier
// artifact or lexicon; everything after that degrades per clip.
func NewApp(ctx context.Context, settings *conf.Settings) (*App, error) {
	start := time.Now()
	app := &App{Settings: settings}
	built := false
	defer func() {
		if !built {
			app.Close()
		}
	}()

	var err error

	if app.Metrics, err = observability.NewMetrics(); err != nil {
		return nil, err
	}

	if app.Classifier, err = classifier.Load(settings.Classifier.ModelPath, settings.Classifier.Threads); err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.Classifier.Close)

	if app.Lexicon, err = keyword.LoadLexicon(settings.Lexicon.Path); err != nil {
		return nil, err
	}

	decoder := myaudio.NewDecoder(settings.Audio.FfmpegPath)

	recognizer, err := app.newRecognizer(ctx, settings)
	if err != nil {
		return nil, err
	}
	app.Transcriber = transcribe.New(decoder, recognizer)

	operator := geo.Point{Latitude: settings.Geo.OperatorLatitude, Longitude: settings.Geo.OperatorLongitude}
	if settings.Geo.Seed != 0 {
		app.Locator = geo.NewSeededSimulator(operator, settings.Geo.RadiusKm, settings.Geo.Seed)
	} else {
		app.Locator = geo.NewSimulator(operator, settings.Geo.RadiusKm, nil)
	}

	app.Orchestrator, err = triage.New(
		app.Transcriber,
		features.NewExtractor(decoder),
		app.Classifier,
		app.Locator,
		app.Lexicon,
		triage.Config{
			Concurrency: settings.EffectiveConcurrency(),
			ClipTimeout: settings.Triage.ClipTimeout,
			Metrics:     app.Metrics.Triage,
		},
	)
	if err != nil {
		return nil, err
	}

	if app.Clips, err = clip.NewStore(settings.Audio.ScratchDir, nil); err != nil {
		return nil, err
	}
	app.Sessions = session.NewStore(settings.WebServer.SessionTTL)

	if settings.Alert.Enabled {
		if err := app.initAlerts(settings); err != nil {
			return nil, err
		}
	}

	GetLogger().Info("triage pipeline ready",
		logger.String("transcriber", recognizer.Name()),
		logger.Int("lexicon_phrases", app.Lexicon.Len()),
		logger.Int("embedding_dim", app.Classifier.Dim()),
		logger.Int("concurrency", settings.EffectiveConcurrency()),
		logger.Bool("alerts", app.Alerts != nil),
		logger.Duration("elapsed", time.Since(start)))

	built = true
	return app, nil
}

// newRecognizer builds the configured speech-to-text backend.
func (app *App) newRecognizer(ctx context.Context, settings *conf.Settings) (transcribe.Recognizer, error) {
	t := settings.Transcriber

	switch t.Backend {
	case conf.BackendGoogle:
		r, err := googlespeech.New(ctx, googlespeech.Config{
			CredentialsFile: t.Google.CredentialsFile,
			LanguageCode:    t.Language,
			Model:           t.Google.Model,
			UseEnhanced:     t.Google.UseEnhanced,
		})
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func() { _ = r.Close() })
		return r, nil

	case conf.BackendHTTP:
		cfg := httpclient.DefaultConfig()
		if t.HTTP.Timeout > 0 {
			cfg.DefaultTimeout = t.HTTP.Timeout
		}
		client := httpclient.New(&cfg)
		client.SetRequestObserver(func(req *http.Request, resp *http.Response, err error, elapsed time.Duration) {
			code := 0
			if resp != nil {
				code = resp.StatusCode
			}
			app.Metrics.HTTP.RecordOutboundRequest(req.URL.Host, code, err, elapsed.Seconds())
		})
		app.closers = append(app.closers, client.Close)
		return httpasr.New(t.HTTP.URL, t.Language, client), nil

	case conf.BackendStatic:
		texts := make(map[string]string, len(t.Static))
		for _, s := range t.Static {
			texts[s.Name] = s.Text
		}
		return transcribe.NewStaticRecognizer(texts), nil

	default:
		return nil, errors.Newf("unknown transcriber backend %q", t.Backend).
			Component("analysis").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

func (app *App) initAlerts(settings *conf.Settings) error {
	cfg := mqtt.DefaultConfig()
	cfg.Broker = settings.Alert.Broker
	cfg.ClientID = settings.Alert.ClientID
	cfg.Username = settings.Alert.Username
	password, err := secrets.Resolve(settings.Alert.PasswordFile, settings.Alert.Password)
	if err != nil {
		return fmt.Errorf("failed to resolve alert password: %w", err)
	}
	cfg.Password = password
	cfg.Retain = settings.Alert.Retain
	if settings.Alert.Topic != "" {
		cfg.Topic = settings.Alert.Topic
	}

	client, err := mqtt.NewClient(cfg, app.Metrics.Alert)
	if err != nil {
		return fmt.Errorf("failed to create alert client: %w", err)
	}
	app.Alerts = mqtt.NewPublisher(client, cfg.Topic)
	app.closers = append(app.closers, app.Alerts.Close)
	return nil
}

// Close releases backend clients and models in reverse order of creation.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		app.closers[i]()
	}
	app.closers = nil
}

// GetLogger returns the analysis module logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("analysis")
}
