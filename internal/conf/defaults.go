// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Default operator position and spoofing radius used by the geolocation simulator.
const (
	DefaultOperatorLatitude  = 16.485475
	DefaultOperatorLongitude = 80.691727
	DefaultRadiusKm          = 10.0
)

// setDefaultConfig registers default values for every setting.
func setDefaultConfig(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("logging.defaultlevel", "info")
	v.SetDefault("logging.timezone", "Local")
	v.SetDefault("logging.console.enabled", true)
	v.SetDefault("logging.console.level", "info")
	v.SetDefault("logging.fileoutput.enabled", false)
	v.SetDefault("logging.fileoutput.path", "logs/harkveil.log")
	v.SetDefault("logging.fileoutput.level", "debug")

	v.SetDefault("triage.concurrency", 0)
	v.SetDefault("triage.cliptimeout", 60*time.Second)

	v.SetDefault("lexicon.path", "")

	v.SetDefault("classifier.modelpath", "assets/models/voice_classifier.yaml")
	v.SetDefault("classifier.threads", 1)

	v.SetDefault("transcriber.backend", "google")
	v.SetDefault("transcriber.language", "en-US")
	v.SetDefault("transcriber.google.credentialsfile", "")
	v.SetDefault("transcriber.google.model", "phone_call")
	v.SetDefault("transcriber.google.useenhanced", false)
	v.SetDefault("transcriber.http.url", "http://localhost:9000")
	v.SetDefault("transcriber.http.timeout", 30*time.Second)

	v.SetDefault("audio.ffmpegpath", "")
	v.SetDefault("audio.scratchdir", "uploads")
	v.SetDefault("audio.maxuploadmb", 25)

	v.SetDefault("geo.operatorlatitude", DefaultOperatorLatitude)
	v.SetDefault("geo.operatorlongitude", DefaultOperatorLongitude)
	v.SetDefault("geo.radiuskm", DefaultRadiusKm)
	v.SetDefault("geo.seed", 0)

	v.SetDefault("webserver.listen", ":8080")
	v.SetDefault("webserver.sessionttl", 30*time.Minute)

	v.SetDefault("alert.enabled", false)
	v.SetDefault("alert.broker", "tcp://localhost:1883")
	v.SetDefault("alert.topic", "harkveil/emergencies")
	v.SetDefault("alert.clientid", "harkveil")
	v.SetDefault("alert.retain", false)

	v.SetDefault("sentry.enabled", false)
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "production")
}
