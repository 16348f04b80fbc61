// conf/defaults.go default values for settings
package conf

import (
	"time"

	"github.com/spf13/viper"
)

// Sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("main.name", "Vocalis")
	viper.SetDefault("main.log.enabled", true)
	viper.SetDefault("main.log.path", "logs/")

	viper.SetDefault("provider.baseurl", "https://api.openai.com/v1")
	viper.SetDefault("provider.model", "gpt-4o-mini")
	viper.SetDefault("provider.transcriptionmodel", "whisper-1")
	viper.SetDefault("provider.timeout", 60*time.Second)
	viper.SetDefault("provider.maxretries", 0)

	viper.SetDefault("feedback.defaulttone", ToneNeutral)
	viper.SetDefault("feedback.undowindow", 10*time.Minute)
	viper.SetDefault("feedback.fairnessthreshold", 0.7)

	viper.SetDefault("output.sqlite.enabled", true)
	viper.SetDefault("output.sqlite.path", "vocalis.db")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.apitoken", "")

	viper.SetDefault("notification.push.enabled", false)
	viper.SetDefault("notification.push.defaulttimeout", 30*time.Second)
}
