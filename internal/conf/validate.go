package conf

import (
	"fmt"
)

// ValidateSettings checks the loaded configuration for values the service
// cannot run with. Called once at startup; failures are fatal.
func ValidateSettings(settings *Settings) error {
	if settings.Feedback.UndoWindow <= 0 {
		return fmt.Errorf("feedback.undowindow must be positive, got %v", settings.Feedback.UndoWindow)
	}
	if !ValidTone(settings.Feedback.DefaultTone) {
		return fmt.Errorf("feedback.defaulttone %q is not one of appreciative, developmental, neutral", settings.Feedback.DefaultTone)
	}
	if settings.Feedback.FairnessThreshold < 0 || settings.Feedback.FairnessThreshold > 1 {
		return fmt.Errorf("feedback.fairnessthreshold must be within [0,1], got %v", settings.Feedback.FairnessThreshold)
	}
	if settings.Provider.Configured() && settings.Provider.Model == "" {
		return fmt.Errorf("provider.model must be set when a provider API key is configured")
	}
	if settings.Output.SQLite.Enabled && settings.Output.SQLite.Path == "" {
		return fmt.Errorf("output.sqlite.path must be set when SQLite is enabled")
	}
	if settings.Server.Port == "" {
		return fmt.Errorf("server.port must be set")
	}
	for i := range settings.Notification.Push.Providers {
		p := &settings.Notification.Push.Providers[i]
		if p.Enabled && len(p.URLs) == 0 {
			return fmt.Errorf("notification push provider %q is enabled but has no URLs", p.Name)
		}
	}
	return nil
}
