package monitoring

import (
	"log/slog"

	"github.com/microsoft/ApplicationInsights-Go/appinsights"
)

// Insights is a thin forwarding layer over the Application Insights SDK.
// A nil client (no instrumentation key) makes every method a no-op.
type Insights struct {
	client appinsights.TelemetryClient
}

func NewInsights(instrumentationKey string, logger *slog.Logger) *Insights {
	if instrumentationKey == "" {
		logger.Info("App Insights instrumentation key not configured, monitoring disabled")
		return &Insights{}
	}
	client := appinsights.NewTelemetryClient(instrumentationKey)
	logger.Info("App Insights monitoring enabled")
	return &Insights{client: client}
}

func (i *Insights) TrackEvent(name string, properties map[string]string) {
	if i.client == nil {
		return
	}
	event := appinsights.NewEventTelemetry(name)
	for k, v := range properties {
		event.Properties[k] = v
	}
	i.client.Track(event)
}

func (i *Insights) TrackMetric(name string, value float64) {
	if i.client == nil {
		return
	}
	i.client.TrackMetric(name, value)
}

func (i *Insights) TrackException(err error, properties map[string]string) {
	if i.client == nil {
		return
	}
	exception := appinsights.NewExceptionTelemetry(err)
	for k, v := range properties {
		exception.Properties[k] = v
	}
	i.client.Track(exception)
}

// TrackDependency records an external call, success marks the outcome.
func (i *Insights) TrackDependency(name, dependencyType, target string, success bool) {
	if i.client == nil {
		return
	}
	i.client.Track(appinsights.NewRemoteDependencyTelemetry(name, dependencyType, target, success))
}

// Flush drains buffered telemetry, call before process exit.
func (i *Insights) Flush() {
	if i.client == nil {
		return
	}
	i.client.Channel().Flush()
}
