package monitoring

import (
	"log/slog"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry wires up Sentry error tracking. With no DSN configured it
// logs and reports false, every capture call is then a no-op inside the SDK.
func InitSentry(dsn, environment string, logger *slog.Logger) bool {
	if dsn == "" {
		logger.Info("Sentry DSN not configured, error tracking disabled")
		return false
	}

	sampleRate := 1.0
	if environment == "production" {
		sampleRate = 0.1
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		TracesSampleRate: sampleRate,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		logger.Warn("fail initialize sentry", "error", err)
		return false
	}
	logger.Info("Sentry error tracking enabled", "environment", environment)
	return true
}

// beforeSend strips credentials before events leave the process.
func beforeSend(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		delete(event.Request.Headers, "Authorization")
		delete(event.Request.Headers, "Cookie")
		if q := event.Request.QueryString; q != "" {
			event.Request.QueryString = redactQuery(q)
		}
	}
	for key := range event.Extra {
		if sensitiveKey(key) {
			event.Extra[key] = "[REDACTED]"
		}
	}
	return event
}

// redactQuery replaces the value of every credential-looking query
// parameter, leaving the rest of the string untouched.
func redactQuery(q string) string {
	parts := strings.Split(q, "&")
	for i, part := range parts {
		key, _, ok := strings.Cut(part, "=")
		if ok && sensitiveKey(key) {
			parts[i] = key + "=[REDACTED]"
		}
	}
	return strings.Join(parts, "&")
}

func sensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	return strings.Contains(lower, "token") ||
		strings.Contains(lower, "secret") ||
		strings.Contains(lower, "password") ||
		strings.Contains(lower, "api_key")
}

// CaptureError reports an error with tags and extra context.
func CaptureError(err error, tags map[string]string, extra map[string]any) {
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		for k, v := range extra {
			scope.SetExtra(k, v)
		}
		scope.SetLevel(sentry.LevelError)
		sentry.CaptureException(err)
	})
}

// CaptureMessage reports a non-error event.
func CaptureMessage(message string, tags map[string]string) {
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		scope.SetLevel(sentry.LevelInfo)
		sentry.CaptureMessage(message)
	})
}

// AddBreadcrumb records a debugging breadcrumb on the current scope.
func AddBreadcrumb(message, category string, data map[string]any) {
	sentry.AddBreadcrumb(&sentry.Breadcrumb{
		Message:  message,
		Category: category,
		Data:     data,
		Level:    sentry.LevelInfo,
	})
}

// FlushSentry drains pending events, call before process exit.
func FlushSentry(timeout time.Duration) {
	sentry.Flush(timeout)
}
