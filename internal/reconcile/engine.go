package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrglue/sharepoint-list-sync/internal/metrics"
	"github.com/hrglue/sharepoint-list-sync/internal/schema"
	"github.com/hrglue/sharepoint-list-sync/internal/sharepoint"
)

type Engine interface {
	Run(ctx context.Context, sch *schema.Schema) (RunResult, error)
}

type engine struct {
	client   sharepoint.Client
	executor Executor
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewEngine(client sharepoint.Client, executor Executor, m *metrics.Metrics, logger *slog.Logger) *engine {
	return &engine{
		client:   client,
		executor: executor,
		metrics:  m,
		logger:   logger,
	}
}

// Run converges the remote list to the schema, one field at a time in
// declaration order. Reads go through the client, writes through the
// executor. Any external failure aborts the run and propagates, re-running
// after a partial failure is safe because every step is a diff against live
// state.
func (e *engine) Run(ctx context.Context, sch *schema.Schema) (RunResult, error) {
	result := RunResult{}

	// Connection is a precondition, checked once before any reconciliation.
	if err := e.client.EnsureConnection(ctx); err != nil {
		return result, err
	}

	created, err := e.ensureList(ctx, sch.ListName)
	if err != nil {
		return result, err
	}
	result.ListCreated = created

	for _, f := range sch.Fields {
		if !f.Type.Valid() {
			// Load rejects these, a hand-built schema still must not
			// abort the remaining fields.
			e.logger.Warn("Skipping field with unsupported type", "field", f.Name, "type", f.Type)
			e.metrics.IncFieldOperation("skip", sch.ListName, string(f.Type))
			continue
		}

		state, err := e.client.GetField(ctx, sch.ListName, f.Name)
		switch {
		case errors.Is(err, sharepoint.ErrNotFound):
			e.logger.Info("Field missing from list", "list", sch.ListName, "field", f.Name, "type", f.Type)
			if err := e.executor.AddField(ctx, sch.ListName, f); err != nil {
				return result, fmt.Errorf("add field %q: %w", f.Name, err)
			}
			result.FieldsAdded = append(result.FieldsAdded, f.Name)
			e.metrics.IncFieldOperation("add", sch.ListName, string(f.Type))

		case err != nil:
			return result, fmt.Errorf("look up field %q: %w", f.Name, err)

		case state.Required != f.Required:
			e.logger.Info("Field required flag differs", "list", sch.ListName, "field", f.Name,
				"current", state.Required, "desired", f.Required)
			if err := e.executor.SetRequired(ctx, sch.ListName, f.Name, f.Required); err != nil {
				return result, fmt.Errorf("update field %q: %w", f.Name, err)
			}
			result.FieldsUpdated = append(result.FieldsUpdated, f.Name)
			e.metrics.IncFieldOperation("update", sch.ListName, string(f.Type))

		default:
			// Field exists and matches, the steady state on repeat runs.
			// Info so every field decision shows up at the default level.
			e.logger.Info("Field up to date", "list", sch.ListName, "field", f.Name)
			e.metrics.IncFieldOperation("skip", sch.ListName, string(f.Type))
		}
	}

	return result, nil
}

// ensureList reports whether the list had to be created. An existing list is
// the expected steady state, never an error.
func (e *engine) ensureList(ctx context.Context, name string) (bool, error) {
	_, err := e.client.GetList(ctx, name)
	if err == nil {
		e.logger.Info("List exists", "list", name)
		return false, nil
	}
	if !errors.Is(err, sharepoint.ErrNotFound) {
		return false, fmt.Errorf("look up list %q: %w", name, err)
	}

	e.logger.Info("List missing from site", "list", name)
	if err := e.executor.CreateList(ctx, name); err != nil {
		return false, fmt.Errorf("create list %q: %w", name, err)
	}
	return true, nil
}
