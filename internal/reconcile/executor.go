package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hrglue/sharepoint-list-sync/internal/schema"
	"github.com/hrglue/sharepoint-list-sync/internal/sharepoint"
)

// Executor is the mutation capability handed to the engine. The engine
// decides what should change, the executor decides whether it really does.
// Dry-run swaps the implementation, the reconcile loop itself has no mode
// branches.
type Executor interface {
	CreateList(ctx context.Context, name string) error
	AddField(ctx context.Context, list string, f schema.FieldSpec) error
	SetRequired(ctx context.Context, list, field string, required bool) error
}

type applyExecutor struct {
	client sharepoint.Client
}

// NewApplyExecutor returns the mutating executor backed by the SharePoint
// client.
func NewApplyExecutor(client sharepoint.Client) Executor {
	return &applyExecutor{client: client}
}

func (e *applyExecutor) CreateList(ctx context.Context, name string) error {
	return e.client.CreateList(ctx, name)
}

func (e *applyExecutor) AddField(ctx context.Context, list string, f schema.FieldSpec) error {
	return e.client.CreateField(ctx, list, f)
}

func (e *applyExecutor) SetRequired(ctx context.Context, list, field string, required bool) error {
	return e.client.SetFieldRequired(ctx, list, field, required)
}

type planExecutor struct {
	logger *slog.Logger
}

// NewPlanExecutor returns the dry-run executor. It logs every intended
// mutation and performs none of them.
func NewPlanExecutor(logger *slog.Logger) Executor {
	return &planExecutor{logger: logger}
}

func (e *planExecutor) CreateList(ctx context.Context, name string) error {
	e.logger.Info("Dry run, would create list", "list", name)
	return nil
}

func (e *planExecutor) AddField(ctx context.Context, list string, f schema.FieldSpec) error {
	args := []any{"list", list, "field", f.Name, "type", f.Type, "required", f.Required}
	if f.Type == schema.FieldChoice {
		args = append(args, "choices", strings.Join(f.Choices, ","))
	}
	e.logger.Info("Dry run, would add field", args...)
	return nil
}

func (e *planExecutor) SetRequired(ctx context.Context, list, field string, required bool) error {
	e.logger.Info("Dry run, would update field required flag", "list", list, "field", field, "required", required)
	return nil
}
