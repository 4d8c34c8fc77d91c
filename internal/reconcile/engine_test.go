package reconcile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hrglue/sharepoint-list-sync/internal/metrics"
	"github.com/hrglue/sharepoint-list-sync/internal/schema"
	"github.com/hrglue/sharepoint-list-sync/internal/sharepoint"
)

// MockClient implements sharepoint.Client against in-memory site state and
// records every write so tests can assert exactly which calls were
// dispatched.
type MockClient struct {
	lists  map[string]bool
	fields map[string]map[string]sharepoint.FieldState

	connErr        error
	getFieldErr    error
	createListErr  error
	createFieldErr error
	setRequiredErr error

	createListCalls  []string
	createFieldCalls []string
	setRequiredCalls []string
}

func NewMockClient() *MockClient {
	return &MockClient{
		lists:  map[string]bool{},
		fields: map[string]map[string]sharepoint.FieldState{},
	}
}

func (m *MockClient) AddList(name string) {
	m.lists[name] = true
	if m.fields[name] == nil {
		m.fields[name] = map[string]sharepoint.FieldState{}
	}
}

func (m *MockClient) AddField(list, name string, required bool) {
	m.AddList(list)
	m.fields[list][name] = sharepoint.FieldState{InternalName: name, Title: name, Required: required}
}

func (m *MockClient) EnsureConnection(ctx context.Context) error { return m.connErr }

func (m *MockClient) GetList(ctx context.Context, title string) (sharepoint.List, error) {
	if !m.lists[title] {
		return sharepoint.List{}, sharepoint.ErrNotFound
	}
	return sharepoint.List{Title: title}, nil
}

func (m *MockClient) CreateList(ctx context.Context, title string) error {
	m.createListCalls = append(m.createListCalls, title)
	if m.createListErr != nil {
		return m.createListErr
	}
	m.AddList(title)
	return nil
}

func (m *MockClient) GetField(ctx context.Context, listTitle, name string) (sharepoint.FieldState, error) {
	if m.getFieldErr != nil {
		return sharepoint.FieldState{}, m.getFieldErr
	}
	state, ok := m.fields[listTitle][name]
	if !ok {
		return sharepoint.FieldState{}, sharepoint.ErrNotFound
	}
	return state, nil
}

func (m *MockClient) CreateField(ctx context.Context, listTitle string, spec schema.FieldSpec) error {
	m.createFieldCalls = append(m.createFieldCalls, spec.Name)
	if m.createFieldErr != nil {
		return m.createFieldErr
	}
	m.AddField(listTitle, spec.Name, spec.Required)
	return nil
}

func (m *MockClient) SetFieldRequired(ctx context.Context, listTitle, name string, required bool) error {
	m.setRequiredCalls = append(m.setRequiredCalls, name)
	if m.setRequiredErr != nil {
		return m.setRequiredErr
	}
	state := m.fields[listTitle][name]
	state.Required = required
	m.fields[listTitle][name] = state
	return nil
}

func (m *MockClient) writes() int {
	return len(m.createListCalls) + len(m.createFieldCalls) + len(m.setRequiredCalls)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHireSchema() *schema.Schema {
	return &schema.Schema{
		ListName: "New-Hire Requests",
		Fields: []schema.FieldSpec{
			{Name: "FirstName", Type: schema.FieldText, Required: true},
			{Name: "Role", Type: schema.FieldChoice, Choices: []string{"Employee", "Contractor", "Intern"}},
		},
	}
}

func TestEngineRun(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(*MockClient)
		sch         *schema.Schema
		expected    RunResult
		expectError bool
	}{
		{
			name:  "empty site creates list and all fields",
			setup: func(m *MockClient) {},
			sch:   newHireSchema(),
			expected: RunResult{
				ListCreated: true,
				FieldsAdded: []string{"FirstName", "Role"},
			},
		},
		{
			name: "existing list adds only missing fields",
			setup: func(m *MockClient) {
				m.AddList("New-Hire Requests")
				m.AddField("New-Hire Requests", "FirstName", true)
			},
			sch: newHireSchema(),
			expected: RunResult{
				FieldsAdded: []string{"Role"},
			},
		},
		{
			name: "required flag convergence dispatches one update",
			setup: func(m *MockClient) {
				m.AddField("New-Hire Requests", "FirstName", false)
				m.AddField("New-Hire Requests", "Role", false)
			},
			sch: newHireSchema(),
			expected: RunResult{
				FieldsUpdated: []string{"FirstName"},
			},
		},
		{
			name: "fully converged site is a pure no-op",
			setup: func(m *MockClient) {
				m.AddField("New-Hire Requests", "FirstName", true)
				m.AddField("New-Hire Requests", "Role", false)
			},
			sch:      newHireSchema(),
			expected: RunResult{},
		},
		{
			name: "unsupported type in hand-built schema skips field, run continues",
			setup: func(m *MockClient) {
				m.AddList("Requests")
			},
			sch: &schema.Schema{
				ListName: "Requests",
				Fields: []schema.FieldSpec{
					{Name: "Weird", Type: schema.FieldType("Lookup")},
					{Name: "After", Type: schema.FieldText},
				},
			},
			expected: RunResult{
				FieldsAdded: []string{"After"},
			},
		},
		{
			name: "connection failure aborts before any work",
			setup: func(m *MockClient) {
				m.connErr = errors.New("unauthorized")
			},
			sch:         newHireSchema(),
			expectError: true,
		},
		{
			name: "field lookup failure propagates",
			setup: func(m *MockClient) {
				m.AddList("New-Hire Requests")
				m.getFieldErr = errors.New("throttled")
			},
			sch:         newHireSchema(),
			expectError: true,
		},
		{
			name: "field create failure propagates with partial result",
			setup: func(m *MockClient) {
				m.AddList("New-Hire Requests")
				m.createFieldErr = errors.New("permission denied")
			},
			sch:         newHireSchema(),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			client := NewMockClient()
			tt.setup(client)

			engine := NewEngine(client, NewApplyExecutor(client), metrics.New(false), testLogger())
			result, err := engine.Run(ctx, tt.sch)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.expected, result); diff != "" {
				t.Errorf("RunResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEngineIdempotence(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	sch := newHireSchema()

	engine := NewEngine(client, NewApplyExecutor(client), metrics.New(false), testLogger())

	first, err := engine.Run(ctx, sch)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if !first.ChangesDetected() {
		t.Fatal("first run against empty site should detect changes")
	}

	writesAfterFirst := client.writes()
	second, err := engine.Run(ctx, sch)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.ChangesDetected() {
		t.Errorf("second run should be a no-op, got %+v", second)
	}
	if client.writes() != writesAfterFirst {
		t.Errorf("second run dispatched %d extra write calls", client.writes()-writesAfterFirst)
	}
}

func TestEngineMinimalDiff(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		client.AddField("Requests", name, false)
	}

	sch := &schema.Schema{ListName: "Requests"}
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		sch.Fields = append(sch.Fields, schema.FieldSpec{Name: name, Type: schema.FieldText})
	}

	engine := NewEngine(client, NewApplyExecutor(client), metrics.New(false), testLogger())
	result, err := engine.Run(ctx, sch)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ChangesDetected() {
		t.Errorf("expected no changes, got %+v", result)
	}
	if client.writes() != 0 {
		t.Errorf("expected zero write calls, got %d", client.writes())
	}
}

func TestEngineDryRunNonMutation(t *testing.T) {
	ctx := context.Background()
	sch := newHireSchema()

	// Real run for the reference result.
	applyClient := NewMockClient()
	applyEngine := NewEngine(applyClient, NewApplyExecutor(applyClient), metrics.New(false), testLogger())
	applied, err := applyEngine.Run(ctx, sch)
	if err != nil {
		t.Fatalf("apply run: %v", err)
	}

	planClient := NewMockClient()
	planEngine := NewEngine(planClient, NewPlanExecutor(testLogger()), metrics.New(false), testLogger())
	planned, err := planEngine.Run(ctx, sch)
	if err != nil {
		t.Fatalf("plan run: %v", err)
	}

	if diff := cmp.Diff(applied, planned); diff != "" {
		t.Errorf("dry run result should match real run (-apply +plan):\n%s", diff)
	}
	if planClient.writes() != 0 {
		t.Errorf("dry run dispatched %d write calls", planClient.writes())
	}
}

func TestEngineLogsEveryFieldDecision(t *testing.T) {
	ctx := context.Background()
	client := NewMockClient()
	client.AddField("New-Hire Requests", "FirstName", true)
	client.AddField("New-Hire Requests", "Role", false)

	// Default info level, the no-op decisions must still appear.
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	engine := NewEngine(client, NewApplyExecutor(client), metrics.New(false), log)
	result, err := engine.Run(ctx, newHireSchema())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.ChangesDetected() {
		t.Fatalf("expected converged site, got %+v", result)
	}

	logged := buf.String()
	if got := strings.Count(logged, "Field up to date"); got != 2 {
		t.Errorf("expected 2 no-op field decisions at info level, got %d:\n%s", got, logged)
	}
	if !strings.Contains(logged, "List exists") {
		t.Errorf("list decision missing at info level:\n%s", logged)
	}
}

func TestSummarize(t *testing.T) {
	changed := RunResult{FieldsAdded: []string{"A"}}
	unchanged := RunResult{}

	tests := []struct {
		name   string
		result RunResult
		dryRun bool
		want   string
	}{
		{"changes applied", changed, false, "Changes applied"},
		{"changes would be applied", changed, true, "Dry run complete, changes would be applied"},
		{"no changes", unchanged, false, "No changes needed, list already matches schema"},
		{"no changes dry run", unchanged, true, "No changes needed, list already matches schema"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Summarize(tt.result, tt.dryRun); got != tt.want {
				t.Errorf("Summarize() = %q, want %q", got, tt.want)
			}
		})
	}
}
