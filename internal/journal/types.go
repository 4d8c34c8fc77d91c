package journal

import (
	"time"

	"github.com/hrglue/sharepoint-list-sync/internal/reconcile"
)

// Entry is one persisted run summary.
type Entry struct {
	Timestamp     int64    `json:"timestamp"`
	List          string   `json:"list"`
	DryRun        bool     `json:"dryRun"`
	ListCreated   bool     `json:"listCreated"`
	FieldsAdded   []string `json:"fieldsAdded,omitempty"`
	FieldsUpdated []string `json:"fieldsUpdated,omitempty"`
}

func NewEntry(list string, dryRun bool, result reconcile.RunResult) Entry {
	return Entry{
		Timestamp:     time.Now().UnixNano(),
		List:          list,
		DryRun:        dryRun,
		ListCreated:   result.ListCreated,
		FieldsAdded:   result.FieldsAdded,
		FieldsUpdated: result.FieldsUpdated,
	}
}

func (e Entry) Time() time.Time {
	return time.Unix(0, e.Timestamp)
}

func (e Entry) ChangesDetected() bool {
	return e.ListCreated || len(e.FieldsAdded) > 0 || len(e.FieldsUpdated) > 0
}
