package reconcile

// RunResult accumulates what a reconciliation run changed, or would have
// changed in dry-run mode. Field order follows schema declaration order.
type RunResult struct {
	ListCreated   bool
	FieldsAdded   []string
	FieldsUpdated []string
}

func (r RunResult) ChangesDetected() bool {
	return r.ListCreated || len(r.FieldsAdded) > 0 || len(r.FieldsUpdated) > 0
}

// Summarize selects the run outcome message. Pure function of the result and
// mode.
func Summarize(r RunResult, dryRun bool) string {
	switch {
	case !r.ChangesDetected():
		return "No changes needed, list already matches schema"
	case dryRun:
		return "Dry run complete, changes would be applied"
	default:
		return "Changes applied"
	}
}
