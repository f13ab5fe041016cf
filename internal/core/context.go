package core

import "context"

type contextKey string

const ctxKeyRunID contextKey = "import_run_id"

// ContextWithRunID tags ctx with the id of the running import.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, ctxKeyRunID, runID)
}

// RunIDFromContext returns the import run id, or "" outside an import.
func RunIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyRunID).(string); ok {
		return v
	}
	return ""
}
