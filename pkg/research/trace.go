package research

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultTraceViewerURL is the trace explorer the hosted agent runtime links
// to. Deployments that ship traces elsewhere override it via Manager.TraceViewer.
const DefaultTraceViewerURL = "https://platform.openai.com/traces/trace?trace_id="

// NewTraceID returns a run correlation token in the form trace_<32 hex chars>.
func NewTraceID() string {
	return "trace_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// TraceURL joins a viewer base URL and a trace ID into a clickable link.
func TraceURL(base, traceID string) string {
	if base == "" {
		base = DefaultTraceViewerURL
	}
	return base + traceID
}
