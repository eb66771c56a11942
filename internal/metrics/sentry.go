package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
)

const (
	// HTTP status code threshold for considering a request successful
	successStatusCodeThreshold = http.StatusBadRequest
)

// SentryMetrics handles custom metrics for Sentry
type SentryMetrics struct {
	enabled bool
}

// NewSentryMetrics creates a new Sentry metrics client
func NewSentryMetrics() *SentryMetrics {
	return &SentryMetrics{
		enabled: true, // spans are dropped when no client is bound
	}
}

// RecordAPIRequest records API request metrics
func (m *SentryMetrics) RecordAPIRequest(ctx context.Context, endpoint string, statusCode int, duration time.Duration) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "api.request")
	defer span.Finish()

	span.SetTag("endpoint", endpoint)
	span.SetTag("status_code", fmt.Sprintf("%d", statusCode))
	span.SetTag("success", fmt.Sprintf("%t", statusCode < successStatusCodeThreshold))

	span.SetData("duration_ms", duration.Milliseconds())
	span.SetData("endpoint", endpoint)
	span.SetData("status_code", statusCode)

	if statusCode < successStatusCodeThreshold {
		span.Status = sentry.SpanStatusOK
	} else {
		span.Status = sentry.SpanStatusInternalError
	}

	span.Description = fmt.Sprintf("API Request: %s", endpoint)
}

// StartEngineSpan opens a span around one engine operation. The caller
// finishes it with FinishEngineSpan.
func (m *SentryMetrics) StartEngineSpan(ctx context.Context, operation string) *sentry.Span {
	span := sentry.StartSpan(ctx, "engine."+operation)
	span.Description = operation
	return span
}

// FinishEngineSpan tags the outcome and closes the span.
func (m *SentryMetrics) FinishEngineSpan(span *sentry.Span, err error, data map[string]interface{}) {
	if span == nil {
		return
	}
	for key, value := range data {
		span.SetData(key, value)
	}
	span.SetTag("success", fmt.Sprintf("%t", err == nil))
	if err != nil {
		span.Status = sentry.SpanStatusInternalError
	} else {
		span.Status = sentry.SpanStatusOK
	}
	span.Finish()
}

// RecordFindings attaches validation counts to the current transaction
func (m *SentryMetrics) RecordFindings(ctx context.Context, errors, warnings int) {
	if m == nil || !m.enabled {
		return
	}

	if transaction := sentry.TransactionFromContext(ctx); transaction != nil {
		transaction.SetTag("counterpoint.errors", fmt.Sprintf("%d", errors))
		transaction.SetData("counterpoint.errors", errors)
		transaction.SetData("counterpoint.warnings", warnings)
	}

	span := sentry.StartSpan(ctx, "counterpoint.findings")
	defer span.Finish()

	span.SetData("errors", errors)
	span.SetData("warnings", warnings)
	span.Status = sentry.SpanStatusOK
	span.Description = fmt.Sprintf("Findings: %d errors, %d warnings", errors, warnings)
}

// RecordInfeasible records a voicing step that no candidate could satisfy
func (m *SentryMetrics) RecordInfeasible(ctx context.Context, constraint string, step int) {
	if m == nil || !m.enabled {
		return
	}

	span := sentry.StartSpan(ctx, "voicing.infeasible")
	defer span.Finish()

	span.SetTag("constraint", constraint)
	span.SetData("step", step)
	span.Status = sentry.SpanStatusFailedPrecondition
	span.Description = fmt.Sprintf("Infeasible voicing: %s", constraint)
}
