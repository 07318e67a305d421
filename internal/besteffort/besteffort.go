// Package besteffort names the service's fire-and-log policy for external
// side effects. A best-effort call may fail without aborting or rolling back
// the operation that issued it; the order ledger stays the source of truth.
package besteffort

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/storefront-labs/fulfillment/internal/logging"
)

type Policy struct {
	// Failures is bumped per failed operation when set.
	Failures *prometheus.CounterVec
}

// Run executes fn and swallows its error. The error is logged with the
// operation name and counted; it is never returned to the caller.
func (p *Policy) Run(ctx context.Context, op string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logging.FromContext(ctx).Warn("best_effort_call_failed", "operation", op, "error", err)
		if p != nil && p.Failures != nil {
			p.Failures.WithLabelValues(op).Inc()
		}
	}
}
