// Package audit implements the external audit sink: an append-only store
// of tier audit entry rows, written fire-and-forget with respect to the
// extraction result (write failures are logged, never surfaced to the
// caller).
package audit

import (
	"context"

	"github.com/compliancecore/certextract/internal/model"
)

// Sink is the external audit contract. Implementations must never block
// the extraction on a write failure.
type Sink interface {
	// Record appends one tier attempt. Implementations log write errors
	// internally rather than returning them to a caller that would
	// propagate them into the extraction path.
	Record(ctx context.Context, entry model.TierAuditEntry)
	Close() error
}
