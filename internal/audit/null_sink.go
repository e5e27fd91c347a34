package audit

import (
	"context"

	"github.com/compliancecore/certextract/internal/model"
)

// NullSink discards every entry, for tests and for deployments where only
// the in-memory tierAudit on the ExtractionResult is needed.
type NullSink struct{}

func NewNullSink() *NullSink { return &NullSink{} }

func (s *NullSink) Record(ctx context.Context, entry model.TierAuditEntry) {}

func (s *NullSink) Close() error { return nil }
