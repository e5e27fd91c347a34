package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compliancecore/certextract/internal/model"
)

func TestNullSink_RecordDoesNotPanicAndCloseSucceeds(t *testing.T) {
	s := NewNullSink()

	assert.NotPanics(t, func() {
		s.Record(context.Background(), *model.NewTierAuditEntry("cert-1", model.Tier1))
	})
	assert.NoError(t, s.Close())
}

func TestNullSink_ImplementsSink(t *testing.T) {
	var _ Sink = NewNullSink()
}
