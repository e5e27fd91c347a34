package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordCost_AccumulatesTotalAndPerProvider(t *testing.T) {
	tr := NewTracker()

	tr.RecordCost(0.003, "google-gemini")
	tr.RecordCost(0.01, "google-gemini")
	tr.RecordCost(0.004, "anthropic-claude")

	assert.InDelta(t, 0.017, tr.TotalCost(), 1e-9)
	byProvider := tr.CostByProvider()
	assert.InDelta(t, 0.013, byProvider["google-gemini"], 1e-9)
	assert.InDelta(t, 0.004, byProvider["anthropic-claude"], 1e-9)
}

func TestIsWithinBudget(t *testing.T) {
	tr := NewTracker()
	tr.RecordCost(0.04, "p")

	assert.True(t, tr.IsWithinBudget(0.01, 0.05))
	assert.False(t, tr.IsWithinBudget(0.02, 0.05))
}

func TestReset_ClearsState(t *testing.T) {
	tr := NewTracker()
	tr.RecordCost(0.02, "p")

	tr.Reset()

	assert.Equal(t, float64(0), tr.TotalCost())
	assert.Empty(t, tr.CostByProvider())
}
