package decision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/compliancecore/certextract/internal/extraction/cost"
	"github.com/compliancecore/certextract/internal/model"
)

func TestDecide_ErrorEscalatesToNextTier(t *testing.T) {
	d := Decide(Input{
		Err:         errors.New("provider timeout"),
		Settings:    model.DefaultSettings(),
		CostTracker: cost.NewTracker(),
		CurrentTier: model.Tier15,
	})

	assert.Equal(t, ActionEscalate, d.Action)
	assert.Equal(t, model.Tier2, d.Next)
	assert.Contains(t, d.Reason, "error in")
}

func TestDecide_ErrorOnLastTierAborts(t *testing.T) {
	d := Decide(Input{
		Err:         errors.New("camera broke"),
		Settings:    model.DefaultSettings(),
		CostTracker: cost.NewTracker(),
		CurrentTier: model.Tier4,
	})

	assert.Equal(t, ActionAbort, d.Action)
}

func TestDecide_ConfidenceMeetsThresholdCompletes(t *testing.T) {
	d := Decide(Input{
		CurrentResult: &Outcome{Confidence: 0.9},
		Settings:      model.DefaultSettings(),
		CostTracker:   cost.NewTracker(),
		CurrentTier:   model.Tier1,
	})

	assert.Equal(t, ActionComplete, d.Action)
}

func TestDecide_DocTypeOverrideTakesPriority(t *testing.T) {
	settings := model.DefaultSettings()
	settings.DocumentTypeThresholds["FRA"] = 0.5

	d := Decide(Input{
		CurrentResult: &Outcome{Confidence: 0.6},
		Settings:      settings,
		CostTracker:   cost.NewTracker(),
		CurrentTier:   model.Tier1,
		DocType:       "FRA",
	})

	assert.Equal(t, ActionComplete, d.Action)
}

func TestDecide_BelowThresholdEscalatesWithinBudget(t *testing.T) {
	d := Decide(Input{
		CurrentResult: &Outcome{Confidence: 0.1},
		Settings:      model.DefaultSettings(),
		CostTracker:   cost.NewTracker(),
		CurrentTier:   model.Tier1,
	})

	assert.Equal(t, ActionEscalate, d.Action)
	assert.Equal(t, model.Tier15, d.Next)
}

func TestDecide_OverBudgetWithAbortOnCostExceededAborts(t *testing.T) {
	settings := model.DefaultSettings()
	settings.AbortOnCostExceeded = true
	settings.MaxCostPerDocument = 0.001
	tracker := cost.NewTracker()
	tracker.RecordCost(0.001, "p")

	d := Decide(Input{
		CurrentResult: &Outcome{Confidence: 0.1},
		Settings:      settings,
		CostTracker:   tracker,
		CurrentTier:   model.Tier1,
	})

	assert.Equal(t, ActionAbort, d.Action)
	assert.Equal(t, "cost ceiling", d.Reason)
}

func TestDecide_OverBudgetWithoutAbortCompletesBestEffort(t *testing.T) {
	settings := model.DefaultSettings()
	settings.AbortOnCostExceeded = false
	settings.MaxCostPerDocument = 0.001
	tracker := cost.NewTracker()
	tracker.RecordCost(0.001, "p")

	d := Decide(Input{
		CurrentResult: &Outcome{Confidence: 0.1},
		Settings:      settings,
		CostTracker:   tracker,
		CurrentTier:   model.Tier1,
	})

	assert.Equal(t, ActionComplete, d.Action)
	assert.Equal(t, "best-effort, cost limit", d.Reason)
}

func TestDecide_NoResultNoErrorAborts(t *testing.T) {
	d := Decide(Input{
		Settings:    model.DefaultSettings(),
		CostTracker: cost.NewTracker(),
		CurrentTier: model.Tier1,
	})

	assert.Equal(t, ActionAbort, d.Action)
}
