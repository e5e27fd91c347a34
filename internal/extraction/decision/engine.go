// Package decision implements the orchestrator's pure decision function:
// given a tier's outcome (or error), the active settings, the running cost
// tracker, and where we are in the tier sequence, decide whether to
// Complete, Escalate to the next tier, or Abort.
package decision

import (
	"fmt"

	"github.com/compliancecore/certextract/internal/extraction/cost"
	"github.com/compliancecore/certextract/internal/model"
)

// Action is the decision's verb.
type Action string

const (
	ActionComplete  Action = "complete"
	ActionEscalate  Action = "escalate"
	ActionAbort     Action = "abort"
)

// Decision is the engine's output.
type Decision struct {
	Action Action
	Next   model.Tier // valid only when Action == ActionEscalate
	Reason string
}

// Outcome is the minimal shape of a tier's result the engine needs: just
// the confidence score. Callers pass nil when the tier produced an error
// instead of a result.
type Outcome struct {
	Confidence float64
}

// Input bundles everything the engine reads. It never mutates CostTracker
// or Settings — callers record cost before invoking the engine when a
// tier's call actually spent money.
type Input struct {
	CurrentResult *Outcome
	Err           error
	Settings      *model.Settings
	CostTracker   *cost.Tracker
	CurrentTier   model.Tier
	DocType       model.CertType
}

// Decide implements the engine's branching:
//   - error present -> find next tier; no next -> Abort; else Escalate("error in <tier>: <err>")
//   - result present -> effective threshold = docTypeThresholds[docType] ?? tierDefault;
//     confidence >= threshold -> Complete;
//     else find next tier and check budget:
//       over budget + abortOnCostExceeded -> Abort("cost ceiling")
//       over budget + !abortOnCostExceeded -> Complete("best-effort, cost limit")
//       else -> Escalate("confidence below threshold")
func Decide(in Input) Decision {
	if in.Err != nil {
		next, ok := model.Next(in.CurrentTier)
		if !ok {
			return Decision{Action: ActionAbort, Reason: fmt.Sprintf("no tier after %s to escalate to after error: %v", in.CurrentTier, in.Err)}
		}
		return Decision{Action: ActionEscalate, Next: next, Reason: fmt.Sprintf("error in %s: %v", in.CurrentTier, in.Err)}
	}

	if in.CurrentResult == nil {
		return Decision{Action: ActionAbort, Reason: "decision engine called with neither a result nor an error"}
	}

	threshold := effectiveThreshold(in.Settings, in.CurrentTier, in.DocType)
	if in.CurrentResult.Confidence >= threshold {
		return Decision{Action: ActionComplete, Reason: "confidence met threshold"}
	}

	next, ok := model.Next(in.CurrentTier)
	if !ok {
		return Decision{Action: ActionAbort, Reason: "confidence below threshold and no further tier available"}
	}

	nextCost := next.DefaultCost()
	if in.CostTracker.IsWithinBudget(nextCost, in.Settings.MaxCostPerDocument) {
		return Decision{Action: ActionEscalate, Next: next, Reason: "confidence below threshold"}
	}

	if in.Settings.AbortOnCostExceeded {
		return Decision{Action: ActionAbort, Reason: "cost ceiling"}
	}
	return Decision{Action: ActionComplete, Reason: "best-effort, cost limit"}
}

// effectiveThreshold resolves docTypeThresholds[docType], falling back to
// the tier's own settings field, per model.Settings.EffectiveTier1Threshold
// (extended here to cover every escalating tier, not just Tier 1).
func effectiveThreshold(settings *model.Settings, tier model.Tier, docType model.CertType) float64 {
	if override, ok := settings.DocumentTypeThresholds[docType]; ok {
		return override
	}
	switch tier {
	case model.Tier1:
		return settings.Tier1Threshold
	case model.Tier15:
		return settings.Tier15Threshold
	case model.Tier2:
		return settings.Tier2Threshold
	case model.Tier3:
		return settings.Tier3Threshold
	default:
		return tier.DefaultThreshold()
	}
}
