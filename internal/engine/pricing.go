package engine

import (
	"context"

	"go.uber.org/zap"

	"skyops/internal/domain"
	"skyops/internal/remote"
	"skyops/internal/repo"
)

// markup is a free integer percentage within these bounds.
const (
	MinMarkup = 0
	MaxMarkup = 200
)

// TotalCost sums dailyPay+bonusPay over every log. Stable under
// reordering of the log collection; zero logs yield zero.
func TotalCost(d domain.Deployment) float64 {
	var total float64
	for _, l := range d.DailyLogs {
		total += l.DailyPay + l.BonusPay
	}
	return total
}

// Calculate asks the remote cost calculator for a snapshot. Requests
// are tagged with a sequence number; a response that lands after a
// newer request was issued is discarded with ErrStalePricing so rapid
// markup edits cannot install an out-of-date snapshot.
func (e *Engine) Calculate(ctx context.Context, sess *repo.Session, markupOverride *int) (domain.PricingSnapshot, error) {
	if markupOverride != nil {
		if *markupOverride < MinMarkup || *markupOverride > MaxMarkup {
			return domain.PricingSnapshot{}, validationf("markup must be between %d and %d percent", MinMarkup, MaxMarkup)
		}
	}
	e.pricingSeq++
	seq := e.pricingSeq
	snap, err := e.Store.CalculatePricing(ctx, sess.Deployment.ID, markupOverride)
	if err != nil {
		return domain.PricingSnapshot{}, err
	}
	if seq != e.pricingSeq {
		e.Log.Debug("discarding stale pricing snapshot",
			zap.String("deployment_id", sess.Deployment.ID),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", e.pricingSeq),
		)
		return domain.PricingSnapshot{}, ErrStalePricing
	}
	return snap, nil
}

// Preview recomputes the recommendation for a different markup without
// a server round-trip. Only the derived fields change.
func Preview(snap domain.PricingSnapshot, markup int) (domain.PricingSnapshot, error) {
	if markup < MinMarkup || markup > MaxMarkup {
		return domain.PricingSnapshot{}, validationf("markup must be between %d and %d percent", MinMarkup, MaxMarkup)
	}
	snap.MarkupPercentage = markup
	snap.RecommendedPrice = snap.TotalBaseCost * (1 + float64(markup)/100)
	snap.EstimatedProfit = snap.RecommendedPrice - snap.TotalBaseCost
	if snap.RecommendedPrice != 0 {
		snap.EstimatedMargin = snap.EstimatedProfit / snap.RecommendedPrice
	} else {
		snap.EstimatedMargin = 0
	}
	return snap, nil
}

// SavePricing persists the snapshot's summary fields onto the
// deployment and refetches the open deployment so the local copy
// matches the server-merged record. Staged days survive the refetch.
func (e *Engine) SavePricing(ctx context.Context, sess *repo.Session, snap domain.PricingSnapshot) error {
	_, err := e.Store.SavePricing(ctx, sess.Deployment.ID, remote.PricingPatch{
		BaseCost:         snap.TotalBaseCost,
		MarkupPercentage: snap.MarkupPercentage,
		ClientPrice:      snap.RecommendedPrice,
		TravelCosts:      snap.TravelCost,
		EquipmentCosts:   snap.EquipmentCost,
	})
	if err != nil {
		return err
	}
	return e.Repo.Refresh(ctx, sess)
}
