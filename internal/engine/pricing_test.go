package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"skyops/internal/domain"
)

func TestTotalCost(t *testing.T) {
	d := baseDeployment()
	require.Equal(t, 0.0, TotalCost(d))

	d.DailyLogs = []domain.DailyLog{
		{ID: "l1", DailyPay: 200, BonusPay: 50},
		{ID: "l2", DailyPay: 300},
		{ID: "l3", DailyPay: 100, BonusPay: 25},
	}
	require.Equal(t, 675.0, TotalCost(d))

	// stable under reordering
	d.DailyLogs[0], d.DailyLogs[2] = d.DailyLogs[2], d.DailyLogs[0]
	require.Equal(t, 675.0, TotalCost(d))
}

func TestPreview(t *testing.T) {
	snap := domain.PricingSnapshot{TotalBaseCost: 1000}

	out, err := Preview(snap, 30)
	require.NoError(t, err)
	require.Equal(t, 30, out.MarkupPercentage)
	require.InDelta(t, 1300.0, out.RecommendedPrice, 1e-9)
	require.InDelta(t, 300.0, out.EstimatedProfit, 1e-9)
	require.InDelta(t, 300.0/1300.0, out.EstimatedMargin, 1e-9)

	out, err = Preview(snap, 0)
	require.NoError(t, err)
	require.Equal(t, 1000.0, out.RecommendedPrice)
	require.Equal(t, 0.0, out.EstimatedProfit)

	// zero base cost must not divide by zero
	out, err = Preview(domain.PricingSnapshot{}, 50)
	require.NoError(t, err)
	require.Equal(t, 0.0, out.EstimatedMargin)
}

func TestPreviewMarkupBounds(t *testing.T) {
	_, err := Preview(domain.PricingSnapshot{}, -1)
	require.Error(t, err)
	_, err = Preview(domain.PricingSnapshot{}, 201)
	require.Error(t, err)
	_, err = Preview(domain.PricingSnapshot{}, 200)
	require.NoError(t, err)
}

func TestCalculateMarkupBounds(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)

	bad := 250
	_, err := e.Calculate(context.Background(), sess, &bad)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestCalculateDiscardsStaleResponse(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	store.pricing = domain.PricingSnapshot{TotalBaseCost: 500, MarkupPercentage: 20}
	e, sess := newTestEngine(t, store)

	// a newer request is issued while the first response is in flight
	store.pricingHook = func() {
		store.pricingHook = nil
		e.pricingSeq++
	}
	_, err := e.Calculate(context.Background(), sess, nil)
	require.ErrorIs(t, err, ErrStalePricing)

	// the next request is current again
	snap, err := e.Calculate(context.Background(), sess, nil)
	require.NoError(t, err)
	require.Equal(t, 500.0, snap.TotalBaseCost)
}

func TestSavePricingRefreshesKeepingStagedDays(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)
	require.NoError(t, e.StageDay(sess, "2024-03-20"))

	snap := domain.PricingSnapshot{
		TotalBaseCost:    800,
		MarkupPercentage: 25,
		RecommendedPrice: 1000,
		TravelCost:       120,
		EquipmentCost:    80,
	}
	require.NoError(t, e.SavePricing(context.Background(), sess, snap))

	require.Equal(t, 800.0, store.lastPricing.BaseCost)
	require.Equal(t, 25, store.lastPricing.MarkupPercentage)
	require.Equal(t, 1000.0, store.lastPricing.ClientPrice)
	require.Equal(t, 120.0, store.lastPricing.TravelCosts)
	require.Equal(t, 80.0, store.lastPricing.EquipmentCosts)

	// the refetched session carries the saved fields and the staged day
	require.Equal(t, 1000.0, sess.Deployment.ClientPrice)
	require.True(t, sess.StagedDays["2024-03-20"])
	require.Contains(t, e.Days(sess), "2024-03-20")
}
