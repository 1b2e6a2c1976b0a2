package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"skyops/internal/domain"
	"skyops/internal/remote"
)

func TestEarnings(t *testing.T) {
	d := baseDeployment()
	d.DailyLogs = []domain.DailyLog{
		{TechnicianID: "t1", DailyPay: 200, BonusPay: 50},
		{TechnicianID: "t2", DailyPay: 300},
		{TechnicianID: "t1", DailyPay: 200},
	}
	require.Equal(t, 450.0, Earnings(d, "t1"))
	require.Equal(t, 300.0, Earnings(d, "t2"))
	require.Equal(t, 0.0, Earnings(d, "t3"))
}

func TestGenerateLinkRejectsZeroEarnings(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)

	_, err := e.GenerateLink(context.Background(), sess, "tech-1", 30)
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	require.Contains(t, ve.Msg, "no recorded earnings")

	_, err = e.GenerateLink(context.Background(), sess, "", 30)
	require.Error(t, err)
}

func TestGenerateLink(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	store.deployment.DailyLogs = []domain.DailyLog{
		{ID: "l1", DeploymentID: "dep-1", TechnicianID: "tech-1", Date: "2024-03-01", DailyPay: 200},
	}
	e, sess := newTestEngine(t, store)

	link, err := e.GenerateLink(context.Background(), sess, "tech-1", 45)
	require.NoError(t, err)
	require.Equal(t, "dep-1", link.DeploymentID)
	require.Equal(t, "tech-1", link.PersonnelID)
	require.Equal(t, 45, link.PaymentTermsDays)
	require.NotEmpty(t, link.URL)
}

func TestSendBatchExplicitIDsWin(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)
	sess.Selection["t9"] = true

	_, err := e.SendBatch(context.Background(), sess, []string{"t1", "t2"}, SendOptions{NotifyPilots: true})
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t2"}, store.lastSend.PersonnelIDs)
	require.True(t, store.lastSend.NotifyPilots)
}

func TestSendBatchUsesSelection(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)
	sess.Selection["t3"] = true
	sess.Selection["t1"] = true

	_, err := e.SendBatch(context.Background(), sess, nil, SendOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{"t1", "t3"}, store.lastSend.PersonnelIDs)
}

func TestSendBatchEmptyMeansAllEligible(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)

	_, err := e.SendBatch(context.Background(), sess, nil, SendOptions{Note: "march invoices"})
	require.NoError(t, err)
	require.Empty(t, store.lastSend.PersonnelIDs)
	require.Equal(t, "march invoices", store.lastSend.Note)
}

func TestSendBatchSurfacesMockTransport(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	store.sendResult = remote.SendResult{Message: "generated only", Mock: true}
	e, sess := newTestEngine(t, store)

	res, err := e.SendBatch(context.Background(), sess, nil, SendOptions{})
	require.NoError(t, err)
	require.True(t, res.Mock)
	require.Equal(t, "generated only", res.Message)
}

func TestNotifyAssignment(t *testing.T) {
	store := &fakeStore{deployment: baseDeployment()}
	e, sess := newTestEngine(t, store)

	_, err := e.NotifyAssignment(context.Background(), sess, "u1", NotifyKind("everyone"), "")
	require.Error(t, err)

	_, err = e.NotifyAssignment(context.Background(), sess, "", NotifyMonitor, "")
	require.Error(t, err)

	res, err := e.NotifyAssignment(context.Background(), sess, "u1", NotifyMonitor, "Sam Ortega")
	require.NoError(t, err)
	require.Equal(t, "notified u1", res.Message)
	require.Equal(t, "monitor", store.lastNotice.Type)
	require.Equal(t, "Sam Ortega", store.lastNotice.DisplayName)
}
