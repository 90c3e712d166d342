package entity

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentStatusIsTerminal(t *testing.T) {
	assert.False(t, IntentStatusPending.IsTerminal())
	assert.False(t, IntentStatusProcessing.IsTerminal())
	assert.True(t, IntentStatusSucceeded.IsTerminal())
	assert.True(t, IntentStatusFailed.IsTerminal())
	assert.True(t, IntentStatusCanceled.IsTerminal())
}

func TestTouchAlwaysAdvances(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	intent := &PaymentIntent{UpdatedAt: now}

	intent.Touch(now)
	assert.True(t, intent.UpdatedAt.After(now))

	prev := intent.UpdatedAt
	intent.Touch(now.Add(-time.Hour))
	assert.True(t, intent.UpdatedAt.After(prev))

	intent.Touch(now.Add(time.Hour))
	assert.Equal(t, now.Add(time.Hour), intent.UpdatedAt)
}

func TestCloneDoesNotAliasMetadata(t *testing.T) {
	orig := &PaymentIntent{ID: "sbx_1", Metadata: map[string]string{"order": "1"}}
	c := orig.Clone()
	c.Metadata["order"] = "2"
	assert.Equal(t, "1", orig.Metadata["order"])
}

func TestIntervalPeriodEnd(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), IntervalMonthly.PeriodEnd(start))
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), IntervalYearly.PeriodEnd(start))
	assert.False(t, Interval("weekly").Valid())
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "9.99 USD", FormatAmount(999, "usd"))
	assert.Equal(t, "5000 KRW", FormatAmount(5000, "KRW"))
	assert.Equal(t, "10.5", MajorUnits(1050, "EUR").String())
}

func TestToSubscription(t *testing.T) {
	now := time.Date(2026, 5, 10, 8, 0, 0, 0, time.UTC)
	started := now.Add(-48 * time.Hour)
	periodEnd := started.AddDate(0, 1, 0)
	premium := &Plan{ID: "premium_monthly", Name: "Premium Monthly", Amount: 999, Currency: "USD", Interval: IntervalMonthly}

	t.Run("catalog plan and remote fields", func(t *testing.T) {
		sub := ToSubscription(&RemoteProfile{
			AccountID:        "acct_1",
			PlanID:           "premium_monthly",
			Status:           "active",
			StartedAt:        &started,
			CurrentPeriodEnd: &periodEnd,
		}, premium, nil, now)

		assert.Equal(t, "premium_monthly", sub.ID)
		assert.Equal(t, "Premium Monthly", sub.PlanName)
		assert.Equal(t, int64(999), sub.Amount)
		assert.Equal(t, SubscriptionStatusActive, sub.Status)
		assert.Equal(t, started, sub.CurrentPeriodStart)
		assert.Equal(t, periodEnd, sub.CurrentPeriodEnd)
		assert.False(t, sub.CancelAtPeriodEnd)
	})

	t.Run("remote cancellation overwrites local state", func(t *testing.T) {
		existing := &Subscription{
			ID: "premium_monthly", AccountID: "acct_1", PlanID: "premium_monthly", PlanName: "Premium Monthly",
			Status: SubscriptionStatusActive, CancelAtPeriodEnd: true, PaymentIntentID: "pi_1",
			CreatedAt: now.Add(-72 * time.Hour), UpdatedAt: now.Add(-time.Hour),
		}
		sub := ToSubscription(&RemoteProfile{AccountID: "acct_1", PlanID: "premium_monthly", Status: "refunded"}, nil, existing, now)

		assert.Equal(t, SubscriptionStatusCanceled, sub.Status)
		assert.False(t, sub.CancelAtPeriodEnd)
		assert.Equal(t, "pi_1", sub.PaymentIntentID)
		assert.Equal(t, existing.CreatedAt, sub.CreatedAt)
		assert.True(t, sub.UpdatedAt.After(existing.UpdatedAt))
	})

	t.Run("local cancel-at-period-end survives when remote is silent", func(t *testing.T) {
		existing := &Subscription{ID: "premium_monthly", Status: SubscriptionStatusActive, CancelAtPeriodEnd: true}
		sub := ToSubscription(&RemoteProfile{AccountID: "acct_1", PlanID: "premium_monthly", Status: "active"}, premium, existing, now)
		assert.True(t, sub.CancelAtPeriodEnd)

		remoteFalse := false
		sub = ToSubscription(&RemoteProfile{AccountID: "acct_1", PlanID: "premium_monthly", Status: "active", CancelAtPeriodEnd: &remoteFalse}, premium, existing, now)
		assert.False(t, sub.CancelAtPeriodEnd)
	})

	t.Run("unknown plan is derived from id", func(t *testing.T) {
		sub := ToSubscription(&RemoteProfile{AccountID: "acct_1", PlanID: "team_yearly", Status: "past_due"}, nil, nil, now)
		require.NotNil(t, sub)
		assert.Equal(t, "Team Yearly", sub.PlanName)
		assert.Equal(t, IntervalYearly, sub.Interval)
		assert.Equal(t, SubscriptionStatusPastDue, sub.Status)
		assert.Equal(t, IntervalYearly.PeriodEnd(sub.CurrentPeriodStart), sub.CurrentPeriodEnd)
	})

	t.Run("derived name keeps multibyte initials intact", func(t *testing.T) {
		sub := ToSubscription(&RemoteProfile{AccountID: "acct_1", PlanID: "élite_프로", Status: "active"}, nil, nil, now)
		require.NotNil(t, sub)
		assert.Equal(t, "Élite 프로", sub.PlanName)
		assert.True(t, utf8.ValidString(sub.PlanName))
	})
}

func TestHasPaidPlan(t *testing.T) {
	assert.False(t, (&RemoteProfile{}).HasPaidPlan())
	assert.False(t, (&RemoteProfile{PlanID: FreePlanID}).HasPaidPlan())
	assert.True(t, (&RemoteProfile{PlanID: "premium_monthly"}).HasPaidPlan())
	var nilProfile *RemoteProfile
	assert.False(t, nilProfile.HasPaidPlan())
}

func TestPaginationParams(t *testing.T) {
	tests := []struct {
		in         PaginationParams
		want       PaginationParams
		wantOffset int
	}{
		{PaginationParams{}, PaginationParams{Page: 1, Limit: DefaultPageSize}, 0},
		{PaginationParams{Page: 3, Limit: 10}, PaginationParams{Page: 3, Limit: 10}, 20},
		{PaginationParams{Page: -2, Limit: 500}, PaginationParams{Page: 1, Limit: MaxPageSize}, 0},
	}
	for _, tt := range tests {
		got := tt.in.Normalized()
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.wantOffset, got.Offset())
	}

	assert.Equal(t, 3, NewPaginationMeta(1, 2, 5).TotalPages)
	assert.Equal(t, 0, NewPaginationMeta(1, 20, 0).TotalPages)
	assert.Equal(t, 0, NewPaginationMeta(1, 0, 7).TotalPages)
}
