package model

import (
	"time"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

// Subscription is keyed by (account_id, id) because the id is the plan id.
type Subscription struct {
	AccountID          string    `gorm:"primaryKey;size:100"`
	ID                 string    `gorm:"primaryKey;size:100"`
	PlanID             string    `gorm:"size:100;not null"`
	PlanName           string    `gorm:"size:200"`
	Amount             int64     `gorm:"not null"`
	Currency           string    `gorm:"size:3"`
	Interval           string    `gorm:"column:billing_interval;size:20;not null"`
	Status             string    `gorm:"size:20;not null"`
	CurrentPeriodStart time.Time `gorm:"not null"`
	CurrentPeriodEnd   time.Time `gorm:"not null"`
	CancelAtPeriodEnd  bool      `gorm:"not null"`
	PaymentIntentID    string    `gorm:"size:100"`
	CreatedAt          time.Time `gorm:"not null;autoCreateTime:false"`
	UpdatedAt          time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName specifies the table name for GORM
func (Subscription) TableName() string {
	return "subscriptions"
}

func NewSubscription(e *entity.Subscription) *Subscription {
	return &Subscription{
		AccountID:          e.AccountID,
		ID:                 e.ID,
		PlanID:             e.PlanID,
		PlanName:           e.PlanName,
		Amount:             e.Amount,
		Currency:           e.Currency,
		Interval:           string(e.Interval),
		Status:             string(e.Status),
		CurrentPeriodStart: e.CurrentPeriodStart,
		CurrentPeriodEnd:   e.CurrentPeriodEnd,
		CancelAtPeriodEnd:  e.CancelAtPeriodEnd,
		PaymentIntentID:    e.PaymentIntentID,
		CreatedAt:          e.CreatedAt,
		UpdatedAt:          e.UpdatedAt,
	}
}

func (m *Subscription) ToEntity() *entity.Subscription {
	return &entity.Subscription{
		ID:                 m.ID,
		AccountID:          m.AccountID,
		PlanID:             m.PlanID,
		PlanName:           m.PlanName,
		Amount:             m.Amount,
		Currency:           m.Currency,
		Interval:           entity.Interval(m.Interval),
		Status:             entity.SubscriptionStatus(m.Status),
		CurrentPeriodStart: m.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   m.CurrentPeriodEnd.UTC(),
		CancelAtPeriodEnd:  m.CancelAtPeriodEnd,
		PaymentIntentID:    m.PaymentIntentID,
		CreatedAt:          m.CreatedAt.UTC(),
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}
