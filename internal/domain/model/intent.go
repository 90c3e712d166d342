package model

import (
	"time"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

// PaymentIntent is the persisted row for entity.PaymentIntent. Timestamps
// are owned by the domain, so gorm's automatic tracking is off.
type PaymentIntent struct {
	ID             string    `gorm:"primaryKey;size:100"`
	AccountID      string    `gorm:"size:100;not null;index:idx_payment_intents_account_created,priority:1"`
	Provider       string    `gorm:"size:20;not null"`
	ProviderRef    string    `gorm:"size:200"`
	Amount         int64     `gorm:"not null"`
	Currency       string    `gorm:"size:3;not null"`
	Status         string    `gorm:"size:20;not null"`
	Description    string    `gorm:"type:text"`
	Metadata       StringMap `gorm:"type:jsonb"`
	FailureCode    string    `gorm:"size:100"`
	FailureMessage string    `gorm:"type:text"`
	SubscriptionID string    `gorm:"size:100"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime:false;index:idx_payment_intents_account_created,priority:2"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime:false"`
}

// TableName specifies the table name for GORM
func (PaymentIntent) TableName() string {
	return "payment_intents"
}

func NewPaymentIntent(e *entity.PaymentIntent) *PaymentIntent {
	var metadata StringMap
	if len(e.Metadata) > 0 {
		metadata = StringMap(e.Metadata)
	}
	return &PaymentIntent{
		ID:             e.ID,
		AccountID:      e.AccountID,
		Provider:       e.Provider,
		ProviderRef:    e.ProviderRef,
		Amount:         e.Amount,
		Currency:       e.Currency,
		Status:         string(e.Status),
		Description:    e.Description,
		Metadata:       metadata,
		FailureCode:    e.FailureCode,
		FailureMessage: e.FailureMessage,
		SubscriptionID: e.SubscriptionID,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

func (m *PaymentIntent) ToEntity() *entity.PaymentIntent {
	return &entity.PaymentIntent{
		ID:             m.ID,
		AccountID:      m.AccountID,
		Provider:       m.Provider,
		ProviderRef:    m.ProviderRef,
		Amount:         m.Amount,
		Currency:       m.Currency,
		Status:         entity.IntentStatus(m.Status),
		Description:    m.Description,
		Metadata:       map[string]string(m.Metadata),
		FailureCode:    m.FailureCode,
		FailureMessage: m.FailureMessage,
		SubscriptionID: m.SubscriptionID,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
