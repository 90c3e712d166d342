package repository

import (
	"context"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
)

// EntitlementService performs the authoritative remote mutations. Both
// calls are idempotent on the backend.
type EntitlementService interface {
	GrantEntitlement(ctx context.Context, accountID string, interval entity.Interval) error
	RevokeEntitlement(ctx context.Context, accountID string) error
}

// ProfileFetcher reads the authoritative account profile.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, accountID string) (*entity.RemoteProfile, error)
}

// PlanCatalog resolves purchasable plans. Get returns nil for unknown ids.
type PlanCatalog interface {
	Get(planID string) *entity.Plan
	List() []*entity.Plan
}
