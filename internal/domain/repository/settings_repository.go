package repository

import "context"

// SettingsRepository stores raw JSON documents by key. Get returns
// (nil, nil) for a missing key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}
