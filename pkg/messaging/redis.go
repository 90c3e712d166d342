// Package messaging은 서비스 간 이벤트 전달을 위한 Redis Pub/Sub 클라이언트를 제공합니다.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Publisher 메시지 발행 인터페이스
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Close() error
}

// Options Redis 연결 옵션
type Options struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout 연결 확인(Ping) 제한 시간. 0이면 5초를 사용합니다.
	DialTimeout time.Duration
}

// redisClient Redis 클라이언트 구현체
type redisClient struct {
	client *redis.Client
}

// NewRedisClient Redis 클라이언트를 생성하고 연결을 확인합니다.
func NewRedisClient(ctx context.Context, opts Options) (Publisher, error) {
	timeout := opts.DialTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:        opts.Addr,
		Password:    opts.Password,
		DB:          opts.DB,
		DialTimeout: timeout,
	})

	// Redis 연결 테스트
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("Redis 연결 실패: %w", err)
	}

	return &redisClient{client: client}, nil
}

// Publish 메시지를 JSON으로 직렬화해 발행합니다.
func (r *redisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("메시지 직렬화 실패: %w", err)
	}

	return r.client.Publish(ctx, channel, payload).Err()
}

// Close Redis 클라이언트 종료
func (r *redisClient) Close() error {
	return r.client.Close()
}
