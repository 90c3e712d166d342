package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/repository"
)

const profileColumns = "account_id,plan_id,subscription_status,subscription_started_at,current_period_end,cancel_at_period_end"

// BackendError is a non-2xx answer from the backend REST API.
type BackendError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

// SupabaseBackendClient talks to the authoritative profile backend through
// its PostgREST API. It implements both EntitlementService and ProfileFetcher.
type SupabaseBackendClient struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	serviceKey string
	logger     *zap.Logger
}

// NewSupabaseBackendClient creates a backend client. serviceKey is sent as
// the bearer token when set; otherwise the anon apiKey is used.
func NewSupabaseBackendClient(baseURL, apiKey, serviceKey string, timeout time.Duration, logger *zap.Logger) *SupabaseBackendClient {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SupabaseBackendClient{
		client:     &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		serviceKey: serviceKey,
		logger:     logger,
	}
}

var (
	_ repository.EntitlementService = (*SupabaseBackendClient)(nil)
	_ repository.ProfileFetcher     = (*SupabaseBackendClient)(nil)
)

func (c *SupabaseBackendClient) GrantEntitlement(ctx context.Context, accountID string, interval entity.Interval) error {
	return c.rpc(ctx, "grant_entitlement", map[string]string{
		"p_account_id": accountID,
		"p_interval":   string(interval),
	})
}

func (c *SupabaseBackendClient) RevokeEntitlement(ctx context.Context, accountID string) error {
	return c.rpc(ctx, "revoke_entitlement", map[string]string{
		"p_account_id": accountID,
	})
}

// FetchProfile returns the account's profile. An account without a profile
// row is reported as having no paid plan.
func (c *SupabaseBackendClient) FetchProfile(ctx context.Context, accountID string) (*entity.RemoteProfile, error) {
	params := url.Values{}
	params.Add("account_id", fmt.Sprintf("eq.%s", accountID))
	params.Add("select", profileColumns)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/rest/v1/profiles?%s", c.baseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	body, err := c.do(req, "fetch_profile")
	if err != nil {
		return nil, err
	}

	var profiles []entity.RemoteProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode profile response: %w", err)
	}

	if len(profiles) == 0 {
		c.logger.Debug("No profile row for account", zap.String("account_id", accountID))
		return &entity.RemoteProfile{AccountID: accountID}, nil
	}

	profile := profiles[0]
	if profile.AccountID == "" {
		profile.AccountID = accountID
	}
	return &profile, nil
}

func (c *SupabaseBackendClient) rpc(ctx context.Context, fn string, args interface{}) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode %s arguments: %w", fn, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/rest/v1/rpc/%s", c.baseURL, fn), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	_, err = c.do(req, fn)
	return err
}

func (c *SupabaseBackendClient) setHeaders(req *http.Request) {
	token := c.serviceKey
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	req.Header.Set("Content-Type", "application/json")
}

func (c *SupabaseBackendClient) do(req *http.Request, op string) ([]byte, error) {
	startTime := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed",
			zap.String("operation", op),
			zap.Error(err))
		return nil, fmt.Errorf("backend %s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read backend response: %w", err)
	}

	c.logger.Debug("Backend request completed",
		zap.String("operation", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(startTime)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &BackendError{Operation: op, StatusCode: resp.StatusCode, Body: truncateBody(body, 200)}
	}
	return body, nil
}

// truncateBody keeps at most limit runes of an error body for logs.
func truncateBody(body []byte, limit int) string {
	s := strings.ToValidUTF8(string(body), "")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
