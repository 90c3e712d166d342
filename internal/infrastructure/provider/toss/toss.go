package toss

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-billing/internal/domain/entity"
	"github.com/wekeepgrowing/semo-billing/internal/domain/provider"
)

const (
	tossAPIBaseURL = "https://api.tosspayments.com"
	tossAPIVersion = "v1"

	// IntentPrefix namespaces order ids generated for Toss
	IntentPrefix = "toss_"

	codeAlreadyProcessed = "ALREADY_PROCESSED_PAYMENT"
)

// TossProvider implements the PaymentProvider interface for Toss Payments.
// Toss is redirect based: the intent id is sent to the checkout widget as
// orderId and the widget hands back a paymentKey, which is the
// authorization passed to Advance.
type TossProvider struct {
	secretKey string
	clientKey string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewTossProvider creates a new Toss provider. An empty baseURL uses the
// public Toss API.
func NewTossProvider(secretKey, clientKey, baseURL string, logger *zap.Logger) *TossProvider {
	if baseURL == "" {
		baseURL = tossAPIBaseURL
	}
	return &TossProvider{
		secretKey: secretKey,
		clientKey: clientKey,
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 30 * time.Second},
		logger:    logger,
	}
}

// GetProviderName returns the provider name
func (t *TossProvider) GetProviderName() string {
	return string(provider.ProviderTypeToss)
}

// ClientKey is exposed to the checkout widget
func (t *TossProvider) ClientKey() string {
	return t.clientKey
}

func (t *TossProvider) Owns(intentID string) bool {
	return strings.HasPrefix(intentID, IntentPrefix)
}

// Create generates the order id locally; Toss learns about the order only
// when the customer opens the widget.
func (t *TossProvider) Create(ctx context.Context, req *provider.CreateIntentRequest) (*entity.PaymentIntent, error) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entity.PaymentIntent{
		ID:          IntentPrefix + strings.ReplaceAll(uuid.NewString(), "-", ""),
		AccountID:   req.AccountID,
		Provider:    t.GetProviderName(),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      entity.IntentStatusPending,
		Description: req.Description,
		Metadata:    req.Metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// tossPayment is the subset of the Toss Payment object we read
type tossPayment struct {
	PaymentKey  string `json:"paymentKey"`
	OrderID     string `json:"orderId"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"totalAmount"`
	Currency    string `json:"currency"`
	Failure     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"failure"`
}

type tossError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Advance confirms the payment
// POST /v1/payments/confirm
func (t *TossProvider) Advance(ctx context.Context, req *provider.AdvanceIntentRequest) (*entity.PaymentIntent, error) {
	if !t.Owns(req.IntentID) {
		return nil, &provider.IntentNotFoundError{Provider: t.GetProviderName(), IntentID: req.IntentID}
	}

	paymentKey := req.Authorization
	if paymentKey == "" {
		paymentKey = req.ProviderRef
	}
	if paymentKey == "" {
		return nil, &provider.ProviderError{
			Code:    "missing_authorization",
			Message: "paymentKey is required to confirm a Toss payment",
		}
	}

	t.logger.Info("TossProvider: Confirming payment",
		zap.String("order_id", req.IntentID),
		zap.Int64("amount", req.Amount))

	body := map[string]interface{}{
		"paymentKey": paymentKey,
		"orderId":    req.IntentID,
		"amount":     req.Amount,
	}

	var payment tossPayment
	err := t.call(ctx, http.MethodPost, fmt.Sprintf("%s/%s/payments/confirm", t.baseURL, tossAPIVersion), body, &payment)

	var perr *provider.ProviderError
	if errors.As(err, &perr) && perr.Code == codeAlreadyProcessed {
		// A previous confirm went through; read back the settled payment.
		err = t.call(ctx, http.MethodGet,
			fmt.Sprintf("%s/%s/payments/%s", t.baseURL, tossAPIVersion, url.PathEscape(paymentKey)), nil, &payment)
	}
	if err != nil {
		return nil, err
	}

	if payment.OrderID != "" && payment.OrderID != req.IntentID {
		return nil, &provider.ProviderError{
			Code:    "order_mismatch",
			Message: "Toss returned a different order",
			Details: payment.OrderID,
		}
	}

	intent := &entity.PaymentIntent{
		ID:          req.IntentID,
		Provider:    t.GetProviderName(),
		ProviderRef: payment.PaymentKey,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Status:      mapTossStatus(payment.Status),
	}
	if intent.Status == entity.IntentStatusFailed && payment.Failure != nil {
		intent.FailureCode = payment.Failure.Code
		intent.FailureMessage = payment.Failure.Message
	}

	t.logger.Info("TossProvider: Payment confirmed",
		zap.String("order_id", req.IntentID),
		zap.String("toss_status", payment.Status))

	return intent, nil
}

func (t *TossProvider) call(ctx context.Context, method, endpoint string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return &provider.ProviderError{
				Code:    "MARSHAL_ERROR",
				Message: "Failed to prepare request",
				Details: err.Error(),
			}
		}
		reader = bytes.NewReader(jsonBody)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &provider.ProviderError{
			Code:    "REQUEST_ERROR",
			Message: "Failed to create request",
			Details: err.Error(),
		}
	}

	auth := base64.StdEncoding.EncodeToString([]byte(t.secretKey + ":"))
	httpReq.Header.Set("Authorization", "Basic "+auth)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		t.logger.Error("TossProvider: Request failed", zap.Error(err))
		return &provider.ProviderError{
			Code:    "API_ERROR",
			Message: "TossPayments API request failed",
			Details: err.Error(),
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &provider.ProviderError{
			Code:    "RESPONSE_ERROR",
			Message: "Failed to read response",
			Details: err.Error(),
		}
	}

	if resp.StatusCode != http.StatusOK {
		var errResp tossError
		_ = json.Unmarshal(respBody, &errResp)

		t.logger.Warn("TossProvider: API returned an error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", errResp.Code))

		if errResp.Code == "" {
			errResp.Code = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
		return &provider.ProviderError{
			Code:    errResp.Code,
			Message: errResp.Message,
			Details: string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &provider.ProviderError{
			Code:    "PARSE_ERROR",
			Message: "Failed to parse response",
			Details: err.Error(),
		}
	}
	return nil
}

func mapTossStatus(status string) entity.IntentStatus {
	switch status {
	case "DONE":
		return entity.IntentStatusSucceeded
	case "CANCELED", "PARTIAL_CANCELED":
		return entity.IntentStatusCanceled
	case "ABORTED", "EXPIRED":
		return entity.IntentStatusFailed
	case "READY":
		return entity.IntentStatusPending
	default:
		// IN_PROGRESS, WAITING_FOR_DEPOSIT
		return entity.IntentStatusProcessing
	}
}
