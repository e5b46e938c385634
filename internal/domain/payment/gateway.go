// internal/domain/payment/gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"github.com/your-org/storefront/internal/config"
)

// ErrGatewayUnavailable is returned while the circuit breaker is open
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Gateway is the card processor
type Gateway interface {
	GenerateClientToken(ctx context.Context) (string, error)
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// ChargeOptions are passed through to the processor
type ChargeOptions struct {
	SubmitForSettlement bool `json:"submit_for_settlement"`
}

// ChargeRequest is a sale of a fixed amount against a payment nonce
type ChargeRequest struct {
	Amount  string        `json:"amount"`
	Nonce   string        `json:"payment_method_nonce"`
	Options ChargeOptions `json:"options"`
}

// ChargeResult is the processor's answer to a sale
type ChargeResult struct {
	Success       bool   `json:"is_success"`
	TransactionID string `json:"transaction_id"`
	Message       string `json:"message"`
}

type clientTokenResponse struct {
	ClientToken string `json:"client_token"`
}

// HTTPGateway talks to the processor's REST API with basic auth
type HTTPGateway struct {
	baseURL    string
	merchantID string
	publicKey  string
	privateKey string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
	logger     *logrus.Logger
}

// NewHTTPGateway creates a gateway client guarded by a circuit breaker
func NewHTTPGateway(cfg config.GatewayConfig, logger *logrus.Logger) *HTTPGateway {
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	g := &HTTPGateway{
		baseURL:    cfg.BaseURL,
		merchantID: cfg.MerchantID,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}

	g.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "payment-gateway",
		MaxRequests: 1,
		Timeout:     cfg.BreakerOpenState,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return g
}

// GenerateClientToken asks the processor for a token the card form uses
func (g *HTTPGateway) GenerateClientToken(ctx context.Context) (string, error) {
	body, err := g.call(ctx, http.MethodPost, "/client_token", nil)
	if err != nil {
		return "", err
	}

	var resp clientTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse client token: %w", err)
	}
	if resp.ClientToken == "" {
		return "", fmt.Errorf("gateway returned an empty client token")
	}
	return resp.ClientToken, nil
}

// Charge creates a sale. A declined sale is a result with Success false,
// not an error.
func (g *HTTPGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body, err := g.call(ctx, http.MethodPost, "/transactions", req)
	if err != nil {
		return nil, err
	}

	var result ChargeResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse charge result: %w", err)
	}
	return &result, nil
}

// statusError marks responses the breaker should not count as failures
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway call failed with status %d: %s", e.status, string(e.body))
}

// call runs one request through the breaker. Transport errors and 5xx
// responses count as failures; 4xx bodies are handed back for decoding.
func (g *HTTPGateway) call(ctx context.Context, method, endpoint string, data interface{}) ([]byte, error) {
	body, err := g.breaker.Execute(func() ([]byte, error) {
		body, err := g.do(ctx, method, endpoint, data)
		var se *statusError
		if errors.As(err, &se) && se.status < 500 {
			return se.body, nil
		}
		return body, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return body, err
}

func (g *HTTPGateway) do(ctx context.Context, method, endpoint string, data interface{}) ([]byte, error) {
	var reqBody []byte
	if data != nil {
		var err error
		reqBody, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request data: %w", err)
		}
	}

	url := fmt.Sprintf("%s/merchants/%s%s", g.baseURL, g.merchantID, endpoint)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(g.publicKey, g.privateKey)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make gateway call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"status":   resp.StatusCode,
		"latency":  time.Since(start).String(),
	}).Debug("Gateway call finished")

	if resp.StatusCode >= 400 {
		return nil, &statusError{status: resp.StatusCode, body: respBody}
	}
	return respBody, nil
}
