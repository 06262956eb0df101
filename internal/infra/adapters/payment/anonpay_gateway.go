// File: internal/infra/adapters/payment/anonpay_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain"
	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*AnonPayGateway)(nil)

// AnonPayGateway implements adapter.PaymentGateway against Trocador's AnonPay
// endpoints. Checkout creation is a GET with query parameters; the provider
// answers JSON carrying the reference id, a status URL and a checkout URL.
type AnonPayGateway struct {
	baseURL   string
	userAgent string
	client    *http.Client
	log       *zerolog.Logger
}

func NewAnonPayGateway(baseURL, userAgent string, timeout time.Duration, logger *zerolog.Logger) (*AnonPayGateway, error) {
	if baseURL == "" {
		return nil, errors.New("anonpay base url empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid anonpay base url: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if userAgent == "" {
		userAgent = "CatPaymentBot/1.0"
	}
	gwLog := logger.With().Str("component", "AnonPayGateway").Logger()
	return &AnonPayGateway{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		log:       &gwLog,
	}, nil
}

func (g *AnonPayGateway) Name() string { return "anonpay" }

func (g *AnonPayGateway) CreateCheckout(ctx context.Context, params map[string]string) (*adapter.CheckoutResponse, error) {
	const op = "create_checkout"

	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	if q.Get("direct") == "" {
		q.Set("direct", "false")
	}

	data, err := g.getJSON(ctx, op, g.baseURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	resp := &adapter.CheckoutResponse{Raw: data}
	if v, ok := data["id"]; ok && v != nil {
		resp.ID = fmt.Sprintf("%v", v)
	}
	resp.Status, _ = data["status"].(string)
	resp.StatusURL, _ = data["status_url"].(string)
	resp.CheckoutURL, _ = data["url"].(string)
	return resp, nil
}

func (g *AnonPayGateway) FetchStatus(ctx context.Context, statusURL string) (map[string]any, error) {
	return g.getJSON(ctx, "fetch_status", statusURL)
}

func (g *AnonPayGateway) PostWebhook(ctx context.Context, target string, payload map[string]any) error {
	const op = "post_webhook"

	body, err := json.Marshal(payload)
	if err != nil {
		return domain.NewGatewayError(op, 0, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return domain.NewGatewayError(op, 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return domain.NewGatewayError(op, 0, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.NewGatewayError(op, resp.StatusCode, fmt.Errorf("webhook post failed: %s", strings.TrimSpace(string(snippet))))
	}
	return nil
}

// getJSON performs a GET and decodes the body as a JSON object, mapping every
// failure mode onto domain.GatewayError.
func (g *AnonPayGateway) getJSON(ctx context.Context, op, target string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, domain.NewGatewayError(op, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.NewGatewayError(op, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.NewGatewayError(op, resp.StatusCode, err)
	}
	if resp.StatusCode >= 400 {
		return nil, domain.NewGatewayError(op, resp.StatusCode, fmt.Errorf("provider error: %s", snippet(body)))
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		g.log.Error().
			Str("op", op).
			Int("status", resp.StatusCode).
			Str("content_type", resp.Header.Get("Content-Type")).
			Str("body", snippet(body)).
			Msg("provider returned non-JSON payload")
		return nil, domain.NewGatewayError(op, resp.StatusCode, fmt.Errorf("unexpected payload: %w", err))
	}
	return data, nil
}

// snippet truncates a response body for logs and error messages.
func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if s == "" {
		return "<empty body>"
	}
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
