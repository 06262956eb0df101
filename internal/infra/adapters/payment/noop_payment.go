package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/Ran-Mewo/CatPaymentBot/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is a simple in-memory gateway to use in tests and local
// runs. Checkouts start waiting; SetStatus drives the next poll result.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	seq      int64
	statuses map[string]string // status URL -> current status
	webhooks []map[string]any
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{
		statuses: make(map[string]string),
	}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

func (g *NoopPaymentGateway) next() string {
	g.seq++
	return fmt.Sprintf("noop-%d", g.seq)
}

func (g *NoopPaymentGateway) CreateCheckout(ctx context.Context, params map[string]string) (*adapter.CheckoutResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	statusURL := "https://example.test/status/" + id
	g.statuses[statusURL] = "waiting"
	return &adapter.CheckoutResponse{
		ID:          id,
		Status:      "waiting",
		StatusURL:   statusURL,
		CheckoutURL: "https://example.test/pay/" + id,
		Raw:         map[string]any{"id": id, "status": "waiting"},
	}, nil
}

func (g *NoopPaymentGateway) FetchStatus(ctx context.Context, statusURL string) (map[string]any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	status, ok := g.statuses[statusURL]
	if !ok {
		return nil, fmt.Errorf("noop: unknown status url %q", statusURL)
	}
	return map[string]any{"status": status}, nil
}

func (g *NoopPaymentGateway) PostWebhook(ctx context.Context, url string, payload map[string]any) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.webhooks = append(g.webhooks, payload)
	return nil
}

// SetStatus overrides what the next FetchStatus on the URL reports.
func (g *NoopPaymentGateway) SetStatus(statusURL, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[statusURL] = status
}

// Webhooks returns every payload delivered so far.
func (g *NoopPaymentGateway) Webhooks() []map[string]any {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]map[string]any, len(g.webhooks))
	copy(out, g.webhooks)
	return out
}
