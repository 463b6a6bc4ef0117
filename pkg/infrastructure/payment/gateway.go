package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"

	"ecommerce/pkg/domain/model"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
	Timeout   time.Duration
}

// Gateway creates provider orders over the gateway's REST API using basic
// auth with the key pair.
type Gateway struct {
	config Config
	client *http.Client
}

var _ model.PaymentGateway = (*Gateway)(nil)

func NewGateway(config Config) *Gateway {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Gateway{config: config, client: &http.Client{Timeout: config.Timeout}}
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (g *Gateway) CreateIntent(ctx context.Context, amountMinor int64, currency, reference string) (*model.PaymentIntent, error) {
	body, err := json.Marshal(createOrderRequest{Amount: amountMinor, Currency: currency, Receipt: reference})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.config.KeyID, g.config.KeySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "call payment gateway")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "read payment gateway response")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var gatewayErr errorResponse
		if json.Unmarshal(payload, &gatewayErr) == nil && gatewayErr.Error.Description != "" {
			return nil, errors.Errorf("payment gateway returned %d: %s", resp.StatusCode, gatewayErr.Error.Description)
		}
		return nil, errors.Errorf("payment gateway returned %d", resp.StatusCode)
	}

	var intent model.PaymentIntent
	if err := json.Unmarshal(payload, &intent); err != nil {
		return nil, errors.Wrap(err, "decode payment gateway response")
	}
	return &intent, nil
}
