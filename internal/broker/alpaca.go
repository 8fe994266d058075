package broker

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

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"TradeWarden/internal/model"
)

// AlpacaBroker submits market orders to the Alpaca trading REST API
// (paper or live endpoint depending on BaseURL).
type AlpacaBroker struct {
	BaseURL   string
	KeyID     string
	SecretKey string
	Client    *http.Client
}

// NewAlpacaBroker creates a broker client with optional proxy support.
func NewAlpacaBroker(baseURL, keyID, secretKey, proxyURL string) *AlpacaBroker {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AlpacaBroker{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		KeyID:     keyID,
		SecretKey: secretKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (b *AlpacaBroker) Name() string { return "alpaca" }

// orderRequest is the Alpaca order payload. Quantities are decimal
// strings on the wire.
type orderRequest struct {
	Symbol        string `json:"symbol"`
	Qty           string `json:"qty"`
	Side          string `json:"side"`
	Type          string `json:"type"`
	TimeInForce   string `json:"time_in_force"`
	ClientOrderID string `json:"client_order_id"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SubmitMarketOrder places a day market order. The client order ID makes
// retried submissions idempotent on the broker side.
func (b *AlpacaBroker) SubmitMarketOrder(ctx context.Context, symbol string, qty float64, side model.TradeAction) error {
	payload := orderRequest{
		Symbol:        symbol,
		Qty:           decimal.NewFromFloat(qty).String(),
		Side:          strings.ToLower(string(side)),
		Type:          "market",
		TimeInForce:   "day",
		ClientOrderID: uuid.NewString(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.BaseURL+"/v2/orders", bytes.NewReader(body))
	if err != nil {
		return err
	}
	b.setAuth(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("submit order: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var order orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return fmt.Errorf("decode order response: %w", err)
	}
	if order.Status == "rejected" || order.Status == "canceled" {
		return fmt.Errorf("order %s not accepted: status %s", order.ID, order.Status)
	}
	return nil
}

// Account holds the broker-side balances, parsed from Alpaca's
// string-encoded money fields.
type Account struct {
	Equity      float64
	Cash        float64
	BuyingPower float64
}

type accountResponse struct {
	Equity      string `json:"equity"`
	Cash        string `json:"cash"`
	BuyingPower string `json:"buying_power"`
}

// GetAccount fetches the current account balances.
func (b *AlpacaBroker) GetAccount(ctx context.Context) (*Account, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", b.BaseURL+"/v2/account", nil)
	if err != nil {
		return nil, err
	}
	b.setAuth(req)

	resp, err := b.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch account: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch account: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	var raw accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode account: %w", err)
	}

	acct := &Account{}
	fields := []struct {
		raw string
		dst *float64
	}{
		{raw.Equity, &acct.Equity},
		{raw.Cash, &acct.Cash},
		{raw.BuyingPower, &acct.BuyingPower},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := decimal.NewFromString(f.raw)
		if err != nil {
			return nil, fmt.Errorf("parse account field %q: %w", f.raw, err)
		}
		*f.dst = d.InexactFloat64()
	}
	return acct, nil
}

func (b *AlpacaBroker) setAuth(req *http.Request) {
	req.Header.Set("APCA-API-KEY-ID", b.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", b.SecretKey)
}
