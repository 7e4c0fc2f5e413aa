// Package billing is a thin pass-through to Razorpay orders.
package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// zero-decimal currencies are charged in whole units.
var zeroDecimal = map[string]bool{"JPY": true, "KRW": true, "VND": true, "CLP": true}

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Order struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      HTTPClient
}

type Option func(*Client)

func WithHTTPClient(c HTTPClient) Option {
	return func(cl *Client) { cl.http = c }
}

func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = strings.TrimSuffix(u, "/") }
}

func NewClient(keyID, keySecret string, options ...Option) *Client {
	c := &Client{keyID: keyID, keySecret: keySecret, baseURL: defaultBaseURL, http: http.DefaultClient}
	for _, option := range options {
		option(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.keyID != "" && c.keySecret != ""
}

// KeyID is the public key the checkout widget needs alongside the order.
func (c *Client) KeyID() string {
	return c.keyID
}

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// MinorUnits converts a major-unit amount to the integer Razorpay expects.
func MinorUnits(amount decimal.Decimal, currency string) (int64, error) {
	if !amount.IsPositive() {
		return 0, apperr.Validation("amount must be positive")
	}
	exp := int32(2)
	if zeroDecimal[strings.ToUpper(currency)] {
		exp = 0
	}
	minor := amount.Shift(exp)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, apperr.Validation("amount has too many decimal places for %s", currency)
	}
	if minor.GreaterThan(maxMinorUnits) {
		return 0, apperr.Validation("amount is too large")
	}
	return minor.IntPart(), nil
}

func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (Order, error) {
	if !c.Configured() {
		return Order{}, apperr.NotConfigured("payments")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = "INR"
	}
	minor, err := MinorUnits(amount, currency)
	if err != nil {
		return Order{}, err
	}

	body, err := json.Marshal(map[string]any{
		"amount":   minor,
		"currency": currency,
		"receipt":  receipt,
	})
	if err != nil {
		return Order{}, fmt.Errorf("encode order: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return Order{}, fmt.Errorf("create order request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Order{}, &apperr.UpstreamError{Provider: "razorpay", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var failure struct {
			Error struct {
				Description string `json:"description"`
			} `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&failure)
		if resp.StatusCode == http.StatusBadRequest && failure.Error.Description != "" {
			return Order{}, apperr.Validation("%s", failure.Error.Description)
		}
		return Order{}, &apperr.UpstreamError{Provider: "razorpay", StatusCode: resp.StatusCode}
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return Order{}, &apperr.UpstreamError{Provider: "razorpay", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode order: %w", err)}
	}
	return order, nil
}

// VerifySignature checks the checkout callback signature, an HMAC-SHA256 of
// "orderID|paymentID" keyed with the key secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) error {
	if !c.Configured() {
		return apperr.NotConfigured("payments")
	}
	if orderID == "" || paymentID == "" || signature == "" {
		return apperr.Validation("orderId, paymentId and signature are required")
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return apperr.Validation("signature is not valid hex")
	}
	if !hmac.Equal(got, c.sign(orderID+"|"+paymentID)) {
		return apperr.Auth("payment signature mismatch")
	}
	return nil
}

func (c *Client) sign(payload string) []byte {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
