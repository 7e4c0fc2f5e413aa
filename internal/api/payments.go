package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/auth"
)

type createOrderRequest struct {
	UserID   string          `json:"userId"`
	Amount   json.RawMessage `json:"amount"`
	Currency string          `json:"currency"`
	Receipt  string          `json:"receipt"`
}

type verifyPaymentRequest struct {
	UserID    string `json:"userId"`
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if !s.billing.Configured() {
		writeError(w, apperr.NotConfigured("payments"))
		return
	}
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := auth.ResolveUser(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(rawText(req.Amount)))
	if err != nil {
		writeError(w, apperr.Validation("amount must be a number"))
		return
	}
	receipt := strings.TrimSpace(req.Receipt)
	if receipt == "" {
		receipt = "rcpt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:20]
	}

	order, err := s.billing.CreateOrder(r.Context(), amount, req.Currency, receipt)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "data": order, "order": order, "keyId": s.billing.KeyID()})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	if !s.billing.Configured() {
		writeError(w, apperr.NotConfigured("payments"))
		return
	}
	var req verifyPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if _, err := auth.ResolveUser(r.Context(), req.UserID); err != nil {
		writeError(w, err)
		return
	}
	if err := s.billing.VerifySignature(req.OrderID, req.PaymentID, req.Signature); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "message": "Payment verified"})
}
