package store

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/market"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

const DefaultMarket = "US"

type WatchlistInput struct {
	UserID   string
	Ticker   string
	Name     string
	Market   string
	Currency string
}

func (in WatchlistInput) toItem(id string, now time.Time) (models.WatchlistItem, error) {
	userID, ticker, mkt, ccy, err := normalize(in.UserID, in.Ticker, in.Market, in.Currency)
	if err != nil {
		return models.WatchlistItem{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = ticker
	}
	return models.WatchlistItem{
		ID:       id,
		UserID:   userID,
		Ticker:   ticker,
		Name:     name,
		Market:   mkt,
		Currency: ccy,
		AddedAt:  now,
	}, nil
}

// AlertInput carries the target as raw text so "123.45" and 123.45 are
// validated the same way.
type AlertInput struct {
	UserID      string
	Ticker      string
	Name        string
	AlertType   string
	TargetValue string
	Market      string
	Currency    string
}

func (in AlertInput) toAlert(id string, now time.Time) (models.StockAlert, error) {
	if strings.TrimSpace(in.AlertType) == "" || strings.TrimSpace(in.TargetValue) == "" || strings.TrimSpace(in.Ticker) == "" {
		return models.StockAlert{}, apperr.Validation("ticker, alertType and targetValue are required")
	}
	userID, ticker, mkt, ccy, err := normalize(in.UserID, in.Ticker, in.Market, in.Currency)
	if err != nil {
		return models.StockAlert{}, err
	}
	alertType := models.AlertType(strings.ToLower(strings.TrimSpace(in.AlertType)))
	if !alertType.Valid() {
		return models.StockAlert{}, apperr.Validation("unknown alertType %q", in.AlertType)
	}
	target, err := ParseTarget(in.TargetValue)
	if err != nil {
		return models.StockAlert{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = ticker
	}
	return models.StockAlert{
		ID:          id,
		UserID:      userID,
		Ticker:      ticker,
		Name:        name,
		AlertType:   alertType,
		TargetValue: target,
		Market:      mkt,
		Currency:    ccy,
		CreatedAt:   now,
	}, nil
}

// ParseTarget accepts a decimal literal and rejects NaN, infinities and
// anything that does not fit a float64.
func ParseTarget(raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, apperr.Validation("targetValue must be a number")
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, apperr.Validation("targetValue must be a finite number")
	}
	return f, nil
}

type TicketInput struct {
	UserID   string
	Subject  string
	Message  string
	Priority string
}

var priorities = map[string]bool{"low": true, "normal": true, "high": true, "urgent": true}

func (in TicketInput) toTicket(id string, now time.Time) (models.SupportTicket, error) {
	userID := strings.TrimSpace(in.UserID)
	subject := strings.TrimSpace(in.Subject)
	message := strings.TrimSpace(in.Message)
	if userID == "" || subject == "" || message == "" {
		return models.SupportTicket{}, apperr.Validation("userId, subject and message are required")
	}
	priority := strings.ToLower(strings.TrimSpace(in.Priority))
	if priority == "" {
		priority = "normal"
	}
	if !priorities[priority] {
		return models.SupportTicket{}, apperr.Validation("priority must be low, normal, high or urgent")
	}
	return models.SupportTicket{
		ID:        id,
		UserID:    userID,
		Subject:   subject,
		Message:   message,
		Priority:  priority,
		Status:    models.TicketOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func normalize(userID, ticker, mkt, currency string) (string, string, string, string, error) {
	userID = strings.TrimSpace(userID)
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if userID == "" {
		return "", "", "", "", apperr.Validation("userId is required")
	}
	if ticker == "" {
		return "", "", "", "", apperr.Validation("ticker is required")
	}
	mkt = strings.ToUpper(strings.TrimSpace(mkt))
	if mkt == "" {
		mkt = DefaultMarket
	}
	// Exchange aliases (NSE, BSE, LSE...) collapse onto their market code so
	// one listing cannot be stored twice under different names.
	venue, ok := market.ResolveVenue(mkt)
	if !ok {
		return "", "", "", "", apperr.Validation("unknown market %q", mkt)
	}
	mkt = venue.Market
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = venue.Currency
	}
	return userID, ticker, mkt, currency, nil
}
