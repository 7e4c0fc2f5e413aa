package models

import "time"

type WatchlistItem struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Ticker   string    `json:"ticker"`
	Name     string    `json:"name"`
	Market   string    `json:"market"`
	Currency string    `json:"currency"`
	AddedAt  time.Time `json:"addedAt"`
}

type AlertType string

const (
	AlertPriceAbove         AlertType = "price_above"
	AlertPriceBelow         AlertType = "price_below"
	AlertPercentChangeAbove AlertType = "percent_change_above"
	AlertPercentChangeBelow AlertType = "percent_change_below"
	AlertVolumeAbove        AlertType = "volume_above"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertPriceAbove, AlertPriceBelow, AlertPercentChangeAbove, AlertPercentChangeBelow, AlertVolumeAbove:
		return true
	}
	return false
}

type StockAlert struct {
	ID          string     `json:"id"`
	UserID      string     `json:"userId"`
	Ticker      string     `json:"ticker"`
	Name        string     `json:"name"`
	AlertType   AlertType  `json:"alertType"`
	TargetValue float64    `json:"targetValue"`
	Market      string     `json:"market"`
	Currency    string     `json:"currency"`
	CreatedAt   time.Time  `json:"createdAt"`
	Triggered   bool       `json:"triggered"`
	TriggeredAt *time.Time `json:"triggeredAt,omitempty"`
}

// Quote is a point-in-time snapshot produced fresh from a provider.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	MarketCap     float64   `json:"marketCap"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	Country       string    `json:"country"`
	Sector        string    `json:"sector,omitempty"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

type SearchResult struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Exchange string  `json:"exchange"`
	Market   string  `json:"market"`
	Currency string  `json:"currency"`
	Type     string  `json:"type,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

func (s TicketStatus) Valid() bool {
	switch s {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return true
	}
	return false
}

type SupportTicket struct {
	ID        string       `json:"id"`
	UserID    string       `json:"userId"`
	Subject   string       `json:"subject"`
	Message   string       `json:"message"`
	Priority  string       `json:"priority"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// WatchedTicker is a distinct (ticker, market) pair held on any watchlist or alert.
type WatchedTicker struct {
	Ticker string
	Market string
}

type WatchlistQuote struct {
	WatchlistItem
	Quote *Quote `json:"quote,omitempty"`
}

type WatchlistSnapshot struct {
	UserID      string           `json:"userId"`
	Items       []WatchlistQuote `json:"items"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	AlertsFired []StockAlert     `json:"alertsFired,omitempty"`
}
