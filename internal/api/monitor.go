package api

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

const (
	maxQuoteFetches = 4
	pushTimeout     = 30 * time.Second
)

// StartPolling refreshes quotes for every watched ticker each interval,
// fires alerts and pushes snapshots to connected users.
func (s *Server) StartPolling(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := s.RefreshAndBroadcast(ctx); err != nil {
		log.Printf("polling refresh failed: %v", err)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshAndBroadcast(ctx); err != nil {
				log.Printf("polling refresh failed: %v", err)
			}
		}
	}
}

func (s *Server) RefreshAndBroadcast(ctx context.Context) error {
	watched, err := s.store.WatchedTickers(ctx)
	if err != nil {
		return err
	}
	quotes := s.fetchQuotes(ctx, watched)

	fired, err := s.EvaluateAlerts(ctx, quotes)
	if err != nil {
		return err
	}
	firedByUser := make(map[string][]models.StockAlert)
	for _, a := range fired {
		firedByUser[a.UserID] = append(firedByUser[a.UserID], a)
	}

	for _, userID := range s.hub.Users() {
		snapshot, err := s.buildSnapshot(ctx, userID, quotes)
		if err != nil {
			log.Printf("snapshot for %s: %v", userID, err)
			continue
		}
		snapshot.AlertsFired = firedByUser[userID]
		s.hub.BroadcastToUser(userID, snapshot)
	}
	return nil
}

// BuildSnapshot fetches fresh quotes for one user's watchlist.
func (s *Server) BuildSnapshot(ctx context.Context, userID string) (models.WatchlistSnapshot, error) {
	items, err := s.store.ListWatchlist(ctx, userID)
	if err != nil {
		return models.WatchlistSnapshot{}, err
	}
	watched := make([]models.WatchedTicker, 0, len(items))
	for _, it := range items {
		watched = append(watched, models.WatchedTicker{Ticker: it.Ticker, Market: it.Market})
	}
	return s.snapshotFrom(userID, items, s.fetchQuotes(ctx, watched)), nil
}

func (s *Server) buildSnapshot(ctx context.Context, userID string, quotes map[string]models.Quote) (models.WatchlistSnapshot, error) {
	items, err := s.store.ListWatchlist(ctx, userID)
	if err != nil {
		return models.WatchlistSnapshot{}, err
	}
	return s.snapshotFrom(userID, items, quotes), nil
}

func (s *Server) snapshotFrom(userID string, items []models.WatchlistItem, quotes map[string]models.Quote) models.WatchlistSnapshot {
	out := models.WatchlistSnapshot{
		UserID:    userID,
		Items:     make([]models.WatchlistQuote, 0, len(items)),
		UpdatedAt: s.now(),
	}
	for _, it := range items {
		wq := models.WatchlistQuote{WatchlistItem: it}
		if q, ok := quotes[quoteKey(it.Market, it.Ticker)]; ok {
			wq.Quote = &q
		}
		out.Items = append(out.Items, wq)
	}
	return out
}

// pushSnapshot refreshes a connected user's live view after a write. Handlers
// run it in a goroutine so quote fetches never hold up the response.
func (s *Server) pushSnapshot(ctx context.Context, userID string) {
	if s.hub == nil || !s.hub.HasUser(userID) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()

	snapshot, err := s.BuildSnapshot(ctx, userID)
	if err != nil {
		log.Printf("snapshot for %s: %v", userID, err)
		return
	}
	s.hub.BroadcastToUser(userID, snapshot)
}

// fetchQuotes never fails as a whole; tickers whose quote cannot be fetched
// are left out of the map.
func (s *Server) fetchQuotes(ctx context.Context, watched []models.WatchedTicker) map[string]models.Quote {
	var mu sync.Mutex
	out := make(map[string]models.Quote, len(watched))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxQuoteFetches)
	for _, wt := range watched {
		g.Go(func() error {
			q, err := s.quotes.GetQuote(gctx, wt.Ticker, wt.Market)
			if err != nil {
				log.Printf("quote %s/%s: %v", wt.Market, wt.Ticker, err)
				return nil
			}
			mu.Lock()
			out[quoteKey(wt.Market, wt.Ticker)] = q
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// EvaluateAlerts fires every untriggered alert whose condition holds for its
// quote. Each alert fires at most once, even across concurrent pollers.
func (s *Server) EvaluateAlerts(ctx context.Context, quotes map[string]models.Quote) ([]models.StockAlert, error) {
	alerts, err := s.store.ListActiveAlerts(ctx)
	if err != nil {
		return nil, err
	}

	fired := make([]models.StockAlert, 0)
	for _, alert := range alerts {
		q, ok := quotes[quoteKey(alert.Market, alert.Ticker)]
		if !ok || q.Price <= 0 || !alertFires(alert, q) {
			continue
		}

		now := s.now()
		marked, err := s.store.FireAlert(ctx, alert.ID, now, models.Notification{
			UserID:  alert.UserID,
			Type:    "alert",
			Title:   fmt.Sprintf("%s alert triggered", alert.Ticker),
			Message: describeAlert(alert, q),
			Link:    s.baseURL + "/dashboard?ticker=" + url.QueryEscape(alert.Ticker),
		})
		if err != nil {
			log.Printf("alert %s left active, fire failed: %v", alert.ID, err)
			continue
		}
		if !marked {
			continue
		}
		alert.Triggered = true
		alert.TriggeredAt = &now
		fired = append(fired, alert)
	}
	return fired, nil
}

func alertFires(a models.StockAlert, q models.Quote) bool {
	switch a.AlertType {
	case models.AlertPriceAbove:
		return q.Price >= a.TargetValue
	case models.AlertPriceBelow:
		return q.Price <= a.TargetValue
	case models.AlertPercentChangeAbove:
		return q.ChangePercent >= a.TargetValue
	case models.AlertPercentChangeBelow:
		return q.ChangePercent <= a.TargetValue
	case models.AlertVolumeAbove:
		return float64(q.Volume) >= a.TargetValue
	}
	return false
}

func describeAlert(a models.StockAlert, q models.Quote) string {
	switch a.AlertType {
	case models.AlertPriceAbove:
		return fmt.Sprintf("%s is at %.2f %s, above your target of %.2f", a.Ticker, q.Price, q.Currency, a.TargetValue)
	case models.AlertPriceBelow:
		return fmt.Sprintf("%s is at %.2f %s, below your target of %.2f", a.Ticker, q.Price, q.Currency, a.TargetValue)
	case models.AlertPercentChangeAbove:
		return fmt.Sprintf("%s moved %.2f%% today, above your threshold of %.2f%%", a.Ticker, q.ChangePercent, a.TargetValue)
	case models.AlertPercentChangeBelow:
		return fmt.Sprintf("%s moved %.2f%% today, below your threshold of %.2f%%", a.Ticker, q.ChangePercent, a.TargetValue)
	case models.AlertVolumeAbove:
		return fmt.Sprintf("%s traded %d shares, above your target of %.0f", a.Ticker, q.Volume, a.TargetValue)
	}
	return a.Ticker + " alert triggered"
}

func quoteKey(market, ticker string) string {
	return market + ":" + ticker
}
