package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/store"
)

func TestAlertFires(t *testing.T) {
	q := models.Quote{Price: 200, ChangePercent: -3.5, Volume: 5_000_000}
	cases := []struct {
		alertType models.AlertType
		target    float64
		want      bool
	}{
		{models.AlertPriceAbove, 199.99, true},
		{models.AlertPriceAbove, 200, true},
		{models.AlertPriceAbove, 200.01, false},
		{models.AlertPriceBelow, 200, true},
		{models.AlertPriceBelow, 150, false},
		{models.AlertPercentChangeAbove, 2, false},
		{models.AlertPercentChangeBelow, -3, true},
		{models.AlertVolumeAbove, 1_000_000, true},
		{models.AlertVolumeAbove, 9_000_000, false},
		{models.AlertType("sideways"), 0, false},
	}
	for _, tc := range cases {
		got := alertFires(models.StockAlert{AlertType: tc.alertType, TargetValue: tc.target}, q)
		if got != tc.want {
			t.Fatalf("%s %.2f: got %v want %v", tc.alertType, tc.target, got, tc.want)
		}
	}
}

func TestRefreshFiresAlertsOnceAndNotifies(t *testing.T) {
	fixed := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	server, st := setupServer(t, WithBaseURL("https://app.example.com/"), WithClock(func() time.Time { return fixed }))
	ctx := context.Background()

	if _, err := st.AddAlert(ctx, store.AlertInput{UserID: "u1", Ticker: "AAPL", AlertType: "price_above", TargetValue: "150"}); err != nil {
		t.Fatalf("add alert: %v", err)
	}
	if _, err := st.AddAlert(ctx, store.AlertInput{UserID: "u1", Ticker: "AAPL", AlertType: "price_below", TargetValue: "150"}); err != nil {
		t.Fatalf("add alert: %v", err)
	}
	if _, err := st.AddAlert(ctx, store.AlertInput{UserID: "u2", Ticker: "ZZZZ", AlertType: "price_above", TargetValue: "1"}); err != nil {
		t.Fatalf("add alert: %v", err)
	}

	if err := server.RefreshAndBroadcast(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	alerts, err := st.ListAlerts(ctx, "u1")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	triggered := 0
	for _, a := range alerts {
		if a.Triggered {
			triggered++
			if a.AlertType != models.AlertPriceAbove || a.TriggeredAt == nil || !a.TriggeredAt.Equal(fixed) {
				t.Fatalf("unexpected triggered alert %+v", a)
			}
		}
	}
	if triggered != 1 {
		t.Fatalf("expected exactly one triggered alert, got %d", triggered)
	}

	notes, err := st.ListNotifications(ctx, "u1", false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notes) != 1 {
		t.Fatalf("expected one notification, got %d", len(notes))
	}
	if notes[0].Type != "alert" || notes[0].Link != "https://app.example.com/dashboard?ticker=AAPL" {
		t.Fatalf("unexpected notification %+v", notes[0])
	}
	if !strings.Contains(notes[0].Message, "above your target of 150.00") {
		t.Fatalf("unexpected message %q", notes[0].Message)
	}

	// A second pass finds nothing new to fire.
	fired, err := server.EvaluateAlerts(ctx, map[string]models.Quote{"US:AAPL": {Price: 300}})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("alert fired twice: %+v", fired)
	}
}

func TestWebSocketReceivesSnapshot(t *testing.T) {
	server, st := setupServer(t)
	ctx := context.Background()
	if _, err := st.AddWatchlistItem(ctx, store.WatchlistInput{UserID: "u1", Ticker: "AAPL"}); err != nil {
		t.Fatalf("add item: %v", err)
	}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?userId=u1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var snapshot models.WatchlistSnapshot
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if snapshot.UserID != "u1" || len(snapshot.Items) != 1 || snapshot.Items[0].Quote == nil || snapshot.Items[0].Quote.Price != 200 {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}

	// A write by the same user pushes a fresh snapshot.
	resp, _ := do(t, server.Handler(), "POST", "/api/watchlist", `{"userId":"u1","ticker":"RELIANCE","market":"NSE"}`)
	if resp.Code != 201 {
		t.Fatalf("expected 201, got %d", resp.Code)
	}
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read pushed snapshot: %v", err)
	}
	if len(snapshot.Items) != 2 {
		t.Fatalf("expected 2 items after push, got %d", len(snapshot.Items))
	}
}

// blockingQuotes holds every quote fetch until release is closed.
type blockingQuotes struct {
	*fakeQuotes
	release chan struct{}
}

func (b *blockingQuotes) GetQuote(ctx context.Context, symbol, mkt string) (models.Quote, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return models.Quote{}, ctx.Err()
	}
	return b.fakeQuotes.GetQuote(ctx, symbol, mkt)
}

func TestWatchlistWriteDoesNotWaitForLivePush(t *testing.T) {
	server, _ := setupServer(t)
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	server.quotes = &blockingQuotes{fakeQuotes: newFakeQuotes(), release: release}

	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws?userId=u1", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	// Empty watchlist, so the initial snapshot needs no quotes.
	var snapshot models.WatchlistSnapshot
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/watchlist", strings.NewReader(`{"userId":"u1","ticker":"aapl"}`))
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		done <- rec.Code
	}()

	select {
	case code := <-done:
		if code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", code)
		}
	case <-time.After(2 * time.Second):
		unblock()
		t.Fatalf("watchlist write waited on quote fetches")
	}

	unblock()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&snapshot); err != nil {
		t.Fatalf("read pushed snapshot: %v", err)
	}
	if len(snapshot.Items) != 1 || snapshot.Items[0].Quote == nil || snapshot.Items[0].Quote.Price != 200 {
		t.Fatalf("unexpected pushed snapshot %+v", snapshot)
	}
}

func TestWebSocketRequiresUser(t *testing.T) {
	server, _ := setupServer(t)
	resp, _ := do(t, server.Handler(), "GET", "/ws", "")
	if resp.Code != 400 {
		t.Fatalf("expected 400 without userId, got %d", resp.Code)
	}
}
