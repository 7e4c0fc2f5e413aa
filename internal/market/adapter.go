package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

const (
	defaultChartURL  = "https://query2.finance.yahoo.com/v8/finance/chart/"
	defaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
	browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36"

	DefaultSearchLimit = 10
	MaxSearchLimit     = 50
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=market_test -destination=mock_http_client_test.go -source=adapter.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter resolves quotes from the mock regional tables first and Yahoo
// Finance second. It keeps no state between calls.
type Adapter struct {
	httpClient HTTPClient
	chartURL   string
	searchURL  string
	now        func() time.Time
}

type Option func(*Adapter)

func WithHTTPClient(c HTTPClient) Option {
	return func(a *Adapter) { a.httpClient = c }
}

// WithBaseURL overrides the chart endpoint; the symbol is appended to it.
func WithBaseURL(u string) Option {
	return func(a *Adapter) { a.chartURL = strings.TrimSuffix(u, "/") + "/" }
}

func WithSearchURL(u string) Option {
	return func(a *Adapter) { a.searchURL = u }
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

func NewAdapter(options ...Option) *Adapter {
	a := &Adapter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		chartURL:   defaultChartURL,
		searchURL:  defaultSearchURL,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// GetQuote returns a quote for symbol on market, which may be a market code
// (IN) or an exchange code (BSE). India listings that fail on the primary
// suffix are retried once on the other exchange when the caller gave no suffix.
func (a *Adapter) GetQuote(ctx context.Context, symbol, market string) (models.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.Quote{}, apperr.Validation("symbol is required")
	}
	venue, _ := ResolveVenue(market)
	base, suffix := splitSuffix(symbol)

	if v, ok := venueForSuffix(venue, suffix); ok {
		if q, ok := mockQuote(v, base); ok {
			q.LastUpdated = a.now()
			return q, nil
		}
	}

	if suffix != "" {
		q, _, err := a.fetchChart(ctx, symbol, venue)
		return q, err
	}

	q, status, err := a.fetchChart(ctx, base+venue.Suffix, venue)
	if err != nil && venue.AltSuffix != "" && status != 0 && (status < 200 || status > 299) {
		alt, ok := exchangeForSuffix(venue.AltSuffix)
		if ok {
			q, _, err = a.fetchChart(ctx, base+alt.Suffix, alt)
		}
	}
	return q, err
}

// fetchChart also reports the upstream status so GetQuote can decide on the
// India fallback; status is 0 when no response arrived.
func (a *Adapter) fetchChart(ctx context.Context, yahooSymbol string, venue Venue) (models.Quote, int, error) {
	endpoint := a.chartURL + url.PathEscape(yahooSymbol) + "?interval=1d&range=1d"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Quote{}, 0, fmt.Errorf("create chart request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return models.Quote{}, 0, &apperr.UpstreamError{Provider: "yahoo", Err: err}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	if status == http.StatusNotFound {
		return models.Quote{}, status, apperr.NotFound("no quote found for %s", yahooSymbol)
	}
	if status < 200 || status > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return models.Quote{}, status, &apperr.UpstreamError{Provider: "yahoo", StatusCode: status}
	}

	var payload chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Quote{}, status, &apperr.UpstreamError{Provider: "yahoo", StatusCode: status, Err: fmt.Errorf("decode chart: %w", err)}
	}
	if len(payload.Chart.Result) == 0 {
		return models.Quote{}, status, apperr.NotFound("no quote found for %s", yahooSymbol)
	}

	r := payload.Chart.Result[0]
	meta := r.Meta
	price := meta.RegularMarketPrice
	if price <= 0 && len(r.Indicators.Quote) > 0 {
		closes := r.Indicators.Quote[0].Close
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] != nil && *closes[i] > 0 {
				price = *closes[i]
				break
			}
		}
	}
	if price <= 0 {
		return models.Quote{}, status, apperr.NotFound("no quote found for %s", yahooSymbol)
	}

	prev := meta.PreviousClose
	if prev <= 0 {
		prev = meta.ChartPreviousClose
	}
	var change, changePct float64
	if prev > 0 {
		change = price - prev
		changePct = change / prev * 100
	}

	name := meta.LongName
	if name == "" {
		name = meta.ShortName
	}
	if name == "" {
		name = meta.Symbol
	}
	currency := meta.Currency
	if currency == "" {
		currency = venue.Currency
	}
	exchange := meta.FullExchangeName
	if exchange == "" {
		exchange = venue.Exchange
	}
	updated := a.now()
	if meta.RegularMarketTime > 0 {
		updated = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	symbol := strings.ToUpper(meta.Symbol)
	if symbol == "" {
		symbol = yahooSymbol
	}

	return models.Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         round2(price),
		Change:        round2(change),
		ChangePercent: round2(changePct),
		Volume:        meta.RegularMarketVolume,
		Currency:      currency,
		Exchange:      exchange,
		Country:       venue.Country,
		LastUpdated:   updated,
	}, status, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol              string  `json:"symbol"`
				Currency            string  `json:"currency"`
				FullExchangeName    string  `json:"fullExchangeName"`
				LongName            string  `json:"longName"`
				ShortName           string  `json:"shortName"`
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				RegularMarketTime   int64   `json:"regularMarketTime"`
				PreviousClose       float64 `json:"previousClose"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

// Search returns mock-table matches followed by Yahoo symbol search results,
// deduplicated by symbol and capped at limit.
func (a *Adapter) Search(ctx context.Context, query, market string, limit int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Validation("q is required")
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	market = strings.ToUpper(strings.TrimSpace(market))
	if market == "ALL" {
		market = ""
	}
	if market != "" {
		v, ok := ResolveVenue(market)
		if !ok {
			return nil, apperr.Validation("unknown market %q", market)
		}
		market = v.Market
	}

	out := make([]models.SearchResult, 0, limit)
	seen := make(map[string]bool)
	add := func(r models.SearchResult) {
		if len(out) >= limit || seen[r.Symbol] {
			return
		}
		seen[r.Symbol] = true
		out = append(out, r)
	}
	for _, r := range searchMock(query, market) {
		add(r)
	}
	if len(out) >= limit {
		return out, nil
	}

	live, err := a.searchYahoo(ctx, query, limit*2)
	if err != nil {
		if len(out) > 0 {
			return out, nil
		}
		return nil, err
	}
	for _, r := range live {
		if market != "" && r.Market != market {
			continue
		}
		add(r)
	}
	return out, nil
}

func (a *Adapter) searchYahoo(ctx context.Context, query string, count int) ([]models.SearchResult, error) {
	values := url.Values{}
	values.Set("q", query)
	values.Set("quotesCount", strconv.Itoa(count))
	values.Set("newsCount", "0")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.searchURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, &apperr.UpstreamError{Provider: "yahoo search", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 512))
		return nil, &apperr.UpstreamError{Provider: "yahoo search", StatusCode: resp.StatusCode}
	}

	var payload struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			ShortName string `json:"shortname"`
			LongName  string `json:"longname"`
			ExchDisp  string `json:"exchDisp"`
			QuoteType string `json:"quoteType"`
		} `json:"quotes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &apperr.UpstreamError{Provider: "yahoo search", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode search: %w", err)}
	}

	out := make([]models.SearchResult, 0, len(payload.Quotes))
	for _, q := range payload.Quotes {
		if q.Symbol == "" {
			continue
		}
		_, suffix := splitSuffix(q.Symbol)
		v, ok := exchangeForSuffix(suffix)
		if !ok {
			v = venues["US"]
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		exchange := q.ExchDisp
		if exchange == "" {
			exchange = v.Exchange
		}
		out = append(out, models.SearchResult{
			Symbol:   strings.ToUpper(q.Symbol),
			Name:     name,
			Exchange: exchange,
			Market:   v.Market,
			Currency: v.Currency,
			Type:     q.QuoteType,
		})
	}
	return out, nil
}

// venueForSuffix picks the table to consult for a caller-supplied suffix.
func venueForSuffix(v Venue, suffix string) (Venue, bool) {
	if suffix == "" {
		return v, true
	}
	return exchangeForSuffix(suffix)
}

func exchangeForSuffix(suffix string) (Venue, bool) {
	if suffix == "" {
		return venues["US"], true
	}
	for _, code := range slices.Sorted(maps.Keys(exchanges)) {
		if v := exchanges[code]; v.Suffix == suffix {
			return v, true
		}
	}
	for _, code := range slices.Sorted(maps.Keys(venues)) {
		if v := venues[code]; v.Suffix == suffix {
			return v, true
		}
	}
	return Venue{}, false
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
