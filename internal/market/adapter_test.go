package market_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/apperr"
	"github.com/kenn289/oryn-alert-hub-sub004/internal/market"
)

var fixedNow = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func newAdapter(t *testing.T) (*market.Adapter, *MockHTTPClient) {
	t.Helper()
	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	a := market.NewAdapter(
		market.WithHTTPClient(httpClient),
		market.WithBaseURL("http://yahoo.test/chart"),
		market.WithSearchURL("http://yahoo.test/search"),
		market.WithClock(func() time.Time { return fixedNow }),
	)
	return a, httpClient
}

func jsonResponse(t *testing.T, status int, v any) *http.Response {
	t.Helper()
	buffer := &bytes.Buffer{}
	require.NoError(t, json.NewEncoder(buffer).Encode(v))
	return &http.Response{StatusCode: status, Body: io.NopCloser(buffer)}
}

func chartPayload(symbol, currency string, price, prevClose float64) map[string]any {
	return map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta": map[string]any{
					"symbol":              symbol,
					"currency":            currency,
					"fullExchangeName":    "NasdaqGS",
					"longName":            "Apple Inc.",
					"regularMarketPrice":  price,
					"regularMarketVolume": 51234567,
					"regularMarketTime":   fixedNow.Unix(),
					"chartPreviousClose":  prevClose,
				},
			}},
			"error": nil,
		},
	}
}

func TestGetQuote_MockTableServesIndia(t *testing.T) {
	t.Parallel()

	// Arrange: no HTTP expectations, any live call fails the test.
	a, _ := newAdapter(t)

	// Act
	q, err := a.GetQuote(t.Context(), "reliance", "IN")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "RELIANCE", q.Symbol)
	require.Equal(t, "INR", q.Currency)
	require.Equal(t, "NSE", q.Exchange)
	require.Equal(t, "India", q.Country)
	require.Greater(t, q.Price, 0.0)
	require.True(t, q.LastUpdated.Equal(fixedNow))
}

func TestGetQuote_ExchangeCodeAndSuffixPickTable(t *testing.T) {
	t.Parallel()

	a, _ := newAdapter(t)

	bse, err := a.GetQuote(t.Context(), "TCS", "BSE")
	require.NoError(t, err)
	require.Equal(t, "BSE", bse.Exchange)

	suffixed, err := a.GetQuote(t.Context(), "INFY.BO", "IN")
	require.NoError(t, err)
	require.Equal(t, "BSE", suffixed.Exchange)

	tokyo, err := a.GetQuote(t.Context(), "7203", "JP")
	require.NoError(t, err)
	require.Equal(t, "JPY", tokyo.Currency)
	require.Equal(t, "TSE", tokyo.Exchange)
}

func TestGetQuote_LiveChart(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/chart/AAPL", req.URL.Path)
			require.Contains(t, req.Header.Get("User-Agent"), "Mozilla")
			return jsonResponse(t, http.StatusOK, chartPayload("AAPL", "USD", 201.5, 200)), nil
		}).
		Times(1)

	q, err := a.GetQuote(t.Context(), "aapl", "")
	require.NoError(t, err)
	require.Equal(t, "AAPL", q.Symbol)
	require.Equal(t, "Apple Inc.", q.Name)
	require.Equal(t, 201.5, q.Price)
	require.Equal(t, 1.5, q.Change)
	require.Equal(t, 0.75, q.ChangePercent)
	require.Equal(t, int64(51234567), q.Volume)
	require.Equal(t, "USD", q.Currency)
	require.Equal(t, "United States", q.Country)
}

func TestGetQuote_MarketSuffixApplied(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, "/chart/BARC.L", req.URL.Path)
			return jsonResponse(t, http.StatusOK, chartPayload("BARC.L", "GBp", 180, 0)), nil
		})

	q, err := a.GetQuote(t.Context(), "BARC", "GB")
	require.NoError(t, err)
	require.Equal(t, "BARC.L", q.Symbol)
	require.Equal(t, 0.0, q.Change)
}

func TestGetQuote_UnknownSymbolIsNotFound(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusNotFound, map[string]any{
			"chart": map[string]any{"result": nil, "error": map[string]any{"code": "Not Found"}},
		}), nil)

	_, err := a.GetQuote(t.Context(), "ZZZZQ", "US")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetQuote_EmptyResultOrZeroPriceIsNotFound(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	gomock.InOrder(
		httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusOK, map[string]any{"chart": map[string]any{"result": []any{}}}), nil),
		httpClient.EXPECT().Do(gomock.Any()).Return(jsonResponse(t, http.StatusOK, chartPayload("DEAD", "USD", 0, 0)), nil),
	)

	_, err := a.GetQuote(t.Context(), "EMPTY", "US")
	require.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = a.GetQuote(t.Context(), "DEAD", "US")
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetQuote_IndiaFallsBackToAlternateSuffixOnce(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	gomock.InOrder(
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "/chart/WIPRO.NS", req.URL.Path)
				return jsonResponse(t, http.StatusInternalServerError, map[string]any{}), nil
			}),
		httpClient.EXPECT().
			Do(gomock.Any()).
			DoAndReturn(func(req *http.Request) (*http.Response, error) {
				require.Equal(t, "/chart/WIPRO.BO", req.URL.Path)
				return jsonResponse(t, http.StatusOK, chartPayload("WIPRO.BO", "INR", 480.25, 475)), nil
			}),
	)

	q, err := a.GetQuote(t.Context(), "WIPRO", "IN")
	require.NoError(t, err)
	require.Equal(t, "WIPRO.BO", q.Symbol)
	require.Equal(t, "INR", q.Currency)
}

func TestGetQuote_IndiaFallbackFailureSurfacesStatus(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusBadGateway, map[string]any{}), nil).
		Times(1)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusServiceUnavailable, map[string]any{}), nil).
		Times(1)

	_, err := a.GetQuote(t.Context(), "WIPRO", "IN")
	var up *apperr.UpstreamError
	require.True(t, errors.As(err, &up))
	require.Equal(t, http.StatusServiceUnavailable, up.StatusCode)
}

func TestGetQuote_NoRetryWhenSuffixGiven(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusInternalServerError, map[string]any{}), nil).
		Times(1)

	_, err := a.GetQuote(t.Context(), "WIPRO.NS", "IN")
	var up *apperr.UpstreamError
	require.True(t, errors.As(err, &up))
	require.Equal(t, http.StatusInternalServerError, up.StatusCode)
}

func TestGetQuote_NoRetryOutsideIndia(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusTooManyRequests, map[string]any{}), nil).
		Times(1)

	_, err := a.GetQuote(t.Context(), "AAPL", "US")
	require.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestGetQuote_TransportErrorIsUpstream(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused")).
		Times(1)

	_, err := a.GetQuote(t.Context(), "WIPRO", "IN")
	require.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestSearch_MockMatchesFirst(t *testing.T) {
	t.Parallel()

	a, _ := newAdapter(t)

	results, err := a.Search(t.Context(), "reli", "IN", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	symbols := []string{results[0].Symbol, results[1].Symbol}
	require.ElementsMatch(t, []string{"RELIANCE.NS", "RELIANCE.BO"}, symbols)
}

func TestSearch_LiveResultsFilteredByMarket(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.True(t, strings.HasPrefix(req.URL.String(), "http://yahoo.test/search?"))
			require.Equal(t, "apple", req.URL.Query().Get("q"))
			return jsonResponse(t, http.StatusOK, map[string]any{
				"quotes": []any{
					map[string]any{"symbol": "AAPL", "longname": "Apple Inc.", "exchDisp": "NASDAQ", "quoteType": "EQUITY"},
					map[string]any{"symbol": "APC.DE", "shortname": "APPLE INC", "exchDisp": "XETRA", "quoteType": "EQUITY"},
				},
			}), nil
		})

	results, err := a.Search(t.Context(), "apple", "US", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "AAPL", results[0].Symbol)
	require.Equal(t, "USD", results[0].Currency)
}

func TestSearch_UpstreamFailureKeepsMockResults(t *testing.T) {
	t.Parallel()

	a, httpClient := newAdapter(t)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(jsonResponse(t, http.StatusInternalServerError, map[string]any{}), nil)

	results, err := a.Search(t.Context(), "vodafone", "", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "VOD.L", results[0].Symbol)
}

func TestSearch_Validation(t *testing.T) {
	t.Parallel()

	a, _ := newAdapter(t)

	_, err := a.Search(t.Context(), "  ", "", 10)
	require.ErrorIs(t, err, apperr.ErrValidation)
	_, err = a.Search(t.Context(), "x", "ZZ", 10)
	require.ErrorIs(t, err, apperr.ErrValidation)
}
