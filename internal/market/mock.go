package market

import (
	"strings"

	"github.com/kenn289/oryn-alert-hub-sub004/internal/models"
)

// Static regional tables served before any live call. Keyed by exchange, then
// by base symbol without the Yahoo suffix.
var mockTables = map[string]map[string]models.Quote{
	"NSE": {
		"RELIANCE":  {Name: "Reliance Industries Ltd", Price: 2456.75, Change: 23.45, ChangePercent: 0.96, Volume: 8456123, MarketCap: 16.6e12, Sector: "Energy"},
		"TCS":       {Name: "Tata Consultancy Services Ltd", Price: 3678.9, Change: -12.3, ChangePercent: -0.33, Volume: 2134567, MarketCap: 13.4e12, Sector: "Information Technology"},
		"INFY":      {Name: "Infosys Ltd", Price: 1456.2, Change: 8.75, ChangePercent: 0.6, Volume: 5678901, MarketCap: 6.1e12, Sector: "Information Technology"},
		"HDFCBANK":  {Name: "HDFC Bank Ltd", Price: 1623.45, Change: -5.6, ChangePercent: -0.34, Volume: 7890123, MarketCap: 12.3e12, Sector: "Financial Services"},
		"ICICIBANK": {Name: "ICICI Bank Ltd", Price: 987.3, Change: 4.15, ChangePercent: 0.42, Volume: 9012345, MarketCap: 6.9e12, Sector: "Financial Services"},
		"SBIN":      {Name: "State Bank of India", Price: 612.8, Change: 2.35, ChangePercent: 0.38, Volume: 15234567, MarketCap: 5.5e12, Sector: "Financial Services"},
	},
	"BSE": {
		"RELIANCE": {Name: "Reliance Industries Ltd", Price: 2457.1, Change: 23.6, ChangePercent: 0.97, Volume: 456123, MarketCap: 16.6e12, Sector: "Energy"},
		"TCS":      {Name: "Tata Consultancy Services Ltd", Price: 3679.4, Change: -11.9, ChangePercent: -0.32, Volume: 134567, MarketCap: 13.4e12, Sector: "Information Technology"},
		"INFY":     {Name: "Infosys Ltd", Price: 1456.55, Change: 8.9, ChangePercent: 0.61, Volume: 278901, MarketCap: 6.1e12, Sector: "Information Technology"},
	},
	"LSE": {
		"VOD":  {Name: "Vodafone Group Plc", Price: 72.34, Change: -0.56, ChangePercent: -0.77, Volume: 45678901, MarketCap: 19.5e9, Sector: "Telecommunications"},
		"BP":   {Name: "BP Plc", Price: 478.9, Change: 3.2, ChangePercent: 0.67, Volume: 23456789, MarketCap: 82.1e9, Sector: "Energy"},
		"HSBA": {Name: "HSBC Holdings Plc", Price: 645.3, Change: 1.8, ChangePercent: 0.28, Volume: 18765432, MarketCap: 121.4e9, Sector: "Financial Services"},
		"SHEL": {Name: "Shell Plc", Price: 2654.5, Change: -14.5, ChangePercent: -0.54, Volume: 6543210, MarketCap: 171.2e9, Sector: "Energy"},
	},
	"TSE": {
		"7203": {Name: "Toyota Motor Corp", Price: 2845, Change: 35, ChangePercent: 1.25, Volume: 18234567, MarketCap: 46.3e12, Sector: "Consumer Cyclical"},
		"6758": {Name: "Sony Group Corp", Price: 13250, Change: -120, ChangePercent: -0.9, Volume: 3456789, MarketCap: 16.4e12, Sector: "Technology"},
		"9984": {Name: "SoftBank Group Corp", Price: 6789, Change: 88, ChangePercent: 1.31, Volume: 9876543, MarketCap: 9.9e12, Sector: "Communication Services"},
	},
}

func mockQuote(v Venue, base string) (models.Quote, bool) {
	table, ok := mockTables[v.Exchange]
	if !ok {
		return models.Quote{}, false
	}
	q, ok := table[strings.ToUpper(base)]
	if !ok {
		return models.Quote{}, false
	}
	q.Symbol = strings.ToUpper(base)
	q.Currency = v.Currency
	q.Exchange = v.Exchange
	q.Country = v.Country
	return q, true
}

// searchMock matches on symbol prefix or name substring within the venues of market.
func searchMock(query, market string) []models.SearchResult {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []models.SearchResult
	for _, exchange := range []string{"NSE", "BSE", "LSE", "TSE"} {
		v := exchanges[exchange]
		if market != "" && v.Market != market {
			continue
		}
		for _, sym := range sortedKeys(mockTables[exchange]) {
			quote := mockTables[exchange][sym]
			if !strings.HasPrefix(sym, q) && !strings.Contains(strings.ToUpper(quote.Name), q) {
				continue
			}
			out = append(out, models.SearchResult{
				Symbol:   sym + v.Suffix,
				Name:     quote.Name,
				Exchange: v.Exchange,
				Market:   v.Market,
				Currency: v.Currency,
				Type:     "EQUITY",
				Price:    quote.Price,
			})
		}
	}
	return out
}
