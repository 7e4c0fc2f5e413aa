package market

import "strings"

// Venue describes how a market or exchange code maps onto Yahoo symbols.
type Venue struct {
	Market    string // two-letter market code
	Exchange  string // display exchange name
	Suffix    string // Yahoo suffix, "" for US listings
	AltSuffix string // second listing tried once on failure (India only)
	Currency  string
	Country   string
}

var venues = map[string]Venue{
	"US": {Market: "US", Exchange: "NASDAQ", Currency: "USD", Country: "United States"},
	"IN": {Market: "IN", Exchange: "NSE", Suffix: ".NS", AltSuffix: ".BO", Currency: "INR", Country: "India"},
	"GB": {Market: "GB", Exchange: "LSE", Suffix: ".L", Currency: "GBP", Country: "United Kingdom"},
	"JP": {Market: "JP", Exchange: "TSE", Suffix: ".T", Currency: "JPY", Country: "Japan"},
	"HK": {Market: "HK", Exchange: "HKEX", Suffix: ".HK", Currency: "HKD", Country: "Hong Kong"},
	"DE": {Market: "DE", Exchange: "XETRA", Suffix: ".DE", Currency: "EUR", Country: "Germany"},
	"FR": {Market: "FR", Exchange: "Euronext Paris", Suffix: ".PA", Currency: "EUR", Country: "France"},
	"CA": {Market: "CA", Exchange: "TSX", Suffix: ".TO", Currency: "CAD", Country: "Canada"},
	"AU": {Market: "AU", Exchange: "ASX", Suffix: ".AX", Currency: "AUD", Country: "Australia"},
	"CN": {Market: "CN", Exchange: "SSE", Suffix: ".SS", Currency: "CNY", Country: "China"},
	"KR": {Market: "KR", Exchange: "KRX", Suffix: ".KS", Currency: "KRW", Country: "South Korea"},
	"BR": {Market: "BR", Exchange: "B3", Suffix: ".SA", Currency: "BRL", Country: "Brazil"},
	"SG": {Market: "SG", Exchange: "SGX", Suffix: ".SI", Currency: "SGD", Country: "Singapore"},
}

// exchange codes accepted in place of a market code, e.g. /stock/bse.
var exchanges = map[string]Venue{
	"NSE":    venues["IN"],
	"BSE":    {Market: "IN", Exchange: "BSE", Suffix: ".BO", AltSuffix: ".NS", Currency: "INR", Country: "India"},
	"LSE":    venues["GB"],
	"TSE":    venues["JP"],
	"NASDAQ": venues["US"],
	"NYSE":   {Market: "US", Exchange: "NYSE", Currency: "USD", Country: "United States"},
	"US":     venues["US"],
}

// ResolveVenue accepts a market code (IN) or an exchange code (BSE). Empty
// means US. Unknown codes fall back to US listing rules with ok=false.
func ResolveVenue(code string) (Venue, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return venues["US"], true
	}
	if v, ok := venues[code]; ok {
		return v, true
	}
	if v, ok := exchanges[code]; ok {
		return v, true
	}
	return venues["US"], false
}

// splitSuffix separates a caller-supplied Yahoo suffix: RELIANCE.BO -> RELIANCE, .BO.
func splitSuffix(symbol string) (string, string) {
	i := strings.LastIndex(symbol, ".")
	if i <= 0 || i == len(symbol)-1 {
		return symbol, ""
	}
	return symbol[:i], symbol[i:]
}
