package market

import "testing"

func TestResolveVenue(t *testing.T) {
	cases := []struct {
		code     string
		market   string
		exchange string
		ok       bool
	}{
		{"", "US", "NASDAQ", true},
		{"in", "IN", "NSE", true},
		{" BSE ", "IN", "BSE", true},
		{"LSE", "GB", "LSE", true},
		{"TSE", "JP", "TSE", true},
		{"ZZ", "US", "NASDAQ", false},
	}
	for _, tc := range cases {
		v, ok := ResolveVenue(tc.code)
		if ok != tc.ok || v.Market != tc.market || v.Exchange != tc.exchange {
			t.Fatalf("ResolveVenue(%q) = %+v, %v", tc.code, v, ok)
		}
	}
}

func TestVenueCurrency(t *testing.T) {
	for code, want := range map[string]string{"IN": "INR", "BSE": "INR", "US": "USD", "GB": "GBP", "JP": "JPY", "": "USD", "??": "USD"} {
		if v, _ := ResolveVenue(code); v.Currency != want {
			t.Fatalf("ResolveVenue(%q).Currency = %q, want %q", code, v.Currency, want)
		}
	}
}

func TestSplitSuffix(t *testing.T) {
	cases := map[string][2]string{
		"RELIANCE.BO": {"RELIANCE", ".BO"},
		"AAPL":        {"AAPL", ""},
		"BRK.B":       {"BRK", ".B"},
		".NS":         {".NS", ""},
		"ODD.":        {"ODD.", ""},
	}
	for in, want := range cases {
		base, suffix := splitSuffix(in)
		if base != want[0] || suffix != want[1] {
			t.Fatalf("splitSuffix(%q) = %q, %q", in, base, suffix)
		}
	}
}

func TestExchangeForSuffixPrefersExchangeCodes(t *testing.T) {
	v, ok := exchangeForSuffix(".BO")
	if !ok || v.Exchange != "BSE" {
		t.Fatalf("unexpected venue for .BO: %+v", v)
	}
	v, ok = exchangeForSuffix(".DE")
	if !ok || v.Market != "DE" {
		t.Fatalf("unexpected venue for .DE: %+v", v)
	}
	if _, ok := exchangeForSuffix(".XX"); ok {
		t.Fatalf("expected unknown suffix to miss")
	}
}
