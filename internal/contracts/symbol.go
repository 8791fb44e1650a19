package contracts

import "strings"

// SymbolClass determines which providers are eligible for a symbol
// and in which order they are tried.
type SymbolClass int

const (
	// ClassDomesticStock is a HOSE/HNX/UPCOM listed stock.
	ClassDomesticStock SymbolClass = iota
	// ClassDomesticIndex is a domestic market index (VNINDEX).
	ClassDomesticIndex
	// ClassSheetsIndex is served exclusively by the Google Sheets feed
	// (VNMIDCAP). It never falls back to another provider.
	ClassSheetsIndex
	// ClassForeign covers foreign indices and anything unrecognized.
	ClassForeign
)

func (c SymbolClass) String() string {
	switch c {
	case ClassDomesticStock:
		return "domestic_stock"
	case ClassDomesticIndex:
		return "domestic_index"
	case ClassSheetsIndex:
		return "sheets_index"
	case ClassForeign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Exclusive reports whether the class is pinned to a single provider.
func (c SymbolClass) Exclusive() bool {
	return c == ClassSheetsIndex
}

// Symbol identifies one entry of the tracking list.
type Symbol struct {
	Ticker   string `json:"ticker" yaml:"ticker"`
	Sector   string `json:"sector" yaml:"sector"`
	Exchange string `json:"exchange" yaml:"exchange"`

	// Provider pins the symbol to a specific provider, overriding
	// the class-based routing table. Empty means no override.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

// domesticExchanges are the Vietnamese exchanges whose stocks are served
// by the TCBS API first.
var domesticExchanges = map[string]bool{
	"HOSE":  true,
	"HNX":   true,
	"UPCOM": true,
}

// Class classifies the symbol for provider routing.
func (s Symbol) Class() SymbolClass {
	ticker := strings.ToUpper(strings.TrimSpace(s.Ticker))

	switch ticker {
	case "VNMID", "VNMIDCAP":
		return ClassSheetsIndex
	case "VNINDEX":
		return ClassDomesticIndex
	}

	if domesticExchanges[strings.ToUpper(s.Exchange)] {
		return ClassDomesticStock
	}

	return ClassForeign
}

// Domestic reports whether the symbol trades on a Vietnamese exchange.
func (s Symbol) Domestic() bool {
	return domesticExchanges[strings.ToUpper(s.Exchange)]
}
