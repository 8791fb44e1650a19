package marketdata

import (
	"context"
	"time"

	"github.com/wonny/tatracker/internal/contracts"
)

// Provider is the minimal contract every data source adapter satisfies:
// given a ticker and date range, return zero or more daily bars.
// Implementations normalize their raw responses into PriceBar values.
type Provider interface {
	Name() string
	FetchDaily(ctx context.Context, ticker string, from, to time.Time) (contracts.PriceSeries, error)
}

// Providers bundles the concrete adapters the router dispatches to.
type Providers struct {
	TCBS   Provider
	VCI    Provider
	Sheets Provider
	Yahoo  Provider
}
