// Package order turns a trade signal into a venue order: it resolves the
// logical symbol to a tradable instrument, derives stop/target levels and a
// valid lot size, and drives submission through the venue's fill-mode
// variants with bounded retries and position-limit mitigation.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"fxtrader/pkg/broker"
)

// ErrSymbolNotFound reports that no name variant of a logical symbol could be
// activated on the venue. The signal is skipped for this cycle.
var ErrSymbolNotFound = errors.New("order: symbol not found on venue")

// Resolver maps a logical symbol to the venue's instrument name plus trading
// constraints. Venue naming conventions drift, so a small ordered set of name
// variants is tried until one activates.
type Resolver struct {
	Broker broker.Client
}

// variants returns candidate venue names for a logical symbol, most likely
// first: as-is, upper-cased, separator-stripped, stable-coin suffix mapped.
func variants(logical string) []string {
	out := []string{logical}
	seen := map[string]bool{logical: true}
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}

	upper := strings.ToUpper(logical)
	add(upper)

	stripped := strings.NewReplacer("/", "", "-", "", "_", "").Replace(upper)
	add(stripped)

	if strings.HasSuffix(stripped, "USDT") {
		add(strings.TrimSuffix(stripped, "USDT") + "USD")
	}
	return out
}

// Resolve returns the first variant that both activates on the venue and
// yields instrument metadata.
func (r *Resolver) Resolve(ctx context.Context, logical string) (string, *broker.InstrumentInfo, error) {
	for _, name := range variants(logical) {
		ok, err := r.Broker.EnsureSymbol(ctx, name)
		if err != nil {
			log.Printf("resolver: select %s failed: %v", name, err)
			continue
		}
		if !ok {
			continue
		}

		info, err := r.Broker.Instrument(ctx, name)
		if err != nil || info == nil {
			log.Printf("resolver: %s activated but no metadata: %v", name, err)
			continue
		}
		return name, info, nil
	}
	return "", nil, fmt.Errorf("%w: %s", ErrSymbolNotFound, logical)
}
