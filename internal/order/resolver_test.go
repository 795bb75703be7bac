package order

import (
	"context"
	"errors"
	"testing"

	"fxtrader/pkg/broker"
)

func TestResolveExactName(t *testing.T) {
	mock := broker.NewMock("EURUSD")
	r := &Resolver{Broker: mock}

	name, info, err := r.Resolve(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if name != "EURUSD" {
		t.Fatalf("resolved name = %q, expected EURUSD", name)
	}
	if info == nil || info.Digits != 5 {
		t.Fatalf("instrument metadata missing or wrong: %+v", info)
	}
}

func TestResolveFallsBackThroughVariants(t *testing.T) {
	// Venue only knows the stripped, USD-suffixed name.
	mock := broker.NewMock("BTCUSD")
	r := &Resolver{Broker: mock}

	name, _, err := r.Resolve(context.Background(), "btc-usdt")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if name != "BTCUSD" {
		t.Fatalf("resolved name = %q, expected BTCUSD", name)
	}
}

func TestResolveUnknownSymbol(t *testing.T) {
	mock := broker.NewMock("EURUSD")
	r := &Resolver{Broker: mock}

	_, _, err := r.Resolve(context.Background(), "DOESNOTEXIST")
	if !errors.Is(err, ErrSymbolNotFound) {
		t.Fatalf("error = %v, expected ErrSymbolNotFound", err)
	}
}
