package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestLineTotal(t *testing.T) {
	cases := []struct {
		name     string
		price    string
		discount string
		qty      int
		want     string
	}{
		{name: "ten percent", price: "100", discount: "10", qty: 3, want: "270"},
		{name: "no discount", price: "19.99", discount: "0", qty: 2, want: "39.98"},
		{name: "full discount", price: "50", discount: "100", qty: 4, want: "0"},
		{name: "fractional", price: "9.99", discount: "15", qty: 1, want: "8.4915"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LineTotal(decimal.RequireFromString(tc.price), decimal.RequireFromString(tc.discount), tc.qty)
			if !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestRoundMoney(t *testing.T) {
	got := RoundMoney(decimal.RequireFromString("8.4915"))
	if got.String() != "8.49" {
		t.Fatalf("expected 8.49, got %s", got)
	}
}
