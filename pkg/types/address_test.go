package types

import (
	"reflect"
	"testing"
)

func TestShippingAddressRoundTripThroughDriverValue(t *testing.T) {
	addr := ShippingAddress{Street: "1 Main", City: "Austin", State: "TX", ZipCode: "78701", Country: "US"}
	raw, err := addr.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var decoded ShippingAddress
	if err := decoded.Scan([]byte(raw.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if decoded != addr {
		t.Fatalf("expected %+v got %+v", addr, decoded)
	}
}

func TestShippingAddressMissing(t *testing.T) {
	addr := ShippingAddress{Street: "1 Main", City: " ", Country: "US"}
	want := []string{"city", "state", "zipCode"}
	if got := addr.Missing(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v got %v", want, got)
	}

	var empty ShippingAddress
	if err := empty.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported scan type")
	}
}
