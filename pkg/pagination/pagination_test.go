package pagination

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   Params
		want Params
	}{
		{Params{}, Params{Page: 1, Limit: 10}},
		{Params{Page: -3, Limit: 500}, Params{Page: 1, Limit: 100}},
		{Params{Page: 4, Limit: 25}, Params{Page: 4, Limit: 25}},
	}
	for _, tc := range cases {
		if got := tc.in.Normalize(); got != tc.want {
			t.Fatalf("normalize(%+v) = %+v want %+v", tc.in, got, tc.want)
		}
	}
}

func TestOffsetAndTotalPages(t *testing.T) {
	if got := (Params{Page: 3, Limit: 10}).Offset(); got != 20 {
		t.Fatalf("expected offset 20 got %d", got)
	}
	if got := TotalPages(21, 10); got != 3 {
		t.Fatalf("expected 3 pages got %d", got)
	}
	if got := TotalPages(20, 10); got != 2 {
		t.Fatalf("expected 2 pages got %d", got)
	}
	if got := TotalPages(0, 10); got != 0 {
		t.Fatalf("expected 0 pages got %d", got)
	}
}
