package pagination

import "testing"

func TestClamp(t *testing.T) {
	t.Parallel()

	cfg := Config{Default: 20, Max: 100}
	tests := []struct {
		name string
		in   Page
		want Page
	}{
		{name: "defaults applied", in: Page{}, want: Page{Offset: 0, Limit: 20}},
		{name: "negative offset zeroed", in: Page{Offset: -5, Limit: 10}, want: Page{Offset: 0, Limit: 10}},
		{name: "limit capped at max", in: Page{Offset: 40, Limit: 500}, want: Page{Offset: 40, Limit: 100}},
		{name: "in range untouched", in: Page{Offset: 10, Limit: 50}, want: Page{Offset: 10, Limit: 50}},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Clamp(tc.in, cfg); got != tc.want {
				t.Fatalf("Clamp(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestClampWithoutMax(t *testing.T) {
	t.Parallel()

	got := Clamp(Page{Limit: 500}, Config{Default: 20})
	if got.Limit != 500 {
		t.Fatalf("expected unlimited max to keep limit 500, got %d", got.Limit)
	}
}

func TestHasMore(t *testing.T) {
	t.Parallel()

	if !HasMore(Page{Offset: 0, Limit: 3}, 3, 5) {
		t.Fatal("expected more rows past first page")
	}
	if HasMore(Page{Offset: 3, Limit: 3}, 2, 5) {
		t.Fatal("expected exhausted set to report no more rows")
	}
}
