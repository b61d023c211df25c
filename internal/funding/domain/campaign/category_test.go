package campaign

import "testing"

func TestCategoryIsValid(t *testing.T) {
	t.Parallel()

	for c := CategoryTechnology; c <= CategoryOther; c++ {
		if !c.IsValid() {
			t.Fatalf("expected category %d to be valid", c)
		}
	}
	if Category(-1).IsValid() || Category(6).IsValid() {
		t.Fatal("expected out-of-range categories to be invalid")
	}
}

func TestCategoryLabelRoundTrip(t *testing.T) {
	t.Parallel()

	for c := CategoryTechnology; c <= CategoryOther; c++ {
		got, ok := CategoryFromLabel(c.Label())
		if !ok || got != c {
			t.Fatalf("CategoryFromLabel(%q) = %v, %v", c.Label(), got, ok)
		}
	}
	if got, ok := CategoryFromLabel(" charity "); !ok || got != CategoryCharity {
		t.Fatalf("expected case-insensitive trimmed match, got %v, %v", got, ok)
	}
	if _, ok := CategoryFromLabel("sports"); ok {
		t.Fatal("expected unknown label to be rejected")
	}
}
