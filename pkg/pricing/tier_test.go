package pricing

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveTier_AppliedAndNext(t *testing.T) {
	res := ResolveTier(DefaultTiers(), 150)
	if res.Applied == nil {
		t.Fatalf("expected applied tier for 150")
	}
	if !res.Applied.DiscountPercent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected 10%% discount, got %s", res.Applied.DiscountPercent)
	}
	if res.Next == nil || res.Next.Min != 250 {
		t.Fatalf("expected next tier min 250, got %+v", res.Next)
	}
}

func TestResolveTier_ZeroQuantity(t *testing.T) {
	res := ResolveTier(DefaultTiers(), 0)
	if res.Applied != nil {
		t.Fatalf("expected no applied tier at zero quantity, got %+v", res.Applied)
	}
	if !res.DiscountPercent().IsZero() {
		t.Fatalf("expected zero discount, got %s", res.DiscountPercent())
	}
	if res.Next == nil || res.Next.Min != 50 {
		t.Fatalf("expected first tier as next, got %+v", res.Next)
	}
}

func TestResolveTier_BelowFirstTier(t *testing.T) {
	res := ResolveTier(DefaultTiers(), 30)
	if res.Applied != nil {
		t.Fatalf("expected no applied tier, got %+v", res.Applied)
	}
	if res.Next == nil || res.Next.Min != 50 {
		t.Fatalf("expected next min 50, got %+v", res.Next)
	}
}

func TestResolveTier_UnboundedLastTier(t *testing.T) {
	res := ResolveTier(DefaultTiers(), 25000)
	if res.Applied == nil || res.Applied.Min != 1000 {
		t.Fatalf("expected unbounded tier, got %+v", res.Applied)
	}
	if res.Next != nil {
		t.Fatalf("expected no next tier after the last one, got %+v", res.Next)
	}
}

func TestResolveTier_Empty(t *testing.T) {
	res := ResolveTier(nil, 500)
	if res.Applied != nil || res.Next != nil {
		t.Fatalf("expected empty resolution, got %+v", res)
	}
}

func TestResolveTier_UnsortedInputIsNotMutatedAndIsIdempotent(t *testing.T) {
	tiers := []Tier{
		{Min: 500, Max: 999, DiscountPercent: decimal.NewFromInt(20)},
		{Min: 50, Max: 99, DiscountPercent: decimal.NewFromInt(5)},
		{Min: 1000, Max: 0, DiscountPercent: decimal.NewFromInt(25)},
		{Min: 250, Max: 499, DiscountPercent: decimal.NewFromInt(15)},
		{Min: 100, Max: 249, DiscountPercent: decimal.NewFromInt(10)},
	}
	original := append([]Tier(nil), tiers...)

	first := ResolveTier(tiers, 150)
	second := ResolveTier(tiers, 150)

	if !reflect.DeepEqual(tiers, original) {
		t.Fatalf("input tiers were reordered: %+v", tiers)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("resolution differs between calls: %+v vs %+v", first, second)
	}
	if first.Applied.Min != 100 || first.Next.Min != 250 {
		t.Fatalf("unexpected resolution %+v / %+v", first.Applied, first.Next)
	}
}

func TestResolveTier_OverlapPrefersHighestMin(t *testing.T) {
	tiers := []Tier{
		{Min: 100, Max: 0, DiscountPercent: decimal.NewFromInt(10)},
		{Min: 200, Max: 300, DiscountPercent: decimal.NewFromInt(12)},
	}
	res := ResolveTier(tiers, 250)
	if res.Applied == nil || res.Applied.Min != 200 {
		t.Fatalf("expected the min=200 tier, got %+v", res.Applied)
	}
	if res.Next != nil {
		t.Fatalf("expected no next tier, got %+v", res.Next)
	}
}

func TestTierMatches(t *testing.T) {
	tier := Tier{Min: 50, Max: 99}
	cases := map[int]bool{49: false, 50: true, 99: true, 100: false}
	for qty, want := range cases {
		if got := tier.Matches(qty); got != want {
			t.Fatalf("Matches(%d) = %v, want %v", qty, got, want)
		}
	}
	if !(Tier{Min: 1000}).Matches(1_000_000) {
		t.Fatalf("max=0 should be unbounded")
	}
}
