package cart

import (
	"math/rand"
	"reflect"
	"testing"
)

func fixedLookup(thresholds map[string]int64) ThresholdLookup {
	return func(storeID string) (int64, bool) {
		threshold, ok := thresholds[storeID]
		return threshold, ok
	}
}

func TestDeliveryProgressBelowThreshold(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 2000, Quantity: 2, StoreID: "s1", StoreName: "Store A"},
	}
	progress := ComputeDeliveryProgress(items, fixedLookup(map[string]int64{"s1": 8000}))

	group, ok := progress["s1"]
	if !ok {
		t.Fatalf("expected entry for s1, got %v", progress)
	}
	if group.Total != 4000 || group.Eligible || group.Remaining != 4000 {
		t.Fatalf("unexpected progress: %+v", group)
	}
	if group.StoreName != "Store A" || group.Threshold != 8000 {
		t.Fatalf("unexpected store data: %+v", group)
	}
}

func TestDeliveryProgressCrossesThreshold(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 2000, Quantity: 5, StoreID: "s1", StoreName: "Store A"},
	}
	progress := ComputeDeliveryProgress(items, fixedLookup(map[string]int64{"s1": 8000}))

	group := progress["s1"]
	if group.Total != 10000 || !group.Eligible || group.Remaining != 0 {
		t.Fatalf("unexpected progress: %+v", group)
	}
}

func TestDeliveryProgressGroupsPerStore(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 3000, Quantity: 1, StoreID: "s1", StoreName: "Store A"},
		{ProductID: "p2", Price: 5000, Quantity: 2, StoreID: "s2", StoreName: "Store B"},
		{ProductID: "p3", Price: 6000, Quantity: 1, StoreID: "s1", StoreName: "Store A"},
	}
	progress := ComputeDeliveryProgress(items, fixedLookup(map[string]int64{"s1": 8000, "s2": 12000}))

	if len(progress) != 2 {
		t.Fatalf("expected 2 store groups, got %d", len(progress))
	}
	if group := progress["s1"]; group.Total != 9000 || !group.Eligible || group.Remaining != 0 {
		t.Fatalf("unexpected s1 progress: %+v", group)
	}
	if group := progress["s2"]; group.Total != 10000 || group.Eligible || group.Remaining != 2000 {
		t.Fatalf("unexpected s2 progress: %+v", group)
	}
}

func TestDeliveryProgressDefaults(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 1000, Quantity: 1},
	}
	progress := ComputeDeliveryProgress(items, nil)

	group, ok := progress[UnknownStoreID]
	if !ok {
		t.Fatalf("expected fallback store id, got %v", progress)
	}
	if group.StoreName != FallbackStoreName {
		t.Fatalf("expected fallback store name, got %q", group.StoreName)
	}
	if group.Threshold != DefaultFreeDeliveryThreshold {
		t.Fatalf("expected default threshold, got %d", group.Threshold)
	}
	if group.Remaining != DefaultFreeDeliveryThreshold-1000 {
		t.Fatalf("unexpected remaining %d", group.Remaining)
	}
}

func TestDeliveryProgressConfiguredDefaults(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 1000, Quantity: 1},
		{ProductID: "p2", Price: 2000, Quantity: 1, StoreID: "s9", StoreName: "Store X"},
	}
	defaults := DeliveryDefaults{Threshold: 5000, StoreName: "Boutique"}
	progress := ComputeDeliveryProgressWith(items, nil, defaults)

	group, ok := progress[UnknownStoreID]
	if !ok {
		t.Fatalf("expected fallback store id, got %v", progress)
	}
	if group.StoreName != "Boutique" || group.Threshold != 5000 {
		t.Fatalf("expected configured defaults, got %+v", group)
	}
	if group.Remaining != 4000 {
		t.Fatalf("unexpected remaining %d", group.Remaining)
	}
	// A named store keeps its own snapshot; only the threshold default applies.
	if group := progress["s9"]; group.StoreName != "Store X" || group.Threshold != 5000 {
		t.Fatalf("unexpected s9 progress: %+v", group)
	}
}

func TestDeliveryProgressZeroDefaultsFallBack(t *testing.T) {
	t.Parallel()

	items := []LineItem{{ProductID: "p1", Price: 1000, Quantity: 1}}
	progress := ComputeDeliveryProgressWith(items, nil, DeliveryDefaults{})

	group := progress[UnknownStoreID]
	if group.Threshold != DefaultFreeDeliveryThreshold || group.StoreName != FallbackStoreName {
		t.Fatalf("expected package defaults for zero values, got %+v", group)
	}
}

func TestDeliveryProgressUnresolvedThresholdUsesDefault(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 1000, Quantity: 1, StoreID: "s9", StoreName: "Store X"},
	}
	progress := ComputeDeliveryProgress(items, fixedLookup(nil))

	if group := progress["s9"]; group.Threshold != DefaultFreeDeliveryThreshold {
		t.Fatalf("expected default threshold, got %d", group.Threshold)
	}
}

func TestDeliveryProgressOrderIndependent(t *testing.T) {
	t.Parallel()

	items := []LineItem{
		{ProductID: "p1", Price: 3000, Quantity: 1, StoreID: "s1", StoreName: "Store A"},
		{ProductID: "p2", Price: 5000, Quantity: 2, StoreID: "s2", StoreName: "Store B"},
		{ProductID: "p3", Price: 6000, Quantity: 1, StoreID: "s1", StoreName: "Store A"},
		{ProductID: "p4", Price: 1200, Quantity: 3, StoreID: "s3", StoreName: "Store C"},
		{ProductID: "p5", Price: 700, Quantity: 4},
	}
	lookup := fixedLookup(map[string]int64{"s1": 8000, "s2": 12000})

	want := ComputeDeliveryProgress(items, lookup)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]LineItem, len(items))
		copy(shuffled, items)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := ComputeDeliveryProgress(shuffled, lookup); !reflect.DeepEqual(want, got) {
			t.Fatalf("progress depends on iteration order:\nwant %v\ngot  %v", want, got)
		}
	}
}

func TestDeliveryProgressEmptyCart(t *testing.T) {
	t.Parallel()

	progress := ComputeDeliveryProgress(nil, nil)
	if len(progress) != 0 {
		t.Fatalf("expected no groups for empty cart, got %v", progress)
	}
}
