package cart

// Free-delivery defaults used when the store snapshot carries no data.
const (
	DefaultFreeDeliveryThreshold int64 = 8000
	UnknownStoreID                     = "unknown"
	FallbackStoreName                  = "Achrilik"
)

// StoreProgress describes progress toward free delivery for one store's lines.
type StoreProgress struct {
	StoreName string `json:"storeName"`
	Total     int64  `json:"total"`
	Threshold int64  `json:"threshold"`
	Eligible  bool   `json:"eligible"`
	Remaining int64  `json:"remaining"`
}

// ThresholdLookup resolves a store's free-delivery threshold. Returning false
// falls back to the configured default threshold.
type ThresholdLookup func(storeID string) (int64, bool)

// DeliveryDefaults carries the fallback threshold and store name applied when
// a line's store snapshot or the lookup cannot resolve them. Zero values fall
// back to the package defaults.
type DeliveryDefaults struct {
	Threshold int64
	StoreName string
}

func (d DeliveryDefaults) normalized() DeliveryDefaults {
	if d.Threshold <= 0 {
		d.Threshold = DefaultFreeDeliveryThreshold
	}
	if d.StoreName == "" {
		d.StoreName = FallbackStoreName
	}
	return d
}

// ComputeDeliveryProgress groups lines by store, sums each store's subtotal,
// and compares it against that store's free-delivery threshold. Accumulation
// is pure integer summation, so the result is identical for any iteration
// order over the lines.
func ComputeDeliveryProgress(items []LineItem, lookup ThresholdLookup) map[string]StoreProgress {
	return ComputeDeliveryProgressWith(items, lookup, DeliveryDefaults{})
}

// ComputeDeliveryProgressWith is ComputeDeliveryProgress with configurable
// fallback threshold and store name.
func ComputeDeliveryProgressWith(items []LineItem, lookup ThresholdLookup, defaults DeliveryDefaults) map[string]StoreProgress {
	defaults = defaults.normalized()
	groups := make(map[string]StoreProgress)

	for _, item := range items {
		storeID := item.StoreID
		if storeID == "" {
			storeID = UnknownStoreID
		}

		group, ok := groups[storeID]
		if !ok {
			group = StoreProgress{
				StoreName: item.StoreName,
				Threshold: defaults.Threshold,
			}
			if group.StoreName == "" {
				group.StoreName = defaults.StoreName
			}
			if lookup != nil {
				if threshold, found := lookup(storeID); found {
					group.Threshold = threshold
				}
			}
		}
		group.Total += item.Subtotal()
		groups[storeID] = group
	}

	for storeID, group := range groups {
		group.Eligible = group.Total >= group.Threshold
		group.Remaining = group.Threshold - group.Total
		if group.Remaining < 0 {
			group.Remaining = 0
		}
		groups[storeID] = group
	}

	return groups
}
