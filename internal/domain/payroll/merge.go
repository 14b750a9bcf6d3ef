package payroll

// MergeItems applies one-time overrides to a line list. An override matches
// lines by component ref, or by name when it carries no ref. A non-zero
// override sets the amount of every matching line, a zero override removes
// every matching line, and an unmatched non-zero override is appended.
// Unaffected lines keep their order and the base slice is never mutated.
func MergeItems(base []PayslipItem, overrides []PayslipItem) []PayslipItem {
	out := make([]PayslipItem, len(base), len(base)+len(overrides))
	copy(out, base)

	for _, override := range overrides {
		matched := false
		kept := out[:0]
		for _, item := range out {
			if !itemMatches(item, override) {
				kept = append(kept, item)
				continue
			}
			matched = true
			if override.Amount.IsZero() {
				continue
			}
			item.Amount = override.Amount
			kept = append(kept, item)
		}
		out = kept
		if !matched && !override.Amount.IsZero() {
			out = append(out, override)
		}
	}
	return out
}

func itemMatches(item, override PayslipItem) bool {
	if override.ComponentRef != "" {
		return item.ComponentRef == override.ComponentRef
	}
	return item.Name == override.Name
}

func recurringItems(items []RecurringItem) []PayslipItem {
	out := make([]PayslipItem, 0, len(items))
	for _, item := range items {
		out = append(out, PayslipItem{Name: item.Name, Amount: item.Amount, ComponentRef: item.ComponentRef})
	}
	return out
}
