package dsl

import "slices"

// Merge reconciles two input lists slot by slot.
//
// If either list is empty the other is returned as is. Otherwise the shorter list is padded
// with sparse slots and each position takes the primary value when it is set, falling back
// to the secondary value (which may itself be sparse).
func Merge(primary, secondary []Input) []Input {
	if len(primary) == 0 {
		return slices.Clone(secondary)
	}
	if len(secondary) == 0 {
		return slices.Clone(primary)
	}

	out := make([]Input, max(len(primary), len(secondary)))
	for i := range out {
		if i < len(primary) && primary[i] != nil {
			out[i] = primary[i]
			continue
		}
		if i < len(secondary) {
			out[i] = secondary[i]
		}
	}
	return out
}
