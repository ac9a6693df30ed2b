package curator

import "github.com/yashy10/golden-gate-quest/internal/quest"

// Picker chooses an index in [0, n). A nil Picker always takes the first.
type Picker func(n int) int

// resolveIndices converts 1-based provider indices into want distinct
// 0-based candidate positions. Out-of-range and repeated indices are
// dropped, and the result is topped up from unused candidates in list
// order, or by pick when set. It reports how many slots were filled.
func resolveIndices(indices []int, n, want int, pick Picker) ([]int, int) {
	want = min(want, n)
	used := make([]bool, n)
	out := make([]int, 0, want)
	repaired := 0

	for _, idx := range indices {
		if len(out) == want {
			break
		}
		i := idx - 1
		if i < 0 || i >= n || used[i] {
			continue
		}
		used[i] = true
		out = append(out, i)
	}

	for len(out) < want {
		remaining := make([]int, 0, n-len(out))
		for i := range n {
			if !used[i] {
				remaining = append(remaining, i)
			}
		}
		k := 0
		if pick != nil {
			k = pick(len(remaining))
		}
		used[remaining[k]] = true
		out = append(out, remaining[k])
		repaired++
	}
	return out, repaired
}

// resolveFoodStop maps a 1-based index into foods. An invalid index falls
// back to the first food stop, or to pick when set. No food stops yields nil.
func resolveFoodStop(idx int, foods []quest.FoodStop, pick Picker) (*quest.FoodStop, bool) {
	if len(foods) == 0 {
		return nil, false
	}
	if idx >= 1 && idx <= len(foods) {
		fs := foods[idx-1]
		return &fs, false
	}
	k := 0
	if pick != nil {
		k = pick(len(foods))
	}
	fs := foods[k]
	return &fs, true
}
