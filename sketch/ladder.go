package sketch

// Levels returns the sketch sizes the approximate solver tries for a budget
// of m points, largest first. Sizes come from the fixed ladder
// 1, 2, 3, 4, 6, 8, 12, 16, 24, ... (2^k and 3·2^(k-1)), so the levels
// allowed by m are a subset of the levels allowed by any larger m. Keeping
// the cheapest result across all levels therefore never gets worse as m
// grows. The largest level is at least 2m/3.
func Levels(m int) []int {
	if m < 1 {
		return nil
	}

	var up []int
	for p := 1; p <= m; p *= 2 {
		up = append(up, p)
		if mid := p + p/2; p >= 2 && mid <= m {
			up = append(up, mid)
		}
		if p > m/2 {
			break
		}
	}

	levels := make([]int, len(up))
	for i, l := range up {
		levels[len(up)-1-i] = l
	}
	return levels
}
