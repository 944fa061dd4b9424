package index

// AutoFuzziness scales the tolerated edit distance to the query token
// length, matching Elasticsearch's AUTO behavior: short tokens must match
// exactly, medium tokens tolerate one edit, long tokens two.
func AutoFuzziness(tokenLen int) int {
	switch {
	case tokenLen <= 2:
		return 0
	case tokenLen <= 5:
		return 1
	default:
		return 2
	}
}

// WithinDistance reports whether the Levenshtein distance between a and b is
// at most max. The DP keeps a single row and bails out early once every cell
// in a row exceeds max.
func WithinDistance(a, b string, max int) bool {
	if max <= 0 {
		return a == b
	}
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la-lb > max || lb-la > max {
		return false
	}

	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		curr[0] = i
		rowMin := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
			if curr[j] < rowMin {
				rowMin = curr[j]
			}
		}
		if rowMin > max {
			return false
		}
		prev, curr = curr, prev
	}
	return prev[lb] <= max
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
