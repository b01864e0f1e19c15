// Package text provides small text-analysis helpers shared by the
// monitoring pipeline: title similarity scoring and mention/link extraction.
package text

import "strings"

// Ratio returns a similarity score in [0, 1] for two strings.
// It is the classic longest-matching-block measure: 2*M / T, where M is the
// total length of all matched blocks and T is the combined length of both
// inputs. Comparison is case-insensitive. The measure is symmetric and
// returns 1.0 exactly when the inputs are equal after case-folding.
func Ratio(s1, s2 string) float64 {
	a := []byte(strings.ToLower(s1))
	b := []byte(strings.ToLower(s2))

	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	matched := 0
	for _, m := range matchingBlocks(a, b) {
		matched += m.size
	}

	return 2.0 * float64(matched) / float64(len(a)+len(b))
}

type matchBlock struct {
	a, b, size int
}

// matchingBlocks finds non-overlapping matching blocks by repeatedly taking
// the longest match and recursing into the regions to its left and right.
func matchingBlocks(a, b []byte) []matchBlock {
	// Index of positions per byte value in b.
	b2j := make(map[byte][]int, len(b))
	for j, c := range b {
		b2j[c] = append(b2j[c], j)
	}

	type region struct {
		alo, ahi, blo, bhi int
	}

	stack := []region{{0, len(a), 0, len(b)}}
	var blocks []matchBlock

	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		m := longestMatch(a, b2j, r.alo, r.ahi, r.blo, r.bhi)
		if m.size == 0 {
			continue
		}
		blocks = append(blocks, m)

		if r.alo < m.a && r.blo < m.b {
			stack = append(stack, region{r.alo, m.a, r.blo, m.b})
		}
		if m.a+m.size < r.ahi && m.b+m.size < r.bhi {
			stack = append(stack, region{m.a + m.size, r.ahi, m.b + m.size, r.bhi})
		}
	}

	return blocks
}

// longestMatch finds the longest matching block within a[alo:ahi] and
// b[blo:bhi]. Ties go to the earliest match in a, then in b.
func longestMatch(a []byte, b2j map[byte][]int, alo, ahi, blo, bhi int) matchBlock {
	best := matchBlock{a: alo, b: blo, size: 0}

	// lengths[j] = length of the longest match ending at a[i-1], b[j].
	lengths := make(map[int]int)

	for i := alo; i < ahi; i++ {
		next := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := lengths[j-1] + 1
			next[j] = k
			if k > best.size {
				best = matchBlock{a: i - k + 1, b: j - k + 1, size: k}
			}
		}
		lengths = next
	}

	return best
}
