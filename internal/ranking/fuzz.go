package ranking

import (
	"sort"
	"strings"
	"unicode"
)

const (
	unbaseScale = 0.95
	// Strings whose lengths differ by less than this factor are compared whole.
	partialThreshold = 1.5
	// Beyond this length factor partial matches are heavily discounted.
	longThreshold = 8.0
)

// Process lower-cases s, replaces every non-alphanumeric character with a space
// and trims the result.
func Process(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.TrimSpace(mapped)
}

// WRatio is a weighted fuzzy similarity in [0, 100]. It picks the best of a plain
// ratio, token-based ratios and, for strings of very different length, partial
// ratios scaled down by the length difference. Inputs are compared as given.
func WRatio(a, b string) float64 {
	s1, s2 := []rune(a), []rune(b)
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}

	l1, l2 := float64(len(s1)), float64(len(s2))
	lenRatio := l1 / l2
	if l2 > l1 {
		lenRatio = l2 / l1
	}

	end := ratio(s1, s2)
	if lenRatio < partialThreshold {
		return max(end, tokenRatio(a, b)*unbaseScale)
	}

	partialScale := 0.9
	if lenRatio >= longThreshold {
		partialScale = 0.6
	}

	end = max(end, partialRatio(s1, s2)*partialScale)
	return max(end, partialTokenRatio(a, b)*unbaseScale*partialScale)
}

// Ratio is the normalized indel similarity of a and b in [0, 100].
func Ratio(a, b string) float64 {
	return ratio([]rune(a), []rune(b))
}

func ratio(s1, s2 []rune) float64 {
	total := len(s1) + len(s2)
	if total == 0 {
		return 100
	}
	return 200 * float64(lcs(s1, s2)) / float64(total)
}

// lcs returns the length of the longest common subsequence.
func lcs(s1, s2 []rune) int {
	if len(s1) < len(s2) {
		s1, s2 = s2, s1
	}
	prev := make([]int, len(s2)+1)
	cur := make([]int, len(s2)+1)
	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			switch {
			case s1[i-1] == s2[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(s2)]
}

// partialRatio is the best ratio of the shorter string against any
// equally long window of the longer one, including windows clipped at either end.
func partialRatio(s1, s2 []rune) float64 {
	if len(s1) == 0 || len(s2) == 0 {
		return 0
	}
	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	best := partialRatioWindows(s1, s2)
	if best != 100 && len(s1) == len(s2) {
		best = max(best, partialRatioWindows(s2, s1))
	}
	return best
}

func partialRatioWindows(short, long []rune) float64 {
	chars := make(map[rune]struct{}, len(short))
	for _, r := range short {
		chars[r] = struct{}{}
	}
	has := func(r rune) bool {
		_, ok := chars[r]
		return ok
	}

	m, n := len(short), len(long)
	best := 0.0

	for i := 1; i < m; i++ {
		if !has(long[i-1]) {
			continue
		}
		if r := ratio(short, long[:i]); r > best {
			best = r
			if best == 100 {
				return best
			}
		}
	}

	for i := 0; i < n-m; i++ {
		if !has(long[i+m-1]) {
			continue
		}
		if r := ratio(short, long[i:i+m]); r > best {
			best = r
			if best == 100 {
				return best
			}
		}
	}

	for i := n - m; i < n; i++ {
		if !has(long[i]) {
			continue
		}
		if r := ratio(short, long[i:]); r > best {
			best = r
			if best == 100 {
				return best
			}
		}
	}

	return best
}

func tokenRatio(a, b string) float64 {
	return max(tokenSortRatio(a, b), tokenSetRatio(a, b))
}

func tokenSortRatio(a, b string) float64 {
	return Ratio(sortedJoin(strings.Fields(a)), sortedJoin(strings.Fields(b)))
}

func tokenSetRatio(a, b string) float64 {
	setA, setB := tokenSet(strings.Fields(a)), tokenSet(strings.Fields(b))
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersect, diffAB, diffBA := splitSets(setA, setB)
	if len(intersect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 100
	}

	ab := sortedJoin(diffAB)
	ba := sortedJoin(diffBA)
	result := Ratio(ab, ba)

	sect := sortedJoin(intersect)
	if sect == "" {
		return result
	}

	sectLen := len([]rune(sect))
	abLen := len([]rune(ab))
	baLen := len([]rune(ba))

	// sect is a prefix of "sect ab", so only the separator and ab differ.
	sectAB := 100 * (1 - float64(1+abLen)/float64(2*sectLen+1+abLen))
	sectBA := 100 * (1 - float64(1+baLen)/float64(2*sectLen+1+baLen))

	return max(result, sectAB, sectBA)
}

func partialTokenRatio(a, b string) float64 {
	tokensA, tokensB := strings.Fields(a), strings.Fields(b)
	setA, setB := tokenSet(tokensA), tokenSet(tokensB)

	intersect, diffAB, diffBA := splitSets(setA, setB)
	if len(intersect) > 0 {
		return 100
	}

	result := partialRatio([]rune(sortedJoin(tokensA)), []rune(sortedJoin(tokensB)))
	if len(tokensA) == len(diffAB) && len(tokensB) == len(diffBA) {
		return result
	}

	return max(result, partialRatio([]rune(sortedJoin(diffAB)), []rune(sortedJoin(diffBA))))
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func splitSets(a, b map[string]struct{}) (intersect, onlyA, onlyB []string) {
	for token := range a {
		if _, ok := b[token]; ok {
			intersect = append(intersect, token)
			continue
		}
		onlyA = append(onlyA, token)
	}
	for token := range b {
		if _, ok := a[token]; !ok {
			onlyB = append(onlyB, token)
		}
	}
	return intersect, onlyA, onlyB
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
