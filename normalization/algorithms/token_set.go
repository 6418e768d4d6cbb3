package algorithms

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// TokenSetRatio сравнивает строки как множества слов.
// Если слова одной строки целиком входят в другую, оценка равна 100:
// "київ" и "київ вул хрещатик" считаются полностью совпадающими.
func TokenSetRatio(a, b string) float64 {
	tokens1 := tokenSet(Process(a))
	tokens2 := tokenSet(Process(b))
	if len(tokens1) == 0 || len(tokens2) == 0 {
		return 0
	}

	intersection := make([]string, 0)
	diff1 := make([]string, 0)
	for token := range tokens1 {
		if tokens2[token] {
			intersection = append(intersection, token)
		} else {
			diff1 = append(diff1, token)
		}
	}
	diff2 := make([]string, 0)
	for token := range tokens2 {
		if !tokens1[token] {
			diff2 = append(diff2, token)
		}
	}

	if len(intersection) > 0 && (len(diff1) == 0 || len(diff2) == 0) {
		return 100
	}

	sort.Strings(intersection)
	sort.Strings(diff1)
	sort.Strings(diff2)

	sect := strings.Join(intersection, " ")
	combined1 := joinNonEmpty(sect, strings.Join(diff1, " "))
	combined2 := joinNonEmpty(sect, strings.Join(diff2, " "))

	best := Ratio(combined1, combined2)
	if sect != "" {
		if score := Ratio(sect, combined1); score > best {
			best = score
		}
		if score := Ratio(sect, combined2); score > best {
			best = score
		}
	}

	return best
}

// TokenSortRatio сравнивает строки после сортировки слов
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(Process(a)), sortedTokens(Process(b)))
}

// JaroWinkler альтернативная метрика для коротких названий (шкала 0..100)
func JaroWinkler(a, b string) float64 {
	a = Process(a)
	b = Process(b)
	if a == "" && b == "" {
		return 100
	}
	if a == "" || b == "" {
		return 0
	}
	return 100 * smetrics.JaroWinkler(a, b, 0.7, 4)
}

// tokenSet разбивает обработанную строку на множество слов
func tokenSet(processed string) map[string]bool {
	set := make(map[string]bool)
	for _, token := range strings.Fields(processed) {
		set[token] = true
	}
	return set
}

func sortedTokens(processed string) string {
	tokens := strings.Fields(processed)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

func joinNonEmpty(left, right string) string {
	switch {
	case left == "":
		return right
	case right == "":
		return left
	default:
		return left + " " + right
	}
}
