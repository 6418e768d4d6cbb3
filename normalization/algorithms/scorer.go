package algorithms

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer оценивает схожесть двух строк по шкале от 0 до 100
// Позволяет менять алгоритм нечеткого сопоставления, не трогая логику разбора адресов
type Scorer interface {
	Score(a, b string) float64
}

// ScorerFunc адаптирует обычную функцию к интерфейсу Scorer
type ScorerFunc func(a, b string) float64

// Score реализует Scorer
func (f ScorerFunc) Score(a, b string) float64 {
	return f(a, b)
}

// DefaultScorer используется, если вызывающий код не передал свой алгоритм
var DefaultScorer Scorer = ScorerFunc(TokenSetRatio)

// Process готовит строку к сравнению: нижний регистр, все кроме букв и цифр заменяется пробелом
func Process(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))

	pendingSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && builder.Len() > 0 {
				builder.WriteByte(' ')
			}
			pendingSpace = false
			builder.WriteRune(r)
			continue
		}
		pendingSpace = true
	}

	return builder.String()
}

// Ratio вычисляет нормализованную Indel-схожесть: 2*LCS / (len(a)+len(b)) * 100
// Строки сравниваются как есть, без предварительной обработки
func Ratio(a, b string) float64 {
	r1 := []rune(a)
	r2 := []rune(b)
	total := len(r1) + len(r2)
	if total == 0 {
		return 100
	}
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	return 200 * float64(lcsLength(r1, r2)) / float64(total)
}

// LevenshteinRatio вычисляет схожесть на основе расстояния Левенштейна
func LevenshteinRatio(a, b string) float64 {
	a = Process(a)
	b = Process(b)

	maxLen := utf8.RuneCountInString(a)
	if l := utf8.RuneCountInString(b); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(distance)/float64(maxLen))
}

// lcsLength вычисляет длину наибольшей общей подпоследовательности (одна строка памяти)
func lcsLength(r1, r2 []rune) int {
	if len(r2) > len(r1) {
		r1, r2 = r2, r1
	}

	row := make([]int, len(r2)+1)
	for i := 1; i <= len(r1); i++ {
		prevDiag := 0
		for j := 1; j <= len(r2); j++ {
			current := row[j]
			if r1[i-1] == r2[j-1] {
				row[j] = prevDiag + 1
			} else if row[j-1] > row[j] {
				row[j] = row[j-1]
			}
			prevDiag = current
		}
	}

	return row[len(r2)]
}

// Match результат поиска наилучшего совпадения в справочнике
type Match struct {
	Choice string  `json:"choice"`
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
}

// ExtractOne находит вариант из choices с максимальной оценкой.
// Возвращает false, если лучшая оценка ниже cutoff. При равных оценках побеждает более ранний вариант.
func ExtractOne(query string, choices []string, scorer Scorer, cutoff float64) (Match, bool) {
	if scorer == nil {
		scorer = DefaultScorer
	}

	best := Match{Index: -1, Score: -1}
	if strings.TrimSpace(query) == "" {
		return best, false
	}

	for i, choice := range choices {
		score := scorer.Score(query, choice)
		if score > best.Score {
			best = Match{Choice: choice, Index: i, Score: score}
		}
	}

	if best.Index < 0 || best.Score < cutoff {
		return best, false
	}
	return best, true
}
