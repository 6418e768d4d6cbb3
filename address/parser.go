package address

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"salesrecon/normalization"
	"salesrecon/normalization/algorithms"
)

// Флаг \b в regexp работает только с ASCII, поэтому границы слов для кириллицы заданы классами символов
var (
	regionBeforeRe = regexp.MustCompile(`(^|[^\p{L}'’ʼ-])[\p{L}'’ʼ-]+\s+(?:область|обл|oblast|obl|region)\.?([^\p{L}]|$)`)
	regionAfterRe  = regexp.MustCompile(`(^|[^\p{L}])(?:область|обл|oblast|obl)\.?\s*[\p{L}'’ʼ-]+(?:ська|цька|зька|ska|zka)([^\p{L}]|$)`)
	districtRe     = regexp.MustCompile(`(^|[^\p{L}'’ʼ-])[\p{L}'’ʼ-]+\s+(?:р-н|район|district|raion)\.?([^\p{L}]|$)`)
	districtAfter  = regexp.MustCompile(`(^|[^\p{L}])(?:р-н|район)\.?\s*[\p{L}'’ʼ-]+(?:ський|цький|зький)([^\p{L}]|$)`)

	// Значение квартиры/офиса обязано начинаться с цифры, иначе "кв" съест начало "Квітнева"
	unitRe = regexp.MustCompile(`(^|[\s,])(?:квартира|кв|офіс|офис|оф|кімната|кімн|кім|приміщення|прим|корпус|корп|секція|apartment|apt|office|suite|room|unit|ste|rm)\.?\s*№?\s*\d[\p{L}\d/-]*`)

	dotSplitRe  = regexp.MustCompile(`\.([\p{L}\d])`)
	houseRe     = regexp.MustCompile(`^\d+(?:[-/]?(?:\d+|\p{L}{1,2}))*$`)
	initialRe   = regexp.MustCompile(`^\p{L}\.$`)
	commaToken  = ","
	houseTokens = map[string]bool{
		"буд.": true, "буд": true, "будинок": true, "д.": true, "дом": true,
		"№": true, "#": true, "bldg": true, "bldg.": true, "building": true, "house": true,
	}
)

// parseResult компоненты, найденные эвристическим разбором
type parseResult struct {
	city        string
	street      string
	houseNumber string
	cityScore   float64
	streetScore float64
}

// parse разбирает адрес на город, улицу и номер дома
func (r *Resolver) parse(raw string) parseResult {
	var result parseResult

	text := stripQualifiers(normalization.NormalizeKey(raw))
	text = dotSplitRe.ReplaceAllString(text, ". $1")
	text = strings.ReplaceAll(text, ",", " , ")
	tokens := skipCommas(strings.Fields(text))
	if len(tokens) == 0 {
		return result
	}

	tokens = r.extractSettlement(tokens, &result)
	tokens = skipCommas(tokens)

	streetTokens := tokens
	for i := len(tokens) - 1; i >= 0; i-- {
		if house, ok := houseNumberToken(tokens[i]); ok {
			result.houseNumber = house
			streetTokens = tokens[:i]
			break
		}
	}

	r.extractStreet(streetTokens, &result)
	return result
}

// extractSettlement ищет населенный пункт в начале адреса и возвращает оставшиеся токены
func (r *Resolver) extractSettlement(tokens []string, result *parseResult) []string {
	if marker := r.matchMarker(tokens); marker > 0 {
		rest := skipCommas(tokens[marker:])
		candidate := 0
		for candidate < len(rest) && !r.isSettlementBoundary(rest[candidate]) {
			candidate++
		}
		if candidate == 0 {
			return rest
		}

		query := strings.Join(rest[:candidate], " ")
		match, ok := algorithms.ExtractOne(query, r.ref.settlements, r.scorer, r.thresholds.Settlement)
		if !ok {
			// Маркер был, но населенный пункт неизвестен: название все равно не относится к улице
			return rest[candidate:]
		}
		result.city = match.Choice
		result.cityScore = match.Score
		return rest[consumeWords(rest[:candidate], wordCount(match.Choice)):]
	}

	query := strings.Join(withoutCommas(tokens), " ")
	match, ok := algorithms.ExtractOne(query, r.ref.settlements, r.scorer, r.thresholds.SettlementStrict)
	if !ok || !hasWordPrefix(algorithms.Process(query), algorithms.Process(match.Choice)) {
		return tokens
	}
	result.city = match.Choice
	result.cityScore = match.Score
	return tokens[consumeWords(tokens, wordCount(match.Choice)):]
}

// extractStreet определяет тип и название улицы
func (r *Resolver) extractStreet(tokens []string, result *parseResult) {
	cleaned := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token == commaToken || houseTokens[token] {
			continue
		}
		if _, isKeyword := r.ref.keywordSet[token]; !isKeyword && initialRe.MatchString(token) {
			continue
		}
		cleaned = append(cleaned, token)
	}
	if len(cleaned) == 0 {
		return
	}

	streetType, name := r.splitStreetType(cleaned)
	if name == "" {
		return
	}

	if match, ok := algorithms.ExtractOne(name, r.ref.streets, r.scorer, r.thresholds.Street); ok {
		name = match.Choice
		result.streetScore = match.Score
	} else {
		name = cases.Title(language.Ukrainian).String(name)
	}

	if streetType != "" {
		result.street = streetType + " " + name
	} else {
		result.street = name
	}
}

// splitStreetType отделяет тип улицы: сначала префикс (самое длинное ключевое слово), затем суффикс
func (r *Resolver) splitStreetType(tokens []string) (string, string) {
	joined := strings.Join(tokens, " ")

	for _, kw := range r.ref.keywords {
		if !strings.HasPrefix(joined, kw.keyword) {
			continue
		}
		rest := joined[len(kw.keyword):]
		if next, _ := utf8.DecodeRuneInString(rest); rest != "" && (unicode.IsLetter(next) || unicode.IsDigit(next)) {
			continue
		}
		if name := strings.TrimSpace(rest); name != "" {
			return kw.canonical, name
		}
		break
	}

	if len(tokens) > 1 {
		if canonical, ok := r.ref.keywordSet[tokens[len(tokens)-1]]; ok {
			return canonical, strings.Join(tokens[:len(tokens)-1], " ")
		}
	}

	return "", joined
}

// matchMarker возвращает количество токенов маркера населенного пункта в начале адреса
func (r *Resolver) matchMarker(tokens []string) int {
	for _, marker := range r.ref.markers {
		if len(marker) > len(tokens) {
			continue
		}
		matched := true
		for i, part := range marker {
			if tokens[i] != part {
				matched = false
				break
			}
		}
		if matched {
			return len(marker)
		}
	}
	return 0
}

func (r *Resolver) isSettlementBoundary(token string) bool {
	if token == commaToken || houseTokens[token] {
		return true
	}
	if _, ok := r.ref.keywordSet[token]; ok {
		return true
	}
	_, isHouse := houseNumberToken(token)
	return isHouse
}

// stripQualifiers удаляет область, район и квартиру/офис
func stripQualifiers(text string) string {
	for _, re := range []*regexp.Regexp{regionBeforeRe, regionAfterRe, districtRe, districtAfter} {
		text = re.ReplaceAllString(text, "${1} ${2}")
	}
	return unitRe.ReplaceAllString(text, "${1}")
}

// houseNumberToken проверяет, похож ли токен на номер дома ("12", "12а", "5/1", "14-б")
func houseNumberToken(token string) (string, bool) {
	cleaned := strings.TrimRight(strings.TrimLeft(token, "№#"), ".,;:")
	if cleaned == "" || !houseRe.MatchString(cleaned) {
		return "", false
	}
	return cleaned, true
}

func skipCommas(tokens []string) []string {
	for len(tokens) > 0 && tokens[0] == commaToken {
		tokens = tokens[1:]
	}
	return tokens
}

func withoutCommas(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token != commaToken {
			out = append(out, token)
		}
	}
	return out
}

func wordCount(text string) int {
	return len(strings.Fields(algorithms.Process(text)))
}

// consumeWords возвращает количество токенов, покрывающих первые n слов
func consumeWords(tokens []string, n int) int {
	words := 0
	i := 0
	for i < len(tokens) && words < n {
		if tokens[i] != commaToken {
			words += wordCount(tokens[i])
		}
		i++
	}
	return i
}

// hasWordPrefix проверяет, что prefix совпадает с началом text по границе слова
func hasWordPrefix(text, prefix string) bool {
	if prefix == "" || !strings.HasPrefix(text, prefix) {
		return false
	}
	return len(text) == len(prefix) || text[len(prefix)] == ' '
}
