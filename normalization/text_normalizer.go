package normalization

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// AllValues значение фильтра, означающее отсутствие ограничения
const AllValues = "Всі"

// IsAll сообщает, что значение фильтра не ограничивает выборку: пустое или AllValues
func IsAll(value interface{}) bool {
	text := Normalize(value)
	return text == "" || text == AllValues
}

// Normalize приводит значение произвольного типа к очищенной строке для сравнения и группировки.
// nil превращается в пустую строку, остальные значения сначала приводятся к тексту.
// Регистр сохраняется: колонки группировки остаются в отображаемом виде.
func Normalize(value interface{}) string {
	text := toText(value)
	if text == "" {
		return ""
	}

	text = strings.ToValidUTF8(text, "")

	// NFKC сворачивает совместимые формы (полноширинные цифры, лигатуры и т.п.)
	text = norm.NFKC.String(text)

	return collapseWhitespace(text)
}

// NormalizeKey нормализует значение и приводит его к нижнему регистру.
// Используется как ключ поиска в реестре адресов.
func NormalizeKey(value interface{}) string {
	return strings.ToLower(Normalize(value))
}

// NormalizeAll нормализует набор строк на месте и возвращает его же
func NormalizeAll(values []string) []string {
	for i, v := range values {
		values[i] = Normalize(v)
	}
	return values
}

// toText приводит значение к текстовому представлению без экспоненциальной записи чисел
func toText(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case []byte:
		return string(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case decimal.Decimal:
		return v.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// collapseWhitespace заменяет любые последовательности пробельных символов
// (включая неразрывные пробелы) одним обычным пробелом и обрезает края
func collapseWhitespace(text string) string {
	var builder strings.Builder
	builder.Grow(len(text))

	pendingSpace := false
	for _, r := range text {
		if isSpace(r) {
			pendingSpace = builder.Len() > 0
			continue
		}
		if pendingSpace {
			builder.WriteByte(' ')
			pendingSpace = false
		}
		builder.WriteRune(r)
	}

	return builder.String()
}

// isSpace дополнительно считает пробелами неразрывные и zero-width символы
func isSpace(r rune) bool {
	switch r {
	case '\u00a0', '\u202f', '\u200b', '\ufeff':
		return true
	}
	return unicode.IsSpace(r)
}
