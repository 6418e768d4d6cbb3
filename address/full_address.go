package address

import (
	"regexp"
	"strings"
)

// FullAddressSeparator разделитель компонентов полного адреса
const FullAddressSeparator = ", "

var repeatedSeparatorRe = regexp.MustCompile(`(?:,\s*){2,}`)

// BuildKey собирает ключ "<город>, <улица>, <дом>" из компонентов.
// Пустые компоненты пропускаются, повторяющиеся разделители схлопываются,
// разделители и пробелы по краям обрезаются. Для пустой тройки возвращается "".
func BuildKey(city, street, houseNumber string) string {
	key := strings.Join([]string{city, street, houseNumber}, FullAddressSeparator)
	key = repeatedSeparatorRe.ReplaceAllString(key, FullAddressSeparator)
	return strings.Trim(key, " ,")
}

// BuildFullAddress аналог BuildKey для nullable компонентов
func BuildFullAddress(city, street, houseNumber *string) string {
	return BuildKey(deref(city), deref(street), deref(houseNumber))
}
