package address

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"salesrecon/normalization"
)

// Reference справочники для эвристического разбора адресов
type Reference struct {
	// Settlements канонические названия населенных пунктов
	Settlements []string `json:"settlements"`
	// Streets канонические названия улиц без типа
	Streets []string `json:"streets"`
	// StreetTypes ключевое слово типа улицы -> каноническое сокращение
	StreetTypes map[string]string `json:"street_types"`
	// SettlementMarkers маркеры перед названием населенного пункта ("м.", "смт", "село")
	SettlementMarkers []string `json:"settlement_markers"`
}

// DefaultReference встроенный справочник по Киевской области и крупным городам
func DefaultReference() *Reference {
	return &Reference{
		Settlements: []string{
			"Київ", "Бориспіль", "Бровари", "Біла Церква", "Ірпінь", "Буча",
			"Вишневе", "Васильків", "Обухів", "Фастів", "Боярка", "Вишгород",
			"Переяслав", "Славутич", "Яготин", "Гостомель", "Ворзель", "Українка",
			"Житомир", "Чернігів", "Черкаси", "Львів", "Одеса", "Харків",
			"Дніпро", "Запоріжжя", "Вінниця", "Полтава", "Суми", "Рівне",
			"Луцьк", "Тернопіль", "Хмельницький", "Івано-Франківськ", "Ужгород",
			"Чернівці", "Кропивницький", "Миколаїв", "Херсон",
		},
		Streets: []string{
			"Хрещатик", "Тараса Шевченка", "Київський шлях", "Незалежності",
			"Перемоги", "Соборна", "Михайла Грушевського", "Лесі Українки",
			"Степана Бандери", "Героїв Майдану", "Січових Стрільців", "Володимирська",
			"Велика Васильківська", "Антоновича", "Богдана Хмельницького",
			"Івана Франка", "Миру", "Центральна", "Садова", "Шкільна", "Лугова",
			"Молодіжна", "Набережна", "Польова", "Зелена", "Київська", "Привокзальна",
			"Героїв Небесної Сотні", "Ярослава Мудрого", "Валерія Лобановського",
		},
		StreetTypes: map[string]string{
			"вулиця": "вул.", "вул.": "вул.", "вул": "вул.",
			"улица": "вул.", "ул.": "вул.", "ул": "вул.",
			"проспект": "просп.", "просп.": "просп.", "просп": "просп.",
			"пр-т": "просп.", "пр.": "просп.",
			"площа": "пл.", "пл.": "пл.", "пл": "пл.",
			"бульвар": "бульв.", "бульв.": "бульв.", "бул.": "бульв.", "б-р": "бульв.",
			"провулок": "пров.", "пров.": "пров.", "пров": "пров.", "пр-к": "пров.",
			"шосе":      "шосе",
			"набережна": "наб.", "наб.": "наб.",
			"узвіз":  "узвіз",
			"майдан": "майдан",
			"street": "вул.", "str.": "вул.", "st.": "вул.", "st": "вул.",
			"avenue": "просп.", "ave.": "просп.", "ave": "просп.",
			"square": "пл.", "sq.": "пл.",
			"boulevard": "бульв.", "blvd": "бульв.", "blvd.": "бульв.",
			"lane": "пров.",
		},
		SettlementMarkers: []string{
			"селище міського типу", "місто", "селище", "село", "смт.", "смт",
			"с-ще", "сел.", "м.", "с.", "г.", "city of", "city", "town", "village",
		},
	}
}

// LoadReference читает справочник из JSON файла.
// Пустые разделы файла заменяются разделами встроенного справочника.
func LoadReference(path string) (*Reference, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read address reference %s: %w", path, err)
	}

	var ref Reference
	if err := json.Unmarshal(data, &ref); err != nil {
		return nil, fmt.Errorf("failed to parse address reference %s: %w", path, err)
	}

	defaults := DefaultReference()
	if len(ref.Settlements) == 0 {
		ref.Settlements = defaults.Settlements
	}
	if len(ref.Streets) == 0 {
		ref.Streets = defaults.Streets
	}
	if len(ref.StreetTypes) == 0 {
		ref.StreetTypes = defaults.StreetTypes
	}
	if len(ref.SettlementMarkers) == 0 {
		ref.SettlementMarkers = defaults.SettlementMarkers
	}

	return &ref, nil
}

// streetKeyword ключевое слово типа улицы с каноническим сокращением
type streetKeyword struct {
	keyword   string
	canonical string
}

// compiledReference справочник, подготовленный к разбору
type compiledReference struct {
	settlements []string
	streets     []string
	// keywords отсортированы по убыванию длины
	keywords   []streetKeyword
	keywordSet map[string]string
	// markers маркеры населенного пункта, разбитые на слова, длинные первыми
	markers [][]string
}

func compileReference(ref *Reference) *compiledReference {
	compiled := &compiledReference{
		settlements: append([]string(nil), ref.Settlements...),
		streets:     append([]string(nil), ref.Streets...),
		keywordSet:  make(map[string]string, len(ref.StreetTypes)),
	}

	for keyword, canonical := range ref.StreetTypes {
		key := normalization.NormalizeKey(keyword)
		if key == "" {
			continue
		}
		compiled.keywords = append(compiled.keywords, streetKeyword{keyword: key, canonical: canonical})
		compiled.keywordSet[key] = canonical
	}
	sort.Slice(compiled.keywords, func(i, j int) bool {
		li := utf8.RuneCountInString(compiled.keywords[i].keyword)
		lj := utf8.RuneCountInString(compiled.keywords[j].keyword)
		if li != lj {
			return li > lj
		}
		return compiled.keywords[i].keyword < compiled.keywords[j].keyword
	})

	for _, marker := range ref.SettlementMarkers {
		tokens := strings.Fields(normalization.NormalizeKey(marker))
		if len(tokens) > 0 {
			compiled.markers = append(compiled.markers, tokens)
		}
	}
	sort.SliceStable(compiled.markers, func(i, j int) bool {
		return len(compiled.markers[i]) > len(compiled.markers[j])
	})

	return compiled
}
