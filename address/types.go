package address

import "errors"

// ErrNilRegistry возвращается, если резолверу не передали реестр эталонных адресов
var ErrNilRegistry = errors.New("address registry is nil")

// ErrNilReference возвращается, если не переданы справочники населенных пунктов и улиц
var ErrNilReference = errors.New("address reference is nil")

// CanonicalAddress запись "золотого" реестра адресов
// Значения могут быть nil, если запись в реестре заполнена не полностью
type CanonicalAddress struct {
	LookupKey   string  `json:"lookup_key"`
	City        *string `json:"city"`
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
	Territory   *string `json:"territory"`
}

// ResolvedAddress результат разбора одного адреса доставки
type ResolvedAddress struct {
	City        *string `json:"city"`
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
	Territory   *string `json:"territory"`
}

// IsEmpty возвращает true, если не удалось определить ни одного компонента
func (a ResolvedAddress) IsEmpty() bool {
	return a.City == nil && a.Street == nil && a.HouseNumber == nil && a.Territory == nil
}

// FullAddress строит ключ группировки из компонентов адреса
func (a ResolvedAddress) FullAddress() string {
	return BuildFullAddress(a.City, a.Street, a.HouseNumber)
}

// Source источник, из которого получен адрес
type Source string

const (
	// SourceRegistry точное совпадение с реестром
	SourceRegistry Source = "registry"
	// SourceHeuristic эвристический разбор строки
	SourceHeuristic Source = "heuristic"
	// SourceUnresolved ни один компонент не определен
	SourceUnresolved Source = "unresolved"
)

// Resolution подробный результат разрешения адреса
type Resolution struct {
	Input       string          `json:"input"`
	LookupKey   string          `json:"lookup_key"`
	Address     ResolvedAddress `json:"address"`
	Source      Source          `json:"source"`
	CityScore   float64         `json:"city_score,omitempty"`
	StreetScore float64         `json:"street_score,omitempty"`
}

// stringPtr возвращает nil для пустой строки
func stringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
