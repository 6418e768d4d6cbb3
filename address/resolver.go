package address

import (
	"salesrecon/normalization"
	"salesrecon/normalization/algorithms"
)

// Пороги нечеткого сопоставления по умолчанию
const (
	DefaultSettlementThreshold       = 85.0
	DefaultSettlementStrictThreshold = 88.0
	DefaultStreetThreshold           = 80.0
)

// Thresholds пороги сопоставления со справочниками (0..100)
type Thresholds struct {
	// Settlement порог для названия после маркера ("м.", "смт")
	Settlement float64
	// SettlementStrict порог для названия в начале строки без маркера
	SettlementStrict float64
	// Street порог для названия улицы
	Street float64
}

// DefaultThresholds возвращает пороги по умолчанию
func DefaultThresholds() Thresholds {
	return Thresholds{
		Settlement:       DefaultSettlementThreshold,
		SettlementStrict: DefaultSettlementStrictThreshold,
		Street:           DefaultStreetThreshold,
	}
}

// Option настройка резолвера
type Option func(*Resolver)

// WithScorer задает алгоритм нечеткого сравнения
func WithScorer(scorer algorithms.Scorer) Option {
	return func(r *Resolver) {
		if scorer != nil {
			r.scorer = scorer
		}
	}
}

// WithThresholds задает пороги сопоставления, нулевые значения остаются по умолчанию
func WithThresholds(t Thresholds) Option {
	return func(r *Resolver) {
		if t.Settlement > 0 {
			r.thresholds.Settlement = t.Settlement
		}
		if t.SettlementStrict > 0 {
			r.thresholds.SettlementStrict = t.SettlementStrict
		}
		if t.Street > 0 {
			r.thresholds.Street = t.Street
		}
	}
}

// Resolver разрешает сырые адреса доставки в канонические компоненты.
// Сначала ищется точное совпадение в реестре, затем применяется эвристический разбор.
// Resolver не изменяет свое состояние после создания и безопасен для конкурентного использования.
type Resolver struct {
	ref        *compiledReference
	scorer     algorithms.Scorer
	thresholds Thresholds
}

// NewResolver создает резолвер по справочнику
func NewResolver(reference *Reference, opts ...Option) (*Resolver, error) {
	if reference == nil {
		return nil, ErrNilReference
	}

	r := &Resolver{
		ref:        compileReference(reference),
		scorer:     algorithms.DefaultScorer,
		thresholds: DefaultThresholds(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Thresholds возвращает действующие пороги
func (r *Resolver) Thresholds() Thresholds {
	return r.thresholds
}

// Resolve возвращает компоненты адреса. Для нестроковых и пустых значений все компоненты nil.
func (r *Resolver) Resolve(raw interface{}, registry *Registry) (ResolvedAddress, error) {
	resolution, err := r.ResolveDetailed(raw, registry)
	if err != nil {
		return ResolvedAddress{}, err
	}
	return resolution.Address, nil
}

// ResolveDetailed аналог Resolve, дополнительно сообщает источник результата и оценки совпадения
func (r *Resolver) ResolveDetailed(raw interface{}, registry *Registry) (Resolution, error) {
	if registry == nil {
		return Resolution{}, ErrNilRegistry
	}

	text, ok := rawText(raw)
	resolution := Resolution{Input: text, Source: SourceUnresolved}
	if !ok {
		return resolution, nil
	}

	resolution.LookupKey = normalization.NormalizeKey(text)
	if resolution.LookupKey == "" {
		return resolution, nil
	}

	if entry, found := registry.Lookup(text); found {
		resolution.Address = ResolvedAddress{
			City:        entry.City,
			Street:      entry.Street,
			HouseNumber: entry.HouseNumber,
			Territory:   entry.Territory,
		}
		resolution.Source = SourceRegistry
		return resolution, nil
	}

	parsed := r.parse(text)
	resolution.Address = ResolvedAddress{
		City:        stringPtr(parsed.city),
		Street:      stringPtr(parsed.street),
		HouseNumber: stringPtr(parsed.houseNumber),
	}
	resolution.CityScore = parsed.cityScore
	resolution.StreetScore = parsed.streetScore
	if !resolution.Address.IsEmpty() {
		resolution.Source = SourceHeuristic
	}
	return resolution, nil
}

// rawText принимает только строковые значения
func rawText(raw interface{}) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	default:
		return "", false
	}
}
