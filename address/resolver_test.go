package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultReference())
	require.NoError(t, err)
	return r
}

func TestNewResolver_NilReference(t *testing.T) {
	_, err := NewResolver(nil)
	assert.ErrorIs(t, err, ErrNilReference)
}

func TestResolve_NilRegistry(t *testing.T) {
	r := newTestResolver(t)
	_, err := r.Resolve("м. Київ, вул. Хрещатик, 22", nil)
	assert.ErrorIs(t, err, ErrNilRegistry)
}

func TestResolve_RegistryTakesPrecedence(t *testing.T) {
	r := newTestResolver(t)
	registry := NewRegistry([]CanonicalAddress{{
		LookupKey:   "М. Київ,  вул. Хрещатик, 22",
		City:        ptr("м. Київ"),
		Street:      ptr("вул. Хрещатик"),
		HouseNumber: ptr("22"),
		Territory:   ptr("Центр"),
	}})

	resolution, err := r.ResolveDetailed("  м. київ,\u00a0вул. хрещатик, 22 ", registry)
	require.NoError(t, err)

	assert.Equal(t, SourceRegistry, resolution.Source)
	assert.Equal(t, "м. Київ", *resolution.Address.City)
	assert.Equal(t, "вул. Хрещатик", *resolution.Address.Street)
	assert.Equal(t, "22", *resolution.Address.HouseNumber)
	require.NotNil(t, resolution.Address.Territory)
	assert.Equal(t, "Центр", *resolution.Address.Territory)
}

func TestResolve_RegistryEntryWithNulls(t *testing.T) {
	r := newTestResolver(t)
	registry := NewRegistry([]CanonicalAddress{{LookupKey: "склад 3", City: ptr("Бровари")}})

	resolution, err := r.ResolveDetailed("Склад 3", registry)
	require.NoError(t, err)
	assert.Equal(t, SourceRegistry, resolution.Source)
	assert.Equal(t, "Бровари", *resolution.Address.City)
	assert.Nil(t, resolution.Address.Street)
	assert.Nil(t, resolution.Address.HouseNumber)
}

func TestResolve_Heuristic(t *testing.T) {
	r := newTestResolver(t)
	empty := NewRegistry(nil)

	tests := []struct {
		name   string
		input  string
		city   *string
		street *string
		house  *string
	}{
		{
			name:   "marker city street house",
			input:  "м. Київ, вул. Хрещатик, 22",
			city:   ptr("Київ"),
			street: ptr("вул. Хрещатик"),
			house:  ptr("22"),
		},
		{
			name:   "invalid utf-8 bytes dropped",
			input:  "м. Київ, вул. Хре\xffщатик, 22",
			city:   ptr("Київ"),
			street: ptr("вул. Хрещатик"),
			house:  ptr("22"),
		},
		{
			name:   "region and apartment stripped",
			input:  "Київська обл., м. Бровари, вул. Київська, 5, кв. 12",
			city:   ptr("Бровари"),
			street: ptr("вул. Київська"),
			house:  ptr("5"),
		},
		{
			name:   "glued abbreviations",
			input:  "м.Бориспіль вул.Київський шлях 2",
			city:   ptr("Бориспіль"),
			street: ptr("вул. Київський шлях"),
			house:  ptr("2"),
		},
		{
			name:   "typo in settlement",
			input:  "смт Гостомль, вул. Миру 7",
			city:   ptr("Гостомель"),
			street: ptr("вул. Миру"),
			house:  ptr("7"),
		},
		{
			name:   "settlement without marker",
			input:  "Біла Церква, бульв. Лесі Українки 15",
			city:   ptr("Біла Церква"),
			street: ptr("бульв. Лесі Українки"),
			house:  ptr("15"),
		},
		{
			name:   "initials and building qualifier",
			input:  "м. Київ, вул. Т.Г. Шевченка, буд. 10",
			city:   ptr("Київ"),
			street: ptr("вул. Тараса Шевченка"),
			house:  ptr("10"),
		},
		{
			name:   "unit prefix does not eat street name",
			input:  "вул. Квітнева, 3",
			street: ptr("вул. Квітнева"),
			house:  ptr("3"),
		},
		{
			name:   "unknown settlement after marker",
			input:  "с. Невідоме, вул. Садова 3",
			street: ptr("вул. Садова"),
			house:  ptr("3"),
		},
		{
			name:   "street type as suffix",
			input:  "Перемоги просп. 3",
			street: ptr("просп. Перемоги"),
			house:  ptr("3"),
		},
		{
			name:   "street without type",
			input:  "Хрещатик 5",
			street: ptr("Хрещатик"),
			house:  ptr("5"),
		},
		{
			name:   "unknown street is title cased",
			input:  "м. Київ, вул. ромашкова, 1",
			city:   ptr("Київ"),
			street: ptr("вул. Ромашкова"),
			house:  ptr("1"),
		},
		{
			name:   "fractional house number",
			input:  "вул. Садова, 5/1",
			street: ptr("вул. Садова"),
			house:  ptr("5/1"),
		},
		{
			name:  "city only",
			input: "Київ",
			city:  ptr("Київ"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolution, err := r.ResolveDetailed(tt.input, empty)
			require.NoError(t, err)

			assert.Equal(t, SourceHeuristic, resolution.Source)
			assert.Equal(t, tt.city, resolution.Address.City, "city")
			assert.Equal(t, tt.street, resolution.Address.Street, "street")
			assert.Equal(t, tt.house, resolution.Address.HouseNumber, "house number")
			assert.Nil(t, resolution.Address.Territory, "territory is never guessed")
		})
	}
}

func TestResolve_Unresolved(t *testing.T) {
	r := newTestResolver(t)
	registry := NewRegistry(nil)

	for _, input := range []interface{}{nil, 42, 3.14, "", "   ", (*string)(nil)} {
		resolution, err := r.ResolveDetailed(input, registry)
		require.NoError(t, err)
		assert.Equal(t, SourceUnresolved, resolution.Source, "input %v", input)
		assert.True(t, resolution.Address.IsEmpty(), "input %v", input)
	}
}

func TestResolve_StreetThresholdOption(t *testing.T) {
	r, err := NewResolver(DefaultReference(), WithThresholds(Thresholds{Street: 100}))
	require.NoError(t, err)
	assert.Equal(t, DefaultSettlementThreshold, r.Thresholds().Settlement)

	addr, err := r.Resolve("вул. Хрещатк 1", NewRegistry(nil))
	require.NoError(t, err)
	require.NotNil(t, addr.Street)
	assert.Equal(t, "вул. Хрещатк", *addr.Street)
}

func TestResolvedAddress_FullAddress(t *testing.T) {
	addr := ResolvedAddress{City: ptr("Київ"), HouseNumber: ptr("5")}
	assert.Equal(t, "Київ, 5", addr.FullAddress())
}
