package address

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry_NormalizesKeysAndSkipsEmpty(t *testing.T) {
	registry := NewRegistry([]CanonicalAddress{
		{LookupKey: "  М. Київ,\u00a0вул. Хрещатик, 1 ", City: ptr("Київ")},
		{LookupKey: "   "},
		{LookupKey: "м. київ, вул. хрещатик, 1", City: ptr("Київ (оновлено)")},
	})

	assert.Equal(t, 1, registry.Len())
	entry, ok := registry.Lookup("м. Київ, вул. Хрещатик, 1")
	require.True(t, ok)
	assert.Equal(t, "Київ (оновлено)", *entry.City, "last record wins")

	var nilRegistry *Registry
	_, ok = nilRegistry.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, nilRegistry.Len())
}

type countingLoader struct {
	calls   int
	regions []string
	err     error
}

func (l *countingLoader) LoadRegistry(ctx context.Context, region string) ([]CanonicalAddress, error) {
	l.calls++
	l.regions = append(l.regions, region)
	if l.err != nil {
		return nil, l.err
	}
	return []CanonicalAddress{{LookupKey: region + " адреса", City: ptr(region)}}, nil
}

func TestCachedRegistry_TTL(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCachedRegistry(loader, time.Minute)

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	ctx := context.Background()
	first, err := cache.Get(ctx, "Київ")
	require.NoError(t, err)
	second, err := cache.Get(ctx, "Київ")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loader.calls)

	now = now.Add(2 * time.Minute)
	_, err = cache.Get(ctx, "Київ")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls, "expired entry is reloaded")

	stats := cache.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(2), stats.Misses)
	assert.Equal(t, int64(2), stats.Loads)
	assert.Equal(t, 1, stats.Size)
}

func TestCachedRegistry_RegionsAreIndependent(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCachedRegistry(loader, 0)
	assert.Equal(t, DefaultRegistryTTL, cache.ttl)

	ctx := context.Background()
	kyiv, err := cache.Get(ctx, "Київ")
	require.NoError(t, err)
	all, err := cache.Get(ctx, AllRegions)
	require.NoError(t, err)

	_, ok := kyiv.Lookup("Київ адреса")
	assert.True(t, ok)
	_, ok = all.Lookup("Київ адреса")
	assert.False(t, ok)
	assert.Equal(t, []string{"Київ", AllRegions}, loader.regions)
}

func TestCachedRegistry_Invalidate(t *testing.T) {
	loader := &countingLoader{}
	cache := NewCachedRegistry(loader, time.Hour)
	ctx := context.Background()

	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "b")
	cache.Invalidate("a")
	_, _ = cache.Get(ctx, "a")
	_, _ = cache.Get(ctx, "b")
	assert.Equal(t, 3, loader.calls)

	cache.Invalidate()
	assert.Equal(t, 0, cache.GetStats().Size)
	_, _ = cache.Get(ctx, "b")
	assert.Equal(t, 4, loader.calls)
}

func TestCachedRegistry_LoaderError(t *testing.T) {
	boom := errors.New("database is locked")
	cache := NewCachedRegistry(&countingLoader{err: boom}, time.Hour)

	registry, err := cache.Get(context.Background(), "Київ")
	assert.Nil(t, registry)
	assert.ErrorIs(t, err, boom)
}

func TestRegistryLoaderFunc(t *testing.T) {
	loader := RegistryLoaderFunc(func(ctx context.Context, region string) ([]CanonicalAddress, error) {
		return []CanonicalAddress{{LookupKey: "x"}}, nil
	})
	records, err := loader.LoadRegistry(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.json")
	content := `{"settlements": ["Ірпінь"], "streets": ["Університетська"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ref, err := LoadReference(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ірпінь"}, ref.Settlements)
	assert.Equal(t, []string{"Університетська"}, ref.Streets)
	assert.Equal(t, DefaultReference().StreetTypes, ref.StreetTypes, "missing sections fall back to defaults")

	_, err = LoadReference(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	broken := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0o644))
	_, err = LoadReference(broken)
	assert.Error(t, err)
}

func TestLoadReference_UsedByResolver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.json")
	content := `{"settlements": ["Ірпінь"], "streets": ["Університетська"]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ref, err := LoadReference(path)
	require.NoError(t, err)
	r, err := NewResolver(ref)
	require.NoError(t, err)

	addr, err := r.Resolve("м. Ірпінь, вул. Університетська, 2", NewRegistry(nil))
	require.NoError(t, err)
	assert.Equal(t, "Ірпінь", *addr.City)
	assert.Equal(t, "вул. Університетська", *addr.Street)
	assert.Equal(t, "2", *addr.HouseNumber)
}
