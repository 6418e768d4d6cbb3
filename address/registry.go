package address

import (
	"context"
	"fmt"
	"sync"
	"time"

	"salesrecon/normalization"
)

// DefaultRegistryTTL время жизни загруженного реестра в кэше
const DefaultRegistryTTL = time.Hour

// AllRegions ключ кэша для реестра без фильтра по региону
const AllRegions = ""

// Registry "золотой" реестр адресов, индексированный по нормализованному ключу
type Registry struct {
	entries map[string]CanonicalAddress
}

// NewRegistry строит реестр из записей источника.
// Записи с пустым ключом пропускаются, при повторе ключа остается последняя запись.
func NewRegistry(records []CanonicalAddress) *Registry {
	entries := make(map[string]CanonicalAddress, len(records))
	for _, record := range records {
		key := normalization.NormalizeKey(record.LookupKey)
		if key == "" {
			continue
		}
		record.LookupKey = key
		entries[key] = record
	}
	return &Registry{entries: entries}
}

// Lookup ищет запись по сырому адресу
func (r *Registry) Lookup(raw string) (CanonicalAddress, bool) {
	if r == nil {
		return CanonicalAddress{}, false
	}
	entry, ok := r.entries[normalization.NormalizeKey(raw)]
	return entry, ok
}

// Len количество записей в реестре
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// RegistryLoader источник записей реестра (обычно таблица golden_address)
type RegistryLoader interface {
	LoadRegistry(ctx context.Context, region string) ([]CanonicalAddress, error)
}

// RegistryLoaderFunc адаптирует функцию к RegistryLoader
type RegistryLoaderFunc func(ctx context.Context, region string) ([]CanonicalAddress, error)

// LoadRegistry реализует RegistryLoader
func (f RegistryLoaderFunc) LoadRegistry(ctx context.Context, region string) ([]CanonicalAddress, error) {
	return f(ctx, region)
}

// CacheStats статистика кэша реестров
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Loads  int64 `json:"loads"`
	Size   int   `json:"size"`
}

type registryEntry struct {
	registry  *Registry
	timestamp time.Time
}

// CachedRegistry кэш реестров по регионам с ограниченным временем жизни
type CachedRegistry struct {
	loader RegistryLoader
	ttl    time.Duration
	now    func() time.Time

	data  map[string]*registryEntry
	mutex sync.Mutex
	stats CacheStats
}

// NewCachedRegistry создает кэш поверх загрузчика. ttl <= 0 заменяется на DefaultRegistryTTL.
func NewCachedRegistry(loader RegistryLoader, ttl time.Duration) *CachedRegistry {
	if ttl <= 0 {
		ttl = DefaultRegistryTTL
	}
	return &CachedRegistry{
		loader: loader,
		ttl:    ttl,
		now:    time.Now,
		data:   make(map[string]*registryEntry),
	}
}

// Get возвращает реестр для региона, перезагружая его по истечении TTL.
// Загрузка выполняется под мьютексом, параллельные запросы не дублируют обращения к источнику.
func (c *CachedRegistry) Get(ctx context.Context, region string) (*Registry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if entry, ok := c.data[region]; ok && c.now().Sub(entry.timestamp) <= c.ttl {
		c.stats.Hits++
		return entry.registry, nil
	}
	c.stats.Misses++

	records, err := c.loader.LoadRegistry(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load address registry for region %q: %w", region, err)
	}

	registry := NewRegistry(records)
	c.data[region] = &registryEntry{registry: registry, timestamp: c.now()}
	c.stats.Loads++
	return registry, nil
}

// Invalidate сбрасывает кэш для перечисленных регионов, без аргументов сбрасывает все
func (c *CachedRegistry) Invalidate(regions ...string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(regions) == 0 {
		c.data = make(map[string]*registryEntry)
		return
	}
	for _, region := range regions {
		delete(c.data, region)
	}
}

// GetStats возвращает копию статистики
func (c *CachedRegistry) GetStats() CacheStats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	stats := c.stats
	stats.Size = len(c.data)
	return stats
}
