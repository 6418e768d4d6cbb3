package reconciliation

import (
	"fmt"
	"strings"
)

// DuplicatePolicy способ объединения повторных строк одной декады
type DuplicatePolicy string

const (
	// DuplicateSum повторные строки считаются частями накопительного итога и суммируются
	DuplicateSum DuplicatePolicy = "sum"
	// DuplicateMax повторные строки считаются снимками одного итога, берется максимум
	DuplicateMax DuplicatePolicy = "max"
)

// ParseDuplicatePolicy разбирает значение из конфигурации или запроса. Пустая строка означает sum.
func ParseDuplicatePolicy(value string) (DuplicatePolicy, error) {
	switch DuplicatePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", DuplicateSum:
		return DuplicateSum, nil
	case DuplicateMax:
		return DuplicateMax, nil
	default:
		return "", fmt.Errorf("unknown duplicate policy %q (expected sum or max)", value)
	}
}

type options struct {
	policy  DuplicatePolicy
	workers int
}

// Option настройка сверки
type Option func(*options)

// WithDuplicatePolicy задает способ объединения дублей
func WithDuplicatePolicy(policy DuplicatePolicy) Option {
	return func(o *options) {
		if policy == DuplicateSum || policy == DuplicateMax {
			o.policy = policy
		}
	}
}

// WithWorkers включает параллельную обработку групп. n <= 1 означает последовательный режим.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func buildOptions(opts []Option) options {
	o := options{policy: DuplicateSum, workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
