package monitoring

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// HealthStatus статус здоровья компонента
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// ComponentHealth здоровье отдельного компонента
type ComponentHealth struct {
	Name      string        `json:"name"`
	Status    HealthStatus  `json:"status"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Latency   time.Duration `json:"latency,omitempty"`
}

// HealthCheckResult результат проверки здоровья сервиса
type HealthCheckResult struct {
	Status     HealthStatus               `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Version    string                     `json:"version"`
	Components map[string]ComponentHealth `json:"components"`
	Goroutines int                        `json:"goroutines"`
}

// HealthCheckFunc функция проверки здоровья компонента
type HealthCheckFunc func(ctx context.Context) ComponentHealth

// Pinger компонент, доступность которого проверяется через Ping
type Pinger interface {
	Ping() error
}

// HealthChecker проверяет здоровье сервиса
type HealthChecker struct {
	mu         sync.RWMutex
	components map[string]HealthCheckFunc
	startTime  time.Time
	version    string
}

// NewHealthChecker создает новый HealthChecker
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		components: make(map[string]HealthCheckFunc),
		startTime:  time.Now(),
		version:    version,
	}
}

// RegisterComponent регистрирует компонент для проверки здоровья
func (hc *HealthChecker) RegisterComponent(name string, checkFunc HealthCheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.components[name] = checkFunc
}

// RegisterPinger регистрирует компонент с методом Ping.
// critical=false понижает отказ компонента до degraded.
func (hc *HealthChecker) RegisterPinger(name string, pinger Pinger, critical bool) {
	hc.RegisterComponent(name, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		err := pinger.Ping()
		health := ComponentHealth{
			Name:      name,
			Status:    HealthStatusHealthy,
			Timestamp: time.Now(),
			Latency:   time.Since(start),
		}
		if err != nil {
			health.Status = HealthStatusDegraded
			if critical {
				health.Status = HealthStatusUnhealthy
			}
			health.Message = fmt.Sprintf("%s error: %v", name, err)
		}
		return health
	})
}

// Check выполняет проверку здоровья всех компонентов
func (hc *HealthChecker) Check(ctx context.Context) HealthCheckResult {
	hc.mu.RLock()
	defer hc.mu.RUnlock()

	components := make(map[string]ComponentHealth, len(hc.components))
	overallStatus := HealthStatusHealthy

	for name, checkFunc := range hc.components {
		componentHealth := checkFunc(ctx)
		components[name] = componentHealth
		if componentHealth.Status == HealthStatusUnhealthy {
			overallStatus = HealthStatusUnhealthy
		} else if componentHealth.Status == HealthStatusDegraded && overallStatus == HealthStatusHealthy {
			overallStatus = HealthStatusDegraded
		}
	}

	return HealthCheckResult{
		Status:     overallStatus,
		Timestamp:  time.Now(),
		Uptime:     time.Since(hc.startTime).Round(time.Second).String(),
		Version:    hc.version,
		Components: components,
		Goroutines: runtime.NumGoroutine(),
	}
}

// LogHealthStatus логирует статус здоровья
func (hc *HealthChecker) LogHealthStatus(ctx context.Context) {
	result := hc.Check(ctx)

	slog.Info("Health check",
		"status", result.Status,
		"uptime", result.Uptime,
		"components", len(result.Components),
		"goroutines", result.Goroutines,
	)

	names := make([]string, 0, len(result.Components))
	for name := range result.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	// Логируем проблемные компоненты
	for _, name := range names {
		component := result.Components[name]
		if component.Status != HealthStatusHealthy {
			slog.Warn("Component health issue",
				"component", name,
				"status", component.Status,
				"message", component.Message,
			)
		}
	}
}
