package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/reconciliation"
	apperrors "salesrecon/server/errors"
	"salesrecon/server/middleware"
	"salesrecon/server/monitoring"
)

// DefaultMaxUploadSize предельный размер загружаемого отчета
const DefaultMaxUploadSize int64 = 32 << 20

// SalesStore хранилище, с которым работают обработчики
type SalesStore interface {
	InsertSales(ctx context.Context, batch database.SalesBatch) (int, error)
	FetchAllSales(ctx context.Context, filter database.SalesFilter) (reconciliation.Table, error)
	SaveReconcileRun(ctx context.Context, run database.ReconcileRun, result reconciliation.Result) (string, error)
	GetReconcileRun(ctx context.Context, id string) (*database.ReconcileRun, error)
	ListActualSales(ctx context.Context, runID string) ([]reconciliation.ActualSalesRecord, error)
	LoadClientDirectory(ctx context.Context) (map[string]string, error)
	LoadProductLines(ctx context.Context) (map[string]string, error)
	ListRegions(ctx context.Context) ([]database.Region, error)
	ListTerritories(ctx context.Context, region string) ([]string, error)
}

// Dependencies зависимости обработчиков
type Dependencies struct {
	Resolver         *address.Resolver
	Registry         *address.CachedRegistry
	Store            SalesStore
	Metrics          *monitoring.Metrics
	ReconcileOptions []reconciliation.Option
	// DuplicatePolicy политика дублей по умолчанию, пустая означает sum
	DuplicatePolicy reconciliation.DuplicatePolicy
	MaxUploadSize   int64
}

// Handler HTTP-обработчики сервиса сверки
type Handler struct {
	resolver         *address.Resolver
	registry         *address.CachedRegistry
	store            SalesStore
	metrics          *monitoring.Metrics
	reconcileOptions []reconciliation.Option
	defaultPolicy    reconciliation.DuplicatePolicy
	maxUploadSize    int64
}

// New создает обработчики. Resolver, Registry и Store обязательны.
func New(deps Dependencies) (*Handler, error) {
	if deps.Resolver == nil {
		return nil, fmt.Errorf("address resolver is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("address registry cache is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("sales store is required")
	}
	defaultPolicy := reconciliation.DuplicateSum
	if deps.DuplicatePolicy != "" {
		policy, err := reconciliation.ParseDuplicatePolicy(string(deps.DuplicatePolicy))
		if err != nil {
			return nil, err
		}
		defaultPolicy = policy
	}
	maxUploadSize := deps.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}

	return &Handler{
		resolver:         deps.Resolver,
		registry:         deps.Registry,
		store:            deps.Store,
		metrics:          deps.Metrics,
		reconcileOptions: deps.ReconcileOptions,
		defaultPolicy:    defaultPolicy,
		maxUploadSize:    maxUploadSize,
	}, nil
}

// Register регистрирует маршруты /api
func (h *Handler) Register(router gin.IRouter) {
	api := router.Group("/api")

	addressGroup := api.Group("/address")
	addressGroup.POST("/resolve", h.ResolveAddress)
	addressGroup.POST("/resolve/batch", h.ResolveAddressBatch)
	addressGroup.POST("/full", h.BuildFullAddress)

	api.POST("/reconcile", h.Reconcile)

	sales := api.Group("/sales")
	sales.GET("/actual", h.ActualSales)
	sales.GET("/kpi", h.SalesKPI)

	api.GET("/runs/:id", h.GetRun)

	api.GET("/regions", h.ListRegions)
	api.GET("/regions/:region/territories", h.ListTerritories)
	api.POST("/registry/invalidate", h.InvalidateRegistry)

	api.POST("/upload", h.Upload)
}

// bindJSON разбирает тело запроса или отвечает 400
func bindJSON(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("Некорректное тело запроса", err))
		return false
	}
	return true
}

// parseFilter читает фильтр продаж из query: region, territory, line, month.
// month допускает повторение и список через запятую.
func parseFilter(c *gin.Context) (database.SalesFilter, error) {
	filter := database.SalesFilter{
		Region:      c.Query("region"),
		Territory:   c.Query("territory"),
		ProductLine: c.Query("line"),
	}

	for _, raw := range c.QueryArray("month") {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" || part == database.AllValues {
				continue
			}
			month, err := strconv.Atoi(part)
			if err != nil || month < 1 || month > 12 {
				return database.SalesFilter{}, fmt.Errorf("invalid month %q", part)
			}
			filter.Months = append(filter.Months, month)
		}
	}
	return filter, nil
}

// reconcileOptionsFor добавляет к настройкам по умолчанию политику из запроса.
// Без политики в запросе действует политика из конфигурации.
func (h *Handler) reconcileOptionsFor(policyValue string) ([]reconciliation.Option, reconciliation.DuplicatePolicy, error) {
	policy := h.defaultPolicy
	if policyValue != "" {
		parsed, err := reconciliation.ParseDuplicatePolicy(policyValue)
		if err != nil {
			return nil, "", err
		}
		policy = parsed
	}
	opts := append([]reconciliation.Option(nil), h.reconcileOptions...)
	return append(opts, reconciliation.WithDuplicatePolicy(policy)), policy, nil
}

// Health возвращает обработчик /health
func Health(checker *monitoring.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := checker.Check(c.Request.Context())

		statusCode := http.StatusOK
		if result.Status == monitoring.HealthStatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, result)
	}
}
