package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"salesrecon/database"
	"salesrecon/reconciliation"
	apperrors "salesrecon/server/errors"
	"salesrecon/server/middleware"
	"salesrecon/summary"
)

// KPI источники данных
const (
	KPISourceActual = "actual"
	KPISourceRaw    = "raw"
)

// ReconcileRequest таблица для сверки. Пустой Columns означает полный набор колонок.
type ReconcileRequest struct {
	Columns         []string                        `json:"columns"`
	Rows            []reconciliation.RawSalesRecord `json:"rows" binding:"required"`
	DuplicatePolicy string                          `json:"duplicate_policy"`
}

// ActualSalesResponse результат сверки данных хранилища
type ActualSalesResponse struct {
	reconciliation.Result
	RunID  string               `json:"run_id,omitempty"`
	Filter database.SalesFilter `json:"filter"`
}

// Reconcile POST /api/reconcile
// @Summary Сверить таблицу продаж
// @Tags reconcile
// @Accept json
// @Produce json
// @Param request body ReconcileRequest true "Таблица продаж"
// @Success 200 {object} reconciliation.Result "Результат сверки"
// @Failure 400 {object} middleware.ErrorResponse "Некорректная таблица или политика дублей"
// @Router /api/reconcile [post]
func (h *Handler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if !bindJSON(c, &req) {
		return
	}

	opts, _, err := h.reconcileOptionsFor(req.DuplicatePolicy)
	if err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("Некорректная политика дублей", err))
		return
	}

	table := reconciliation.NewTable(req.Rows)
	if len(req.Columns) > 0 {
		table.Columns = req.Columns
	}

	result, ok := h.runReconcile(c, table, opts)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, result)
}

// ActualSales GET /api/sales/actual?region=&territory=&line=&month=&policy=&save=
// @Summary Фактические продажи
// @Description Сверяет продажи хранилища по фильтру, при save=true сохраняет запуск
// @Tags sales
// @Produce json
// @Param region query string false "Регион, Всі для всех"
// @Param territory query string false "Территория"
// @Param line query string false "Товарная линия"
// @Param month query []int false "Месяцы 1-12" collectionFormat(multi)
// @Param policy query string false "Политика дублей, по умолчанию из конфигурации" Enums(sum, max)
// @Param save query bool false "Сохранить запуск"
// @Success 200 {object} ActualSalesResponse
// @Failure 400 {object} middleware.ErrorResponse "Некорректный фильтр"
// @Router /api/sales/actual [get]
func (h *Handler) ActualSales(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("Некорректный фильтр", err))
		return
	}
	opts, policy, err := h.reconcileOptionsFor(c.Query("policy"))
	if err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("Некорректная политика дублей", err))
		return
	}

	table, err := h.store.FetchAllSales(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to fetch sales", err).WithContext("ActualSales"))
		return
	}

	result, ok := h.runReconcile(c, table, opts)
	if !ok {
		return
	}

	response := ActualSalesResponse{Result: result, Filter: filter}
	if save, _ := strconv.ParseBool(c.Query("save")); save {
		run := database.ReconcileRun{Filter: filter, DuplicatePolicy: string(policy)}
		response.RunID, err = h.store.SaveReconcileRun(c.Request.Context(), run, result)
		if err != nil {
			middleware.RespondError(c, apperrors.NewInternalError("failed to save reconcile run", err).WithContext("ActualSales"))
			return
		}
	}
	c.JSON(http.StatusOK, response)
}

// SalesKPI GET /api/sales/kpi?...&source=actual|raw
func (h *Handler) SalesKPI(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		middleware.RespondError(c, apperrors.NewValidationError("Некорректный фильтр", err))
		return
	}
	source := c.DefaultQuery("source", KPISourceActual)
	if source != KPISourceActual && source != KPISourceRaw {
		middleware.RespondError(c, apperrors.NewValidationError("source должен быть actual или raw", nil))
		return
	}

	table, err := h.store.FetchAllSales(c.Request.Context(), filter)
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to fetch sales", err).WithContext("SalesKPI"))
		return
	}

	var rows []summary.Row
	if source == KPISourceRaw {
		rows = summary.FromRaw(table.Rows)
	} else {
		result, ok := h.runReconcile(c, table, h.reconcileOptions)
		if !ok {
			return
		}
		rows = summary.FromActual(result.Rows)
	}

	response := gin.H{
		"source": source,
		"filter": filter,
		"kpis":   summary.Compute(rows),
	}
	if decade, ok := summary.LatestDecade(table.Rows); ok {
		response["latest_decade"] = decade
	}
	c.JSON(http.StatusOK, response)
}

// GetRun GET /api/runs/:id
// @Summary Запуск сверки
// @Tags sales
// @Produce json
// @Param id path string true "ID запуска"
// @Success 200 {object} map[string]interface{} "Запуск и строки"
// @Failure 404 {object} middleware.ErrorResponse "Запуск не найден"
// @Router /api/runs/{id} [get]
func (h *Handler) GetRun(c *gin.Context) {
	id := c.Param("id")
	run, err := h.store.GetReconcileRun(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	rows, err := h.store.ListActualSales(c.Request.Context(), id)
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to list actual sales", err).WithContext("GetRun"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":     run,
		"columns": reconciliation.OutputColumns,
		"rows":    rows,
	})
}

// runReconcile выполняет сверку и записывает метрики
func (h *Handler) runReconcile(c *gin.Context, table reconciliation.Table, opts []reconciliation.Option) (reconciliation.Result, bool) {
	start := time.Now()
	result, err := reconciliation.ReconcileContext(c.Request.Context(), table, opts...)
	if err != nil {
		middleware.RespondError(c, apperrors.NewServiceUnavailableError("Сверка прервана", err).WithContext("Reconcile"))
		return reconciliation.Result{}, false
	}
	h.metrics.ObserveReconcile(result.Stats, time.Since(start))
	return result, true
}
