package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salesrecon/address"
	apperrors "salesrecon/server/errors"
	"salesrecon/server/middleware"
)

// maxBatchAddresses предельное число адресов в одном пакетном запросе
const maxBatchAddresses = 5000

// ResolveRequest запрос на разрешение адреса
type ResolveRequest struct {
	Address *string `json:"address"`
	Region  string  `json:"region"`
}

// ResolveBatchRequest пакетный запрос на разрешение адресов
type ResolveBatchRequest struct {
	Addresses []string `json:"addresses" binding:"required"`
	Region    string   `json:"region"`
}

// FullAddressRequest компоненты адреса
type FullAddressRequest struct {
	City        *string `json:"city"`
	Street      *string `json:"street"`
	HouseNumber *string `json:"house_number"`
}

// ResolveAddress POST /api/address/resolve
// @Summary Разрешить адрес
// @Tags address
// @Accept json
// @Produce json
// @Param request body ResolveRequest true "Адрес и регион"
// @Success 200 {object} map[string]interface{} "Результат разбора"
// @Failure 400 {object} middleware.ErrorResponse "Некорректное тело запроса"
// @Failure 503 {object} middleware.ErrorResponse "Справочник адресов недоступен"
// @Router /api/address/resolve [post]
func (h *Handler) ResolveAddress(c *gin.Context) {
	var req ResolveRequest
	if !bindJSON(c, &req) {
		return
	}

	registry, err := h.registry.Get(c.Request.Context(), req.Region)
	if err != nil {
		middleware.RespondError(c, apperrors.NewServiceUnavailableError("Справочник адресов недоступен", err).WithContext("ResolveAddress"))
		return
	}

	var raw interface{}
	if req.Address != nil {
		raw = *req.Address
	}
	resolution, err := h.resolver.ResolveDetailed(raw, registry)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	h.metrics.ObserveAddress(resolution.Source, 1)

	c.JSON(http.StatusOK, gin.H{
		"resolution":   resolution,
		"full_address": resolution.Address.FullAddress(),
	})
}

// ResolveAddressBatch POST /api/address/resolve/batch
// @Summary Разрешить адреса пакетом
// @Tags address
// @Accept json
// @Produce json
// @Param request body ResolveBatchRequest true "Адреса и регион"
// @Success 200 {object} map[string]interface{} "Результаты разбора"
// @Failure 400 {object} middleware.ErrorResponse "Некорректное тело запроса"
// @Router /api/address/resolve/batch [post]
func (h *Handler) ResolveAddressBatch(c *gin.Context) {
	var req ResolveBatchRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(req.Addresses) > maxBatchAddresses {
		middleware.RespondError(c, apperrors.NewValidationError("Слишком много адресов в одном запросе", nil).
			WithDetails(gin.H{"max": maxBatchAddresses, "got": len(req.Addresses)}))
		return
	}

	registry, err := h.registry.Get(c.Request.Context(), req.Region)
	if err != nil {
		middleware.RespondError(c, apperrors.NewServiceUnavailableError("Справочник адресов недоступен", err).WithContext("ResolveAddressBatch"))
		return
	}

	resolutions := make([]address.Resolution, 0, len(req.Addresses))
	sources := make(map[address.Source]int)
	for _, raw := range req.Addresses {
		resolution, err := h.resolver.ResolveDetailed(raw, registry)
		if err != nil {
			middleware.RespondError(c, err)
			return
		}
		sources[resolution.Source]++
		resolutions = append(resolutions, resolution)
	}
	for source, count := range sources {
		h.metrics.ObserveAddress(source, count)
	}

	c.JSON(http.StatusOK, gin.H{
		"resolutions": resolutions,
		"sources":     sources,
	})
}

// BuildFullAddress POST /api/address/full
// @Summary Собрать полный адрес
// @Tags address
// @Accept json
// @Produce json
// @Param request body FullAddressRequest true "Компоненты адреса"
// @Success 200 {object} map[string]interface{} "Полный адрес"
// @Router /api/address/full [post]
func (h *Handler) BuildFullAddress(c *gin.Context) {
	var req FullAddressRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"full_address": address.BuildFullAddress(req.City, req.Street, req.HouseNumber),
	})
}
