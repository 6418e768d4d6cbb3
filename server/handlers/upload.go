package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"salesrecon/address"
	"salesrecon/database"
	"salesrecon/importer"
	apperrors "salesrecon/server/errors"
	"salesrecon/server/middleware"
)

// uploadFormField имя поля multipart с файлом отчета
const uploadFormField = "file"

// UploadResponse итог загрузки отчета
type UploadResponse struct {
	FileName           string                 `json:"file_name"`
	Region             string                 `json:"region"`
	Period             importer.Period        `json:"period"`
	TotalRows          int                    `json:"total_rows"`
	RegionRows         int                    `json:"region_rows"`
	InvalidQuantities  int                    `json:"invalid_quantities"`
	Sources            map[address.Source]int `json:"sources"`
	UnmatchedAddresses []string               `json:"unmatched_addresses"`
	UnmatchedClients   []string               `json:"unmatched_clients"`
	Committed          bool                   `json:"committed"`
	Inserted           int                    `json:"inserted"`
}

// Upload POST /api/upload?region=&commit=
// @Summary Загрузить отчет
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Отчет .xlsx или .csv"
// @Param region query string false "Регион, Всі для всего отчета"
// @Param commit query bool false "Записать в хранилище"
// @Success 200 {object} UploadResponse
// @Failure 413 {object} middleware.ErrorResponse "Файл слишком большой"
// @Router /api/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	header, err := c.FormFile(uploadFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.RespondError(c, apperrors.NewPayloadTooLargeError("Файл слишком большой", err))
			return
		}
		middleware.RespondError(c, apperrors.NewValidationError("Не передан файл отчета", err))
		return
	}

	file, err := header.Open()
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to open uploaded file", err))
		return
	}
	defer file.Close()

	report, err := importer.ParseDeliveryReportReader(header.Filename, file)
	if err != nil {
		h.metrics.ObserveUpload("rejected")
		middleware.RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	region := c.Query("region")
	registry, err := h.registry.Get(ctx, region)
	if err != nil {
		middleware.RespondError(c, apperrors.NewServiceUnavailableError("Справочник адресов недоступен", err).WithContext("Upload"))
		return
	}
	clients, err := h.store.LoadClientDirectory(ctx)
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to load client directory", err).WithContext("Upload"))
		return
	}
	productLines, err := h.store.LoadProductLines(ctx)
	if err != nil {
		middleware.RespondError(c, apperrors.NewInternalError("failed to load product lines", err).WithContext("Upload"))
		return
	}

	prepared, err := importer.Prepare(report, region, importer.Lookups{
		Resolver:     h.resolver,
		Registry:     registry,
		Clients:      clients,
		ProductLines: productLines,
	})
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	for source, count := range prepared.Sources {
		h.metrics.ObserveAddress(source, count)
	}

	response := UploadResponse{
		FileName:           prepared.FileName,
		Region:             prepared.Region,
		Period:             prepared.Period,
		TotalRows:          prepared.TotalRows,
		RegionRows:         prepared.RegionRows,
		InvalidQuantities:  report.InvalidQuantities,
		Sources:            prepared.Sources,
		UnmatchedAddresses: prepared.UnmatchedAddresses,
		UnmatchedClients:   prepared.UnmatchedClients,
	}

	if commit, _ := strconv.ParseBool(c.Query("commit")); commit {
		inserted, err := h.store.InsertSales(ctx, database.SalesBatch{
			Region:  prepared.Region,
			Adding:  prepared.Period.Tag,
			Records: prepared.Records,
			Regions: prepared.RecordRegions,
		})
		if err != nil {
			h.metrics.ObserveUpload("failed")
			middleware.RespondError(c, apperrors.NewInternalError("failed to store sales", err).WithContext("Upload"))
			return
		}
		response.Committed = true
		response.Inserted = inserted
		h.metrics.ObserveUpload("committed")
	} else {
		h.metrics.ObserveUpload("previewed")
	}

	slog.Info("Delivery report processed",
		"file", prepared.FileName,
		"region", prepared.Region,
		"rows", prepared.RegionRows,
		"unmatched_addresses", len(prepared.UnmatchedAddresses),
		"committed", response.Committed,
		"request_id", middleware.GetRequestIDFromGin(c),
	)
	c.JSON(http.StatusOK, response)
}
