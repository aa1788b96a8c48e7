package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/evergrid/contracts-service/internal/http/middleware"
	"github.com/evergrid/contracts-service/internal/model"
	"github.com/evergrid/contracts-service/internal/service"
)

type Handler struct {
	contracts *service.ContractService
	profiles  *service.ProfileService
	log       zerolog.Logger
}

func NewHandler(contracts *service.ContractService, profiles *service.ProfileService, log zerolog.Logger) *Handler {
	return &Handler{contracts: contracts, profiles: profiles, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/health", h.health)

	protected := router.Group("/")
	protected.Use(authMiddleware)
	protected.POST("/auth/user", h.authUser)
	protected.GET("/contractors", h.lookupContractors)
	protected.GET("/agencies/:code", h.getAgency)
	protected.GET("/contracts", h.listContracts)
	protected.POST("/contracts", h.submitContract)
	protected.GET("/contracts/:id", h.getContract)
	protected.GET("/contracts/:id/summary.pdf", h.contractSummaryPDF)
	protected.POST("/contracts/:id/files", h.uploadContractFile)
	protected.GET("/contracts/:id/files", h.listContractFiles)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) authUser(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        principal.UserID,
		"email":     principal.Email,
		"full_name": principal.FullName,
	})
}

func (h *Handler) lookupContractors(c *gin.Context) {
	zipCode := c.Query("zip_code")
	city := optionalQuery(c, "city")
	fuelType := optionalQuery(c, "fuel_type")

	profiles, err := h.profiles.Lookup(c.Request.Context(), zipCode, city, fuelType)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, profiles)
}

func (h *Handler) getAgency(c *gin.Context) {
	agency, err := h.profiles.AgencyByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, agency)
}

func (h *Handler) listContracts(c *gin.Context) {
	page, err := positiveIntQuery(c, "page", 1)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	limit, err := positiveIntQuery(c, "limit", 20)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}

	var noDates *bool
	if raw, exists := c.GetQuery("no_dates"); exists {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid no_dates"})
			return
		}
		noDates = &parsed
	}

	result, err := h.contracts.List(c.Request.Context(), service.ListContractsInput{
		Page:     page,
		Limit:    limit,
		DateFrom: c.Query("date_from"),
		NoDates:  noDates,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	items := make([]contractResponse, 0, len(result.Items))
	for _, contract := range result.Items {
		items = append(items, toContractResponse(contract))
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"total_count": result.TotalCount,
	})
}

type submitContractRequest struct {
	ContractID        *string `json:"contract_id"`
	Zip               *string `json:"zip"`
	City              *string `json:"city"`
	FuelType          *string `json:"fuel_type"`
	ExternalProjectID *string `json:"external_project_id"`
	Date              *string `json:"date"`
	StartAtTime       *string `json:"start_at_time"`
	EndAtTime         *string `json:"end_at_time"`
	MeetingURL        *string `json:"meeting_url"`
	InspectionDoc     *string `json:"inspection_doc"`
	InvoiceDoc        *string `json:"invoice_doc"`
	FormStage         *string `json:"form_stage"`
}

// submitContract creates a contract, or applies a sparse update when
// contract_id is present. Fields omitted from the request body are
// left untouched on update.
func (h *Handler) submitContract(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	var req submitContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fields := service.ContractFields{
		Zip:               req.Zip,
		City:              req.City,
		FuelType:          req.FuelType,
		ExternalProjectID: req.ExternalProjectID,
		Date:              req.Date,
		StartAtTime:       req.StartAtTime,
		EndAtTime:         req.EndAtTime,
		MeetingURL:        req.MeetingURL,
		InspectionDoc:     req.InspectionDoc,
		InvoiceDoc:        req.InvoiceDoc,
		FormStage:         req.FormStage,
	}

	var contract *model.Contract
	var err error
	if req.ContractID != nil && strings.TrimSpace(*req.ContractID) != "" {
		contractID, parseErr := uuid.Parse(strings.TrimSpace(*req.ContractID))
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract_id"})
			return
		}
		contract, err = h.contracts.Update(c.Request.Context(), contractID, principal.UserID, fields)
	} else {
		contract, err = h.contracts.Create(c.Request.Context(), principal.UserID, fields)
	}
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) getContract(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toContractResponse(*contract))
}

func (h *Handler) contractSummaryPDF(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	result, err := h.contracts.SummaryPDF(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) uploadContractFile(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	saved, err := h.contracts.UploadFile(c.Request.Context(), service.UploadFileInput{
		ContractID:  contractID,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) listContractFiles(c *gin.Context) {
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return
	}

	files, err := h.contracts.ListFiles(c.Request.Context(), contractID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrOwnershipMismatch):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type contractResponse struct {
	ID                string  `json:"id"`
	UserID            string  `json:"user_id"`
	Zip               *string `json:"zip"`
	City              *string `json:"city"`
	FuelType          *string `json:"fuel_type"`
	ExternalProjectID *string `json:"external_project_id"`
	Date              *string `json:"date"`
	StartAtTime       *string `json:"start_at_time"`
	EndAtTime         *string `json:"end_at_time"`
	FormattedDatetime *string `json:"formatted_datetime"`
	MeetingURL        *string `json:"meeting_url"`
	InspectionDoc     *string `json:"inspection_doc"`
	InvoiceDoc        *string `json:"invoice_doc"`
	FormStage         string  `json:"form_stage"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func toContractResponse(contract model.Contract) contractResponse {
	var date *string
	if contract.Date != nil {
		formatted := contract.Date.Format("2006-01-02")
		date = &formatted
	}
	return contractResponse{
		ID:                contract.ID.String(),
		UserID:            contract.UserID.String(),
		Zip:               contract.Zip,
		City:              contract.City,
		FuelType:          contract.FuelType,
		ExternalProjectID: contract.ExternalProjectID,
		Date:              date,
		StartAtTime:       contract.StartAtTime,
		EndAtTime:         contract.EndAtTime,
		FormattedDatetime: formatSchedule(contract.Date, contract.StartAtTime),
		MeetingURL:        contract.MeetingURL,
		InspectionDoc:     contract.InspectionDoc,
		InvoiceDoc:        contract.InvoiceDoc,
		FormStage:         string(contract.FormStage),
		CreatedAt:         contract.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         contract.UpdatedAt.Format(time.RFC3339),
	}
}

// formatSchedule renders "January 21, 2026 at 2:30 PM" for display.
// A contract without a date has no schedule line even if a time is
// still set.
func formatSchedule(date *time.Time, startAtTime *string) *string {
	if date == nil {
		return nil
	}
	formatted := date.Format("January 02, 2006")
	if startAtTime != nil {
		if parsed, err := time.Parse("15:04:05", *startAtTime); err == nil {
			formatted += " at " + parsed.Format("3:04 PM")
		}
	}
	return &formatted
}

func optionalQuery(c *gin.Context, name string) *string {
	if value, exists := c.GetQuery(name); exists && value != "" {
		return &value
	}
	return nil
}

func positiveIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw, exists := c.GetQuery(name)
	if !exists || raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
