package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"expenseflow/internal/application/service"
	"expenseflow/internal/domain/apperr"
	"expenseflow/internal/domain/entity"
	"expenseflow/internal/domain/money"
	"expenseflow/internal/domain/reconcile"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	reportService service.ReportService
	exportService service.ExportService
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	reportService service.ReportService,
	exportService service.ExportService,
	logger Logger,
) *Handlers {
	return &Handlers{
		reportService: reportService,
		exportService: exportService,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Warning string      `json:"warning,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ItemRequest represents one expense item in a save request
type ItemRequest struct {
	ID          int64   `json:"id"`
	ExpenseDate string  `json:"expense_date" binding:"required"`
	Amount      string  `json:"amount" binding:"required"`
	Category    string  `json:"category" binding:"required"`
	Description *string `json:"description"`
	ReceiptRef  *string `json:"receipt_ref"`
	IsNew       bool    `json:"is_new"`
	IsDeleted   bool    `json:"is_deleted"`
}

// SaveReportRequest represents the body of create and save requests
type SaveReportRequest struct {
	Items []ItemRequest `json:"items" binding:"required"`
}

// ReportResponse represents an expense report in API responses
type ReportResponse struct {
	ID          int64  `json:"id"`
	OwnerID     string `json:"owner_id"`
	Status      string `json:"status"`
	TotalAmount string `json:"total_amount"`
	TotalCents  int64  `json:"total_cents"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ItemResponse represents an expense item in API responses
type ItemResponse struct {
	ID          int64   `json:"id"`
	ExpenseDate string  `json:"expense_date"`
	Amount      string  `json:"amount"`
	AmountCents int64   `json:"amount_cents"`
	Category    string  `json:"category"`
	Description *string `json:"description,omitempty"`
	ReceiptRef  *string `json:"receipt_ref,omitempty"`
}

// ReportDetailResponse represents a report with its items and permitted actions
type ReportDetailResponse struct {
	Report    ReportResponse `json:"report"`
	Items     []ItemResponse `json:"items"`
	CanEdit   bool           `json:"can_edit"`
	CanDelete bool           `json:"can_delete"`
	CanDecide bool           `json:"can_decide"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// CreateReport handles POST /api/reports
func (h *Handlers) CreateReport(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	var req SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	items, err := toSessionItems(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	result, err := h.reportService.Create(c.Request.Context(), p, items)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, saveResponse(result))
}

// SaveReport handles PUT /api/reports/:id
func (h *Handlers) SaveReport(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	id, ok := h.reportID(c)
	if !ok {
		return
	}

	var req SaveReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	items, err := toSessionItems(req.Items)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	result, err := h.reportService.Save(c.Request.Context(), p, id, items)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, saveResponse(result))
}

// GetReport handles GET /api/reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	id, ok := h.reportID(c)
	if !ok {
		return
	}

	detail, err := h.reportService.Get(c.Request.Context(), p, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toDetailResponse(detail),
	})
}

// ListReports handles GET /api/reports
func (h *Handlers) ListReports(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	reports, err := h.reportService.List(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	responses := make([]ReportResponse, 0, len(reports))
	for _, report := range reports {
		responses = append(responses, toReportResponse(report))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    responses,
	})
}

// DeleteReport handles DELETE /api/reports/:id
func (h *Handlers) DeleteReport(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	id, ok := h.reportID(c)
	if !ok {
		return
	}

	if err := h.reportService.Delete(c.Request.Context(), p, id); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// ApproveReport handles POST /api/reports/:id/approve
func (h *Handlers) ApproveReport(c *gin.Context) {
	h.decide(c, h.reportService.Approve)
}

// RejectReport handles POST /api/reports/:id/reject
func (h *Handlers) RejectReport(c *gin.Context) {
	h.decide(c, h.reportService.Reject)
}

func (h *Handlers) decide(c *gin.Context, fn func(ctx context.Context, p entity.Principal, reportID int64) (*entity.ExpenseReport, error)) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	id, ok := h.reportID(c)
	if !ok {
		return
	}

	report, err := fn(c.Request.Context(), p, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toReportResponse(report),
	})
}

// ExportReport handles GET /api/reports/:id/export
func (h *Handlers) ExportReport(c *gin.Context) {
	p, ok := principalFrom(c)
	if !ok {
		h.abortUnauthenticated(c)
		return
	}

	id, ok := h.reportID(c)
	if !ok {
		return
	}

	data, filename, err := h.exportService.RenderReport(c.Request.Context(), p, id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// reportID parses the :id path parameter
func (h *Handlers) reportID(c *gin.Context) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.logger.Error("Invalid report ID", "id", idStr, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid report ID",
		})
		return 0, false
	}
	return id, true
}

func (h *Handlers) abortUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, Response{
		Success: false,
		Error:   "authentication required",
	})
}

// respondError maps application errors to HTTP status codes
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, apperr.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "internal server error",
		})
	}
}

// toSessionItems converts request items into editing session items.
// Amounts arrive as free-form text and are parsed to cents.
func toSessionItems(reqs []ItemRequest) ([]reconcile.SessionItem, error) {
	items := make([]reconcile.SessionItem, 0, len(reqs))
	for _, req := range reqs {
		expenseDate, err := time.Parse("2006-01-02", req.ExpenseDate)
		if err != nil {
			return nil, errors.New("invalid expense_date, expected YYYY-MM-DD")
		}

		items = append(items, reconcile.SessionItem{
			Item: entity.ExpenseItem{
				ID:          req.ID,
				ExpenseDate: expenseDate,
				AmountCents: money.ParseCurrencyInput(req.Amount),
				Category:    req.Category,
				Description: req.Description,
				ReceiptRef:  req.ReceiptRef,
			},
			IsNew:     req.IsNew,
			IsDeleted: req.IsDeleted,
		})
	}
	return items, nil
}

func saveResponse(result *service.SaveResult) Response {
	items := make([]ItemResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, toItemResponse(item))
	}

	return Response{
		Success: true,
		Data: ReportDetailResponse{
			Report: toReportResponse(result.Report),
			Items:  items,
		},
		Warning: result.NotifyWarning,
	}
}

func toDetailResponse(detail *service.ReportDetail) ReportDetailResponse {
	items := make([]ItemResponse, 0, len(detail.Items))
	for _, item := range detail.Items {
		items = append(items, toItemResponse(item))
	}

	return ReportDetailResponse{
		Report:    toReportResponse(detail.Report),
		Items:     items,
		CanEdit:   detail.CanEdit,
		CanDelete: detail.CanDelete,
		CanDecide: detail.CanDecide,
	}
}

func toReportResponse(report *entity.ExpenseReport) ReportResponse {
	return ReportResponse{
		ID:          report.ID,
		OwnerID:     report.OwnerID,
		Status:      report.Status,
		TotalAmount: money.FormatCents(report.TotalAmountCents),
		TotalCents:  report.TotalAmountCents,
		CreatedAt:   report.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   report.UpdatedAt.Format(time.RFC3339),
	}
}

func toItemResponse(item entity.ExpenseItem) ItemResponse {
	return ItemResponse{
		ID:          item.ID,
		ExpenseDate: item.ExpenseDate.Format("2006-01-02"),
		Amount:      money.FormatCents(item.AmountCents),
		AmountCents: item.AmountCents,
		Category:    item.Category,
		Description: item.Description,
		ReceiptRef:  item.ReceiptRef,
	}
}
