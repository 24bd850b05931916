package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/gym-operations/internal/repository"
)

// ReportHandler exposes aggregate financial numbers (admin only).
type ReportHandler struct {
	Payments *repository.PaymentRepo
}

func NewReportHandler(p *repository.PaymentRepo) *ReportHandler {
	if p == nil {
		panic("nil repository passed to NewReportHandler")
	}
	return &ReportHandler{Payments: p}
}

// FinancialSummary returns paid revenue, pending debt and failure
// totals across all subscriptions.
func (h *ReportHandler) FinancialSummary(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	sum, err := h.Payments.Summary(ctx)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}
