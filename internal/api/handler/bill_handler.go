package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ebms/billing-system/internal/api/metrics"
	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/ports"
)

// BillHandler handles HTTP requests for bill operations.
type BillHandler struct {
	service ports.BillService
}

func NewBillHandler(service ports.BillService) *BillHandler {
	return &BillHandler{service: service}
}

// Create handles POST /v1/bills.
//
// @Summary      Generate a bill
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      generateBillRequest  true  "Customer, period and consumption"
// @Success      201   {object}  billResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/bills [post]
func (h *BillHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req generateBillRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	bill, err := h.service.Generate(c.Request().Context(), actor, ports.GenerateBillInput{
		CustomerID:    req.CustomerID,
		Period:        req.Period,
		UnitsConsumed: *req.UnitsConsumed,
	})
	if err != nil {
		return err
	}

	metrics.BillsGeneratedTotal.Inc()
	metrics.BilledUnits.Observe(float64(bill.UnitsConsumed))
	return c.JSON(http.StatusCreated, toBillResponse(bill))
}

// List handles GET /v1/bills. Customers only see their own bills.
//
// @Summary      List bills
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  billListResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/bills [get]
func (h *BillHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	bills, err := h.service.List(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillListResponse(bills))
}

// Get handles GET /v1/bills/:id.
//
// @Summary      Get a bill
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  billResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/bills/{id} [get]
func (h *BillHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	bill, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBillResponse(bill))
}

// Pay handles POST /v1/bills/:id/pay.
//
// @Summary      Pay a bill in full
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bill ID"
// @Success      200  {object}  billResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/bills/{id}/pay [post]
func (h *BillHandler) Pay(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	bill, err := h.service.Pay(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}

	metrics.PaymentsTotal.WithLabelValues("customer").Inc()
	return c.JSON(http.StatusOK, toBillResponse(bill))
}

// SetStatus handles PUT /v1/bills/:id/status.
//
// @Summary      Override a bill's status
// @Description  PAID without a payments list records one full payment; UNPAID clears the history.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Bill ID"
// @Param        body  body      setStatusRequest  true  "Target status and optional payments"
// @Success      200   {object}  billResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/bills/{id}/status [put]
func (h *BillHandler) SetStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req setStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	status, err := domain.ParseBillStatus(req.Status)
	if err != nil {
		return err
	}

	bill, err := h.service.SetStatus(c.Request().Context(), actor, ports.SetStatusInput{
		BillID:   c.Param("id"),
		Status:   status,
		Payments: toPaymentInputs(req.Payments),
	})
	if err != nil {
		return err
	}

	metrics.StatusOverridesTotal.WithLabelValues(string(status)).Inc()
	if bill.Status == domain.BillPaid && req.Payments == nil {
		metrics.PaymentsTotal.WithLabelValues("override").Inc()
	}
	return c.JSON(http.StatusOK, toBillResponse(bill))
}
