package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ebms/billing-system/internal/core/domain"
	"github.com/ebms/billing-system/internal/core/policy"
)

// TariffHandler quotes the staged tariff without creating a bill.
type TariffHandler struct {
	tariff domain.Tariff
}

func NewTariffHandler(t domain.Tariff) *TariffHandler {
	return &TariffHandler{tariff: t}
}

// Quote handles GET /v1/tariff. Without units it returns the schedule only.
//
// @Summary      Tariff schedule and consumption quote
// @Tags         tariff
// @Produce      json
// @Security     BearerAuth
// @Param        units  query     int  false  "Units consumed"
// @Success      200    {object}  tariffQuoteResponse
// @Failure      400    {object}  errorResponse
// @Router       /v1/tariff [get]
func (h *TariffHandler) Quote(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := policy.Authorize(actor, policy.ViewTariff, ""); err != nil {
		return err
	}

	resp := tariffQuoteResponse{Tiers: toTierResponses(h.tariff.Tiers)}
	raw := c.QueryParam("units")
	if raw == "" {
		return c.JSON(http.StatusOK, resp)
	}

	units, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "units must be an integer")
	}
	if units < 0 {
		return domain.ErrNegativeUnits
	}

	amount := h.tariff.ComputeAmount(units)
	resp.Units = &units
	resp.Amount = money(amount)
	resp.EffectiveRate = money(domain.EffectiveRate(amount, units))
	resp.Charges = toChargeResponses(h.tariff.Breakdown(units))
	return c.JSON(http.StatusOK, resp)
}
