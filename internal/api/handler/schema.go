package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ebms/billing-system/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Auth ---

type registerRequest struct {
	Name        string `json:"name"         validate:"required"`
	Address     string `json:"address"      validate:"required"`
	Email       string `json:"email"        validate:"required,email"`
	MeterNumber string `json:"meter_number" validate:"required"`
	Password    string `json:"password"     validate:"required,min=6"`
}

// loginRequest accepts an email, or a meter number for customers.
type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password"   validate:"required"`
	Role       string `json:"role"       validate:"required,oneof=ADMIN CUSTOMER"`
}

type authResponse struct {
	Token string             `json:"token"`
	User  *domain.PublicUser `json:"user"`
}

// --- Users ---

type createCustomerRequest struct {
	Name        string `json:"name"         validate:"required"`
	Address     string `json:"address"      validate:"required"`
	Email       string `json:"email"        validate:"required,email"`
	MeterNumber string `json:"meter_number" validate:"required"`
	// Password is optional; the configured default applies when empty.
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
}

type updateProfileRequest struct {
	Name    *string `json:"name,omitempty"    validate:"omitempty,min=1"`
	Address *string `json:"address,omitempty" validate:"omitempty,min=1"`
	Email   *string `json:"email,omitempty"   validate:"omitempty,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

type userListResponse struct {
	Users []*domain.PublicUser `json:"users"`
	Total int                  `json:"total"`
}

// --- Bills ---

type generateBillRequest struct {
	CustomerID    string `json:"customer_id"    validate:"required"`
	Period        string `json:"period"         validate:"required"`
	UnitsConsumed *int64 `json:"units_consumed" validate:"required"`
}

type paymentRequest struct {
	ID     string          `json:"id,omitempty"`
	PaidAt time.Time       `json:"paid_at,omitempty"`
	Amount decimal.Decimal `json:"amount"`
}

// setStatusRequest distinguishes an absent payments list (nil) from an
// explicitly empty one.
type setStatusRequest struct {
	Status   string           `json:"status" validate:"required" enums:"PAID,UNPAID"`
	Payments []paymentRequest `json:"payments,omitempty"`
}

type chargeResponse struct {
	From     int64  `json:"from"`
	To       int64  `json:"to,omitempty"`
	Units    int64  `json:"units"`
	Rate     string `json:"rate"`
	Subtotal string `json:"subtotal"`
}

type paymentResponse struct {
	ID     string    `json:"id"`
	PaidAt time.Time `json:"paid_at"`
	Amount string    `json:"amount"`
}

type billResponse struct {
	ID            string            `json:"id"`
	CustomerID    string            `json:"customer_id"`
	CustomerName  string            `json:"customer_name"`
	MeterNumber   string            `json:"meter_number"`
	Period        string            `json:"period"`
	UnitsConsumed int64             `json:"units_consumed"`
	Amount        string            `json:"amount"`
	EffectiveRate string            `json:"effective_rate"`
	Charges       []chargeResponse  `json:"charges"`
	Status        string            `json:"status"`
	GeneratedAt   time.Time         `json:"generated_at"`
	Payments      []paymentResponse `json:"payments"`
	PaidTotal     string            `json:"paid_total"`
	Links         billLinks         `json:"_links"`
}

type billLinks struct {
	Self string `json:"self"`
	Pay  string `json:"pay,omitempty"`
}

type billListResponse struct {
	Bills []billResponse `json:"bills"`
	Total int            `json:"total"`
}

// --- Tariff ---

type tierResponse struct {
	UpTo int64  `json:"up_to,omitempty"`
	Rate string `json:"rate"`
}

// tariffQuoteResponse always carries the schedule; the quote fields are only
// set when units were requested.
type tariffQuoteResponse struct {
	Tiers         []tierResponse   `json:"tiers"`
	Units         *int64           `json:"units,omitempty"`
	Amount        string           `json:"amount,omitempty"`
	EffectiveRate string           `json:"effective_rate,omitempty"`
	Charges       []chargeResponse `json:"charges,omitempty"`
}
