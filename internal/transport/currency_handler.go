package transport

import (
	"errors"
	"net/http"

	"fitbook/internal/currency"
	"fitbook/internal/domain"
	"fitbook/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ConvertRequest represents the conversion request payload
type ConvertRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	From   string  `json:"from" validate:"required,oneof=USD EUR GBP JPY INR CAD AUD"`
	To     string  `json:"to" validate:"required,oneof=USD EUR GBP JPY INR CAD AUD"`
}

// ConvertResponse represents a converted amount
type ConvertResponse struct {
	Amount    float64 `json:"amount"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Converted float64 `json:"converted"`
	Formatted string  `json:"formatted"`
}

// RatesResponse represents the rates for one base currency
type RatesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

// MaxPriceResponse represents the price filter ceiling in one currency
type MaxPriceResponse struct {
	Currency string  `json:"currency"`
	MaxPrice float64 `json:"max_price"`
}

// CurrencyHandler handles HTTP requests for currency operations
type CurrencyHandler struct {
	converter *currency.Converter
	logger    *zap.Logger
}

// NewCurrencyHandler creates a new CurrencyHandler
func NewCurrencyHandler(converter *currency.Converter, logger *zap.Logger) *CurrencyHandler {
	return &CurrencyHandler{
		converter: converter,
		logger:    logger,
	}
}

// RegisterRoutes registers all currency routes. These are read-only and
// public; the cache keeps upstream traffic bounded.
func (h *CurrencyHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/currency", func(r chi.Router) {
		r.Get("/rates", h.GetRates)
		r.Post("/convert", h.Convert)
		r.Get("/max-price", h.GetMaxPrice)
	})
}

func (h *CurrencyHandler) respondRateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, currency.ErrUnsupportedCurrency):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, "unsupported currency")
	case errors.Is(err, currency.ErrInvalidAmount):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, "invalid amount")
	case errors.Is(err, currency.ErrRateUnavailable):
		middleware.RespondWithError(w, http.StatusBadGateway, "exchange rate unavailable")
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// GetRates returns the rate from a base currency to every supported currency
func (h *CurrencyHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	base := domain.Currency(r.URL.Query().Get("base"))
	if base == "" {
		base = domain.USD
	}
	if !base.IsValid() {
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, "unsupported currency")
		return
	}

	rates := make(map[string]float64, len(domain.SupportedCurrencies))
	for _, target := range domain.SupportedCurrencies {
		rate, err := h.converter.GetExchangeRate(r.Context(), base, target)
		if err != nil {
			h.logger.Error("Rate lookup failed",
				zap.String("base", base.String()),
				zap.String("target", target.String()),
				zap.Error(err),
			)
			h.respondRateError(w, err)
			return
		}
		rates[target.String()] = rate
	}

	middleware.RespondWithJSON(w, http.StatusOK, RatesResponse{Base: base.String(), Rates: rates})
}

// Convert converts an amount between two supported currencies
func (h *CurrencyHandler) Convert(w http.ResponseWriter, r *http.Request) {
	var req ConvertRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Conversion payload validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	from := domain.Currency(req.From)
	to := domain.Currency(req.To)

	converted, err := h.converter.ConvertAmount(r.Context(), req.Amount, from, to)
	if err != nil {
		h.logger.Error("Conversion failed",
			zap.String("from", req.From),
			zap.String("to", req.To),
			zap.Error(err),
		)
		h.respondRateError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ConvertResponse{
		Amount:    req.Amount,
		From:      req.From,
		To:        req.To,
		Converted: converted,
		Formatted: h.converter.FormatAmount(converted, to),
	})
}

// GetMaxPrice returns the price filter ceiling in the requested currency
func (h *CurrencyHandler) GetMaxPrice(w http.ResponseWriter, r *http.Request) {
	cur := domain.Currency(r.URL.Query().Get("currency"))
	if cur == "" {
		cur = domain.INR
	}
	if !cur.IsValid() {
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, "unsupported currency")
		return
	}

	maxPrice, err := h.converter.MaxPrice(r.Context(), cur)
	if err != nil {
		h.logger.Error("Max price computation failed",
			zap.String("currency", cur.String()),
			zap.Error(err),
		)
		h.respondRateError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, MaxPriceResponse{
		Currency: cur.String(),
		MaxPrice: maxPrice,
	})
}
