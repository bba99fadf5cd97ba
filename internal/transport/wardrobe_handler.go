package transport

import (
	"errors"
	"net/http"
	"strconv"

	"fitbook/internal/domain"
	"fitbook/internal/middleware"
	"fitbook/internal/repository"
	"fitbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ItemImageRequest represents one image in an item payload
type ItemImageRequest struct {
	URL       string `json:"url" validate:"required,url"`
	IsPrimary bool   `json:"is_primary"`
}

// ItemRequest represents the create/update wardrobe item payload
type ItemRequest struct {
	Name          string             `json:"name" validate:"required,max=200"`
	Description   string             `json:"description" validate:"max=2000"`
	Category      string             `json:"category" validate:"required,oneof=headwear tops bottoms outerwear shoes accessories"`
	Price         float64            `json:"price" validate:"gte=0"`
	PriceCurrency string             `json:"price_currency" validate:"required,oneof=USD EUR GBP JPY INR CAD AUD"`
	Images        []ItemImageRequest `json:"images" validate:"dive"`
}

// ItemImageResponse represents one image on an item
type ItemImageResponse struct {
	ID        string `json:"id"`
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

// ItemResponse represents a wardrobe item
type ItemResponse struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Category      string              `json:"category"`
	Price         float64             `json:"price"`
	PriceCurrency string              `json:"price_currency"`
	Images        []ItemImageResponse `json:"images"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
}

// ItemListResponse represents one page of wardrobe items
type ItemListResponse struct {
	Items      []ItemResponse `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func itemResponseOf(item *domain.WardrobeItem) ItemResponse {
	images := make([]ItemImageResponse, len(item.Images))
	for i, img := range item.Images {
		images[i] = ItemImageResponse{
			ID:        img.ID.String(),
			URL:       img.URL,
			IsPrimary: img.IsPrimary,
			SortOrder: img.SortOrder,
		}
	}

	return ItemResponse{
		ID:            item.ID.String(),
		Name:          item.Name,
		Description:   item.Description,
		Category:      string(item.Category),
		Price:         item.Price,
		PriceCurrency: item.PriceCurrency.String(),
		Images:        images,
		CreatedAt:     item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:     item.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// WardrobeHandler handles HTTP requests for wardrobe item operations
type WardrobeHandler struct {
	wardrobeService service.WardrobeService
	logger          *zap.Logger
}

// NewWardrobeHandler creates a new WardrobeHandler
func NewWardrobeHandler(wardrobeService service.WardrobeService, logger *zap.Logger) *WardrobeHandler {
	return &WardrobeHandler{
		wardrobeService: wardrobeService,
		logger:          logger,
	}
}

// RegisterRoutes registers all wardrobe routes. Every route requires auth;
// items are private to their owner.
func (h *WardrobeHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wardrobe", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/items", h.CreateItem)
		r.Get("/items", h.ListItems)
		r.Get("/items/search", h.SearchItems)
		r.Get("/items/{itemID}", h.GetItem)
		r.Put("/items/{itemID}", h.UpdateItem)
		r.Delete("/items/{itemID}", h.DeleteItem)
	})
}

func itemInputOf(req ItemRequest) service.ItemInput {
	images := make([]service.ImageInput, len(req.Images))
	for i, img := range req.Images {
		images[i] = service.ImageInput{URL: img.URL, IsPrimary: img.IsPrimary}
	}

	return service.ItemInput{
		Name:          req.Name,
		Description:   req.Description,
		Category:      domain.Category(req.Category),
		Price:         req.Price,
		PriceCurrency: domain.Currency(req.PriceCurrency),
		Images:        images,
	}
}

func (h *WardrobeHandler) decodeItemRequest(w http.ResponseWriter, r *http.Request) (ItemRequest, bool) {
	var req ItemRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Item payload validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return req, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

func (h *WardrobeHandler) respondItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrItemNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "wardrobe item not found")
	case errors.Is(err, service.ErrNotItemOwner):
		middleware.RespondWithError(w, http.StatusForbidden, "wardrobe item belongs to another user")
	case errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrMultiplePrimary):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, repository.ErrInvalidCursor):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid pagination cursor")
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

// CreateItem handles adding an item to the caller's wardrobe
func (h *WardrobeHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	req, ok := h.decodeItemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.wardrobeService.CreateItem(r.Context(), userID, itemInputOf(req))
	if err != nil {
		h.logger.Error("Item creation failed", zap.Error(err))
		h.respondItemError(w, err)
		return
	}

	h.logger.Info("Wardrobe item created",
		zap.String("item_id", item.ID.String()),
		zap.String("owner_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, itemResponseOf(item))
}

// UpdateItem handles editing an owned item
func (h *WardrobeHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	req, ok := h.decodeItemRequest(w, r)
	if !ok {
		return
	}

	item, err := h.wardrobeService.UpdateItem(r.Context(), userID, itemID, itemInputOf(req))
	if err != nil {
		h.logger.Error("Item update failed", zap.Error(err))
		h.respondItemError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, itemResponseOf(item))
}

// DeleteItem handles removing an owned item
func (h *WardrobeHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	if err := h.wardrobeService.DeleteItem(r.Context(), userID, itemID); err != nil {
		h.logger.Error("Item deletion failed", zap.Error(err))
		h.respondItemError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetItem handles fetching one owned item
func (h *WardrobeHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	item, err := h.wardrobeService.GetItem(r.Context(), itemID)
	if err != nil {
		h.respondItemError(w, err)
		return
	}
	if item.OwnerID != userID {
		// Present the same response as a missing item so IDs cannot be probed.
		middleware.RespondWithError(w, http.StatusNotFound, "wardrobe item not found")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, itemResponseOf(item))
}

// pageParams reads the limit and cursor query parameters
func pageParams(r *http.Request) (int, string) {
	limit := defaultPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, r.URL.Query().Get("cursor")
}

// ListItems handles listing the caller's wardrobe, newest first
func (h *WardrobeHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	limit, cursor := pageParams(r)

	var category *domain.Category
	if raw := r.URL.Query().Get("category"); raw != "" {
		c := domain.Category(raw)
		if !c.IsValid() {
			middleware.RespondWithError(w, http.StatusBadRequest, "unknown category")
			return
		}
		category = &c
	}

	items, next, err := h.wardrobeService.ListItems(r.Context(), userID, category, limit, cursor)
	if err != nil {
		h.logger.Error("Item listing failed", zap.Error(err))
		h.respondItemError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, itemListResponseOf(items, next))
}

// SearchItems handles name/description search over the caller's wardrobe
func (h *WardrobeHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	limit, cursor := pageParams(r)
	query := r.URL.Query().Get("q")

	items, next, err := h.wardrobeService.SearchItems(r.Context(), userID, query, limit, cursor)
	if err != nil {
		h.logger.Error("Item search failed", zap.Error(err))
		h.respondItemError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, itemListResponseOf(items, next))
}

func itemListResponseOf(items []*domain.WardrobeItem, next string) ItemListResponse {
	responses := make([]ItemResponse, len(items))
	for i, item := range items {
		responses[i] = itemResponseOf(item)
	}
	return ItemListResponse{Items: responses, NextCursor: next}
}
