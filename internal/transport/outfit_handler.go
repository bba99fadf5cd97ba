package transport

import (
	"context"
	"errors"
	"net/http"

	"fitbook/internal/domain"
	"fitbook/internal/middleware"
	"fitbook/internal/outfit"
	"fitbook/internal/repository"
	"fitbook/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutfitItemRequest is one entry of a builder save payload
type OutfitItemRequest struct {
	WardrobeItemID string `json:"wardrobe_item_id" validate:"required,uuid"`
	Position       string `json:"position" validate:"required"`
}

// OutfitRequest represents the create/update outfit payload
type OutfitRequest struct {
	Title       string              `json:"title" validate:"required,max=200"`
	Description string              `json:"description" validate:"max=2000"`
	IsPublic    bool                `json:"is_public"`
	Items       []OutfitItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OutfitItemResponse is one placed item in an outfit
type OutfitItemResponse struct {
	WardrobeItemID string        `json:"wardrobe_item_id"`
	Position       string        `json:"position"`
	Item           *ItemResponse `json:"item,omitempty"`
}

// OutfitResponse represents an outfit with computed totals
type OutfitResponse struct {
	ID           string               `json:"id"`
	OwnerID      string               `json:"owner_id"`
	Title        string               `json:"title"`
	Description  string               `json:"description"`
	IsPublic     bool                 `json:"is_public"`
	Upvotes      int                  `json:"upvotes"`
	Items        []OutfitItemResponse `json:"items"`
	Total        service.Money        `json:"total"`
	DisplayTotal service.Money        `json:"display_total"`
	CreatedAt    string               `json:"created_at"`
	UpdatedAt    string               `json:"updated_at"`
}

// OutfitListResponse represents one page of outfits
type OutfitListResponse struct {
	Outfits    []OutfitResponse `json:"outfits"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func outfitResponseOf(view *service.OutfitView) OutfitResponse {
	items := make([]OutfitItemResponse, len(view.Items))
	for i, oi := range view.Items {
		entry := OutfitItemResponse{
			WardrobeItemID: oi.WardrobeItemID.String(),
			Position:       oi.Position,
		}
		if oi.Item != nil {
			resp := itemResponseOf(oi.Item)
			entry.Item = &resp
		}
		items[i] = entry
	}

	return OutfitResponse{
		ID:           view.ID.String(),
		OwnerID:      view.OwnerID.String(),
		Title:        view.Title,
		Description:  view.Description,
		IsPublic:     view.IsPublic,
		Upvotes:      view.Upvotes,
		Items:        items,
		Total:        view.Total,
		DisplayTotal: view.DisplayTotal,
		CreatedAt:    view.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt:    view.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// OutfitHandler handles HTTP requests for outfit operations
type OutfitHandler struct {
	outfitService service.OutfitService
	userService   service.UserService
	logger        *zap.Logger
}

// NewOutfitHandler creates a new OutfitHandler
func NewOutfitHandler(outfitService service.OutfitService, userService service.UserService, logger *zap.Logger) *OutfitHandler {
	return &OutfitHandler{
		outfitService: outfitService,
		userService:   userService,
		logger:        logger,
	}
}

// RegisterRoutes registers all outfit routes
func (h *OutfitHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/outfits", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/", h.CreateOutfit)
		r.Get("/", h.ListPublic)
		r.Get("/mine", h.ListMine)
		r.Get("/{outfitID}", h.GetOutfit)
		r.Put("/{outfitID}", h.UpdateOutfit)
		r.Delete("/{outfitID}", h.DeleteOutfit)

		r.Post("/{outfitID}/upvote", h.Upvote)
		r.Delete("/{outfitID}/upvote", h.RemoveUpvote)
		r.Post("/{outfitID}/save", h.Save)
		r.Delete("/{outfitID}/save", h.Unsave)
	})

	// Moderation route for taking down any outfit
	r.Route("/api/admin/outfits", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		r.Delete("/{outfitID}", h.ForceDelete)
	})
}

// displayCurrency resolves the currency used for converted totals: an
// explicit ?currency= override, otherwise the caller's stored preference.
func (h *OutfitHandler) displayCurrency(r *http.Request, userID uuid.UUID) domain.Currency {
	if raw := r.URL.Query().Get("currency"); raw != "" {
		if c := domain.Currency(raw); c.IsValid() {
			return c
		}
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Debug("Preferred currency lookup failed", zap.Error(err))
		return domain.USD
	}
	return user.PreferredCurrency
}

func outfitInputOf(req OutfitRequest) (service.OutfitInput, error) {
	items := make([]outfit.SavedItem, len(req.Items))
	for i, entry := range req.Items {
		itemID, err := uuid.Parse(entry.WardrobeItemID)
		if err != nil {
			return service.OutfitInput{}, err
		}
		items[i] = outfit.SavedItem{WardrobeItemID: itemID, Position: entry.Position}
	}

	return service.OutfitInput{
		Title:       req.Title,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Items:       items,
	}, nil
}

func (h *OutfitHandler) decodeOutfitRequest(w http.ResponseWriter, r *http.Request) (service.OutfitInput, bool) {
	var req OutfitRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Outfit payload validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return service.OutfitInput{}, false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return service.OutfitInput{}, false
	}

	input, err := outfitInputOf(req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid wardrobe item ID")
		return service.OutfitInput{}, false
	}
	return input, true
}

func (h *OutfitHandler) respondOutfitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrOutfitNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "outfit not found")
	case errors.Is(err, service.ErrOutfitNotVisible):
		// Same shape as a missing outfit so private IDs cannot be probed.
		middleware.RespondWithError(w, http.StatusNotFound, "outfit not found")
	case errors.Is(err, service.ErrNotOutfitOwner):
		middleware.RespondWithError(w, http.StatusForbidden, "outfit belongs to another user")
	case errors.Is(err, service.ErrUnknownItems),
		errors.Is(err, outfit.ErrUnknownSlot),
		errors.Is(err, outfit.ErrCategoryMismatch),
		errors.Is(err, outfit.ErrInvalidCategory):
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, "invalid outfit composition")
	case errors.Is(err, repository.ErrInvalidCursor):
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid pagination cursor")
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

func outfitIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	outfitID, err := uuid.Parse(chi.URLParam(r, "outfitID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid outfit ID")
		return uuid.Nil, false
	}
	return outfitID, true
}

// CreateOutfit handles saving a new builder composition
func (h *OutfitHandler) CreateOutfit(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	input, ok := h.decodeOutfitRequest(w, r)
	if !ok {
		return
	}

	view, err := h.outfitService.CreateOutfit(r.Context(), userID, input)
	if err != nil {
		h.logger.Error("Outfit creation failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	h.logger.Info("Outfit created",
		zap.String("outfit_id", view.ID.String()),
		zap.String("owner_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, outfitResponseOf(view))
}

// UpdateOutfit handles replacing an outfit's metadata and composition
func (h *OutfitHandler) UpdateOutfit(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	outfitID, ok := outfitIDParam(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeOutfitRequest(w, r)
	if !ok {
		return
	}

	view, err := h.outfitService.UpdateOutfit(r.Context(), userID, outfitID, input)
	if err != nil {
		h.logger.Error("Outfit update failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, outfitResponseOf(view))
}

// DeleteOutfit handles removing an owned outfit
func (h *OutfitHandler) DeleteOutfit(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	outfitID, ok := outfitIDParam(w, r)
	if !ok {
		return
	}

	if err := h.outfitService.DeleteOutfit(r.Context(), userID, outfitID); err != nil {
		h.logger.Error("Outfit deletion failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ForceDelete handles moderation takedown of any outfit
func (h *OutfitHandler) ForceDelete(w http.ResponseWriter, r *http.Request) {
	outfitID, ok := outfitIDParam(w, r)
	if !ok {
		return
	}

	if err := h.outfitService.ForceDeleteOutfit(r.Context(), outfitID); err != nil {
		h.logger.Error("Outfit takedown failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	h.logger.Info("Outfit removed by moderator", zap.String("outfit_id", outfitID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// GetOutfit handles fetching one outfit with computed totals
func (h *OutfitHandler) GetOutfit(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	outfitID, ok := outfitIDParam(w, r)
	if !ok {
		return
	}

	view, err := h.outfitService.GetOutfit(r.Context(), userID, outfitID, h.displayCurrency(r, userID))
	if err != nil {
		h.respondOutfitError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, outfitResponseOf(view))
}

// ListPublic handles the public outfit feed
func (h *OutfitHandler) ListPublic(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	limit, cursor := pageParams(r)

	views, next, err := h.outfitService.ListPublicOutfits(r.Context(), limit, cursor, h.displayCurrency(r, userID))
	if err != nil {
		h.logger.Error("Public feed listing failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, outfitListResponseOf(views, next))
}

// ListMine handles listing the caller's outfits, public or not
func (h *OutfitHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	limit, cursor := pageParams(r)

	views, next, err := h.outfitService.ListMyOutfits(r.Context(), userID, limit, cursor, h.displayCurrency(r, userID))
	if err != nil {
		h.logger.Error("Outfit listing failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, outfitListResponseOf(views, next))
}

// applyReaction runs one of the idempotent reaction operations (upvote,
// save, and their inverses) and responds with the given success status.
func (h *OutfitHandler) applyReaction(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, outfitID, userID uuid.UUID) error, successStatus int) {
	userID, ok := authenticatedUserID(w, r, h.logger)
	if !ok {
		return
	}

	outfitID, ok := outfitIDParam(w, r)
	if !ok {
		return
	}

	if err := action(r.Context(), outfitID, userID); err != nil {
		h.logger.Error("Outfit reaction failed", zap.Error(err))
		h.respondOutfitError(w, err)
		return
	}

	w.WriteHeader(successStatus)
}

// Upvote handles adding an upvote
func (h *OutfitHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	h.applyReaction(w, r, h.outfitService.Upvote, http.StatusCreated)
}

// RemoveUpvote handles withdrawing an upvote
func (h *OutfitHandler) RemoveUpvote(w http.ResponseWriter, r *http.Request) {
	h.applyReaction(w, r, h.outfitService.RemoveUpvote, http.StatusNoContent)
}

// Save handles adding an outfit to the caller's saved collection
func (h *OutfitHandler) Save(w http.ResponseWriter, r *http.Request) {
	h.applyReaction(w, r, h.outfitService.SaveOutfit, http.StatusCreated)
}

// Unsave handles removing an outfit from the caller's saved collection
func (h *OutfitHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	h.applyReaction(w, r, h.outfitService.UnsaveOutfit, http.StatusNoContent)
}

func outfitListResponseOf(views []*service.OutfitView, next string) OutfitListResponse {
	responses := make([]OutfitResponse, len(views))
	for i, view := range views {
		responses[i] = outfitResponseOf(view)
	}
	return OutfitListResponse{Outfits: responses, NextCursor: next}
}
