package order

import (
	"encoding/json"
	"errors"
	"net/http"

	"velora-be/internal/utils"

	"github.com/google/uuid"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

type checkoutRequest struct {
	Items []CheckoutItemInput `json:"items"`
}

// Checkout opens a payment session for the caller's cart or for the
// explicit items in the request body. An empty body is valid and means
// "charge whatever is in my cart".
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	email := utils.GetUserEmailFromContext(r.Context())

	var req checkoutRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
			return
		}
	}

	result, err := h.svc.Checkout(r.Context(), CheckoutParams{
		UserID: userID,
		Email:  email,
		Items:  req.Items,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrCartEmpty), errors.Is(err, ErrInvalidQuantity):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrProductNotFound):
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrUserNotAuthenticated):
			utils.WriteJSONError(w, err.Error(), http.StatusUnauthorized)
		default:
			utils.WriteJSONError(w, "checkout failed", http.StatusInternalServerError)
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orders, err := h.svc.ListByUser(r.Context(), userID)
	if err != nil {
		utils.WriteJSONError(w, "failed to list orders", http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []Order{}
	}

	utils.WriteJSON(w, http.StatusOK, orders)
}

// GetBySession serves the post-payment success page lookup. The session
// id comes from the redirect URL, not from the webhook.
func (h *Handler) GetBySession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	o, err := h.svc.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
			return
		}
		utils.WriteJSONError(w, "failed to get order", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, http.StatusOK, o)
}

type statusUpdateRequest struct {
	Status Status `json:"status"`
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("orderID"))
	if err != nil {
		utils.WriteJSONError(w, "invalid order id", http.StatusBadRequest)
		return
	}

	var req statusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	err = h.svc.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			utils.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrOrderNotFound):
			utils.WriteJSONError(w, err.Error(), http.StatusNotFound)
		default:
			utils.WriteJSONError(w, "failed to update order", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
