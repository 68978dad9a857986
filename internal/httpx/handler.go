// Package httpx exposes the storefront over HTTP: the cart endpoints the
// shop frontend calls, the checkout endpoints that hand the shopper to the
// payment provider, and the webhook endpoint the provider calls back on.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storefront-go/checkout/internal/cart"
	"github.com/storefront-go/checkout/internal/checkout"
	"github.com/storefront-go/checkout/internal/order"
	"github.com/storefront-go/checkout/internal/webhook"
)

// sessionCookie carries the session id that scopes a cart to one shopper.
const sessionCookie = "storefront_session"

// maxWebhookBody bounds webhook payload reads. Stripe events are a few KB;
// anything near this limit is not a session event.
const maxWebhookBody = 256 << 10

// Handler handles incoming HTTP requests for the cart and checkout flows.
type Handler struct {
	carts      *cart.Service
	builder    *checkout.Builder
	gateway    checkout.PaymentGateway
	reconciler *webhook.Reconciler
	shipping   checkout.ShippingConfig
	checkout   checkout.Config // configured UI mode, one of hosted or embedded
	expand     []string        // expansion paths for session retrieval
}

// NewHandler wires the handler with its domain services. expand lists the
// session fields to expand when reconciling a webhook; pass the gateway
// adapter's reconciliation set.
func NewHandler(
	carts *cart.Service,
	builder *checkout.Builder,
	gateway checkout.PaymentGateway,
	reconciler *webhook.Reconciler,
	shipping checkout.ShippingConfig,
	checkoutCfg checkout.Config,
	expand []string,
) *Handler {
	return &Handler{
		carts:      carts,
		builder:    builder,
		gateway:    gateway,
		reconciler: reconciler,
		shipping:   shipping,
		checkout:   checkoutCfg,
		expand:     expand,
	}
}

// sessionID returns the session id from the request cookie, minting and
// setting a fresh one when the shopper has none yet.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookie); err == nil && c.Value != "" {
		return c.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(cart.DefaultSessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// GetCart returns the session's cart, empty if the shopper has none yet.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), h.sessionID(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(c))
}

// AddCartItem adds a product to the cart, merging with an existing line when
// product and options match.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	sessionID := h.sessionID(w, r)
	key, err := h.carts.AddItem(r.Context(), sessionID, req.ProductID, req.Quantity, req.Options)
	if err != nil {
		writeCartError(w, err)
		return
	}

	c, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, AddItemResponse{Key: key, Cart: mapCartToResponse(c)})
}

// UpdateCartItem replaces the quantity of one cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	sessionID := h.sessionID(w, r)
	if err := h.carts.UpdateItem(r.Context(), sessionID, chi.URLParam(r, "key"), req.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	h.respondWithCart(w, r, sessionID)
}

// RemoveCartItem deletes one cart line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	sessionID := h.sessionID(w, r)
	if err := h.carts.RemoveItem(r.Context(), sessionID, chi.URLParam(r, "key")); err != nil {
		writeCartError(w, err)
		return
	}
	h.respondWithCart(w, r, sessionID)
}

// DestroyCart drops the session's cart entirely.
func (h *Handler) DestroyCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Destroy(r.Context(), h.sessionID(w, r)); err != nil {
		writeError(w, http.StatusInternalServerError, "cart_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

func (h *Handler) respondWithCart(w http.ResponseWriter, r *http.Request, sessionID string) {
	c, err := h.carts.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_unavailable", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(c))
}

// HostedCheckout creates a hosted checkout session for the cart and
// redirects the shopper to the provider's payment page.
func (h *Handler) HostedCheckout(w http.ResponseWriter, r *http.Request) {
	if h.checkout.UIMode() != checkout.UIModeHosted {
		writeError(w, http.StatusForbidden, "wrong_endpoint", "checkout runs in embedded mode")
		return
	}

	created, ok := h.createSession(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, created.URL, http.StatusSeeOther)
}

// EmbeddedCheckout creates an embedded checkout session and returns the
// client secret the frontend mounts the payment form with.
func (h *Handler) EmbeddedCheckout(w http.ResponseWriter, r *http.Request) {
	if h.checkout.UIMode() != checkout.UIModeEmbedded {
		writeError(w, http.StatusForbidden, "wrong_endpoint", "checkout runs in hosted mode")
		return
	}

	created, ok := h.createSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, EmbeddedSessionResponse{ClientSecret: created.ClientSecret})
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) (checkout.CreatedSession, bool) {
	c, err := h.carts.Get(r.Context(), h.sessionID(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cart_unavailable", err.Error())
		return checkout.CreatedSession{}, false
	}

	req, err := h.builder.Build(c, h.shipping, h.checkout)
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "empty_cart", "cart has no items")
			return checkout.CreatedSession{}, false
		}
		writeError(w, http.StatusInternalServerError, "checkout_failed", err.Error())
		return checkout.CreatedSession{}, false
	}

	created, err := h.gateway.CreateSession(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "creating checkout session failed", "order_id", req.OrderID(), "error", err)
		writeError(w, http.StatusBadGateway, "gateway_error", "could not create checkout session")
		return checkout.CreatedSession{}, false
	}

	slog.InfoContext(r.Context(), "checkout session created",
		"session_id", created.ID, "order_id", req.OrderID(), "ui_mode", h.checkout.UIMode())
	return created, true
}

// Webhook verifies and applies a payment-provider event. Redeliveries of
// already-applied events answer ok so the provider stops retrying.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "could not read body")
		return
	}

	ev, err := h.gateway.VerifyWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		slog.WarnContext(r.Context(), "webhook verification failed", "error", err)
		writeError(w, http.StatusBadRequest, "invalid_signature", "signature verification failed")
		return
	}

	sess, err := h.gateway.RetrieveSession(r.Context(), ev.SessionID, h.expand)
	if err != nil {
		slog.ErrorContext(r.Context(), "retrieving session for webhook failed",
			"event_id", ev.ID, "session_id", ev.SessionID, "error", err)
		writeError(w, http.StatusBadGateway, "gateway_error", "could not retrieve session")
		return
	}

	res, err := h.reconciler.Apply(r.Context(), ev, sess)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrDuplicateOrder), errors.Is(err, order.ErrDuplicateEvent):
			slog.InfoContext(r.Context(), "webhook redelivery ignored", "event_id", ev.ID, "order_id", sess.OrderID())
			writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
		case errors.Is(err, webhook.ErrMissingOrderID), errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusBadRequest, "unknown_order", err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "reconcile_failed", err.Error())
		}
		return
	}

	slog.InfoContext(r.Context(), "webhook applied",
		"event_id", ev.ID, "order_id", res.OrderID, "status", res.Status, "outcome", res.Outcome)
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// writeCartError maps cart service errors to HTTP status codes. Unavailable
// covers both unknown and unlisted products; they are indistinguishable from
// outside on purpose.
func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrProductUnavailable):
		writeError(w, http.StatusNotFound, "product_unavailable", err.Error())
	case errors.Is(err, cart.ErrNoSuchItem):
		writeError(w, http.StatusNotFound, "item_not_found", err.Error())
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrProductNotPriced):
		writeError(w, http.StatusUnprocessableEntity, "invalid_item", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "cart_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
