package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/localharvest/market/internal/accounts"
	"github.com/localharvest/market/internal/cart"
	"github.com/localharvest/market/internal/checkout"
	"github.com/localharvest/market/internal/images"
	"github.com/localharvest/market/internal/listings"
	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/orders"
)

// Handler exposes one operation per user action. Every mutating endpoint
// answers {ok, message, redirect}; reads answer plain JSON payloads.
type Handler struct {
	Accounts  *accounts.Service
	Cart      cart.Store
	Listings  listings.Store
	Lifecycle *listings.Lifecycle
	Orders    orders.Store
	Checkout  *checkout.Service
	Images    images.Store
}

type result struct {
	OK       bool   `json:"ok"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func (h *Handler) Register(r *chi.Mux) {
	r.Post("/register", h.register)
	r.Post("/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.requireSession)

		r.Get("/listings", h.browseListings)
		r.Get("/listings/mine", h.myListings)
		r.Get("/listings/{id}", h.getListing)
		r.Post("/listings", h.listProduct)
		r.Post("/listings/{id}/edit", h.editListing)
		r.Post("/listings/{id}/activate", h.activateListing)
		r.Post("/listings/{id}/deactivate", h.deactivateListing)
		r.Post("/listings/{id}/restock", h.restockListing)
		r.Post("/listings/{id}/delete", h.deleteListing)

		r.Get("/cart", h.getCart)
		r.Post("/cart/items", h.addToCart)
		r.Post("/cart", h.updateCart)
		r.Delete("/cart/items/{id}", h.removeFromCart)

		r.Post("/checkout", h.doCheckout)
		r.Get("/orders", h.myOrders)
		r.Get("/orders/{id}", h.getOrder)
	})
}

type ctxKey int

const (
	ctxUserID ctxKey = iota
	ctxSessionID
)

// requireSession resolves the bearer token (or session cookie) to a user id.
// The token itself scopes the cart.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			if c, err := r.Cookie("session"); err == nil {
				token = c.Value
			}
		}
		userID, err := h.Accounts.UserID(r.Context(), token)
		if err != nil {
			writeResult(w, http.StatusUnauthorized, result{Message: "please log in", Redirect: "/login"})
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		ctx = context.WithValue(ctx, ctxSessionID, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func userID(r *http.Request) string {
	v, _ := r.Context().Value(ctxUserID).(string)
	return v
}

func sessionID(r *http.Request) string {
	v, _ := r.Context().Value(ctxSessionID).(string)
	return v
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeResult(w http.ResponseWriter, code int, res result) {
	res.OK = code < 400
	writeJSON(w, code, res)
}

// writeErr translates the error taxonomy into one user-facing message.
// Validation and stock problems are specific enough to self-correct;
// everything else stays generic.
func writeErr(w http.ResponseWriter, err error, redirect string) {
	var verr *market.ValidationError
	if errors.As(err, &verr) {
		msgs := make([]string, 0, len(verr.Fields))
		for f := range verr.Fields {
			msgs = append(msgs, verr.Fields[f])
		}
		sort.Strings(msgs)
		writeResult(w, http.StatusBadRequest, result{Message: strings.Join(msgs, "; "), Redirect: redirect})
		return
	}
	var serr *market.InsufficientStockError
	if errors.As(err, &serr) {
		writeResult(w, http.StatusConflict, result{Message: stockMessage(serr), Redirect: "/cart"})
		return
	}
	switch {
	case errors.Is(err, market.ErrNotFound):
		writeResult(w, http.StatusNotFound, result{Message: "not found", Redirect: redirect})
	case errors.Is(err, market.ErrForbidden):
		writeResult(w, http.StatusForbidden, result{Message: "you do not own this listing", Redirect: redirect})
	case errors.Is(err, market.ErrEmptyCart):
		writeResult(w, http.StatusBadRequest, result{Message: "your cart is empty", Redirect: "/cart"})
	case errors.Is(err, market.ErrInvalidQuantity):
		writeResult(w, http.StatusBadRequest, result{Message: "quantity must be positive", Redirect: redirect})
	case errors.Is(err, market.ErrConcurrencyConflict):
		writeResult(w, http.StatusConflict, result{Message: "the shop is busy, please try again", Redirect: redirect})
	case errors.Is(err, market.ErrEmailTaken):
		writeResult(w, http.StatusConflict, result{Message: "email already registered", Redirect: "/login"})
	case errors.Is(err, market.ErrInvalidCredentials):
		writeResult(w, http.StatusUnauthorized, result{Message: "invalid email or password", Redirect: "/login"})
	default:
		// internals never leak
		writeResult(w, http.StatusInternalServerError, result{Message: "something went wrong, please try again", Redirect: redirect})
	}
}

func stockMessage(e *market.InsufficientStockError) string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		if it.Inactive {
			parts = append(parts, it.ListingID+" is no longer available")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: only %d left, requested %d", it.ListingID, it.Available, it.Requested))
	}
	return "not enough stock: " + strings.Join(parts, "; ")
}
