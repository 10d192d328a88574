package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/localharvest/market/internal/market"
)

const maxUploadBytes = 10 << 20

// parseListingForm turns the loosely-typed multipart form into a typed field
// set and stores an optional image. Malformed numbers surface as field
// errors, never as a 500.
func (h *Handler) parseListingForm(w http.ResponseWriter, r *http.Request) (market.ListingFields, string, string, bool) {
	var f market.ListingFields
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeResult(w, http.StatusBadRequest, result{Message: "invalid form"})
		return f, "", "", false
	}
	fields := map[string]string{}

	f.Name = r.FormValue("name")
	f.Category = market.Category(r.FormValue("category"))
	f.Unit = r.FormValue("unit")
	f.Description = r.FormValue("description")

	price, err := decimal.NewFromString(r.FormValue("price"))
	if err != nil {
		fields["price"] = "price must be a number"
	}
	f.Price = price

	qty, err := strconv.Atoi(r.FormValue("quantity"))
	if err != nil {
		fields["quantity"] = "quantity must be a whole number"
	}
	f.Quantity = qty

	if len(fields) > 0 {
		writeErr(w, &market.ValidationError{Fields: fields}, "")
		return f, "", "", false
	}

	imagePath, thumbPath := "", ""
	if file, hdr, err := r.FormFile("image"); err == nil {
		defer file.Close()
		imagePath, thumbPath, err = h.Images.Save(r.Context(), hdr.Filename, file)
		if err != nil {
			writeErr(w, err, "")
			return f, "", "", false
		}
	}
	return f, imagePath, thumbPath, true
}

func (h *Handler) listProduct(w http.ResponseWriter, r *http.Request) {
	f, imagePath, thumbPath, ok := h.parseListingForm(w, r)
	if !ok {
		return
	}
	l, err := h.Lifecycle.Create(r.Context(), userID(r), f, imagePath, thumbPath)
	if err != nil {
		writeErr(w, err, "/listings/new")
		return
	}
	writeResult(w, http.StatusCreated, result{Message: "listing created", Redirect: "/listings/" + l.ID})
}

func (h *Handler) editListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	f, imagePath, thumbPath, ok := h.parseListingForm(w, r)
	if !ok {
		return
	}
	if _, err := h.Lifecycle.Edit(r.Context(), id, userID(r), f, imagePath, thumbPath); err != nil {
		writeErr(w, err, "/listings/"+id)
		return
	}
	writeResult(w, http.StatusOK, result{Message: "listing updated", Redirect: "/listings/" + id})
}

func (h *Handler) activateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Lifecycle.Activate(r.Context(), id, userID(r)); err != nil {
		writeErr(w, err, "/listings/mine")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "listing activated", Redirect: "/listings/mine"})
}

func (h *Handler) deactivateListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Lifecycle.Deactivate(r.Context(), id, userID(r)); err != nil {
		writeErr(w, err, "/listings/mine")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "listing deactivated", Redirect: "/listings/mine"})
}

type restockReq struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) restockListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req restockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, result{Message: "invalid json"})
		return
	}
	if err := h.Lifecycle.Restock(r.Context(), id, userID(r), req.Quantity); err != nil {
		writeErr(w, err, "/listings/mine")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "stock updated", Redirect: "/listings/mine"})
}

func (h *Handler) deleteListing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Lifecycle.Delete(r.Context(), id, userID(r)); err != nil {
		writeErr(w, err, "/listings/mine")
		return
	}
	writeResult(w, http.StatusOK, result{Message: "listing deleted", Redirect: "/listings/mine"})
}

func (h *Handler) browseListings(w http.ResponseWriter, r *http.Request) {
	ls, err := h.Listings.Browse(r.Context())
	if err != nil {
		writeErr(w, err, "/")
		return
	}
	writeJSON(w, http.StatusOK, ls)
}

func (h *Handler) myListings(w http.ResponseWriter, r *http.Request) {
	ls, err := h.Listings.BySeller(r.Context(), userID(r))
	if err != nil {
		writeErr(w, err, "/")
		return
	}
	writeJSON(w, http.StatusOK, ls)
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := h.Listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err, "/listings")
		return
	}
	writeJSON(w, http.StatusOK, l)
}
