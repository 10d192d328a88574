package httpx

import (
	"encoding/json"
	"net/http"
)

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResp struct {
	result
	Token string `json:"token,omitempty"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, result{Message: "invalid json"})
		return
	}
	if _, err := h.Accounts.Register(r.Context(), req.Email, req.Name, req.Password); err != nil {
		writeErr(w, err, "/register")
		return
	}
	writeResult(w, http.StatusCreated, result{Message: "welcome! please log in", Redirect: "/login"})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResult(w, http.StatusBadRequest, result{Message: "invalid json"})
		return
	}
	token, err := h.Accounts.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, err, "/login")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResp{
		result: result{OK: true, Message: "logged in", Redirect: "/"},
		Token:  token,
	})
}
