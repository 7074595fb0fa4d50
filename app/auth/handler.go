package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/almaty-bakery/bakery-api/app/httpx"
	"github.com/almaty-bakery/bakery-api/models"
)

type UserProvider interface {
	GetByLogin(ctx context.Context, login string) (*models.CafeUser, error)
	GetByID(ctx context.Context, id uint) (*models.CafeUser, error)
}

type Handler struct {
	users  UserProvider
	tokens *TokenService
	log    *zap.Logger
}

func NewHandler(users UserProvider, tokens *TokenService, log *zap.Logger) *Handler {
	return &Handler{
		users:  users,
		tokens: tokens,
		log:    log,
	}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
	r.Group(func(r chi.Router) {
		r.Use(h.Middleware)
		r.Get("/auth/me", h.HandleMe)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Login    string `json:"login"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.users.GetByLogin(r.Context(), input.Login)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// same answer as a password mismatch
			httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.Error("login lookup failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		httpx.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.log.Error("token issue failed", zap.Error(err))
		httpx.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := IdentityFrom(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	httpx.JSON(w, http.StatusOK, identity)
}
