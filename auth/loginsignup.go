package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wanderplan/models"
	"wanderplan/users"
	"wanderplan/utils"

	"github.com/asaskevich/govalidator"
)

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func (h *Handlers) registerHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Email = models.NormalizeEmail(input.Email)
	if input.Name == "" || input.Email == "" || input.Password == "" {
		utils.SendError(w, http.StatusBadRequest, "Missing required fields")
		return
	}
	if !govalidator.IsEmail(input.Email) {
		utils.SendError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(input.Password) < users.MinPasswordLength {
		utils.SendError(w, http.StatusBadRequest, "Password is too short")
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		UserID:    utils.GetUUID(),
		Name:      input.Name,
		Email:     input.Email,
		Password:  input.Password,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		slog.Error("hash password failed", "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Could not process password")
		return
	}

	if err := h.Users.Create(r.Context(), user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			utils.SendError(w, http.StatusConflict, "User already exists")
			return
		}
		slog.Error("register failed", "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	slog.Info("user registered", "userid", user.UserID)

	s, err := h.startSession(user)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.SendResponse(w, http.StatusCreated, s, "Registration successful")
}

func (h *Handlers) loginHandler(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		utils.SendError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	stored, err := h.Users.ByEmail(r.Context(), input.Email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			slog.Error("login lookup failed", "error", err)
			utils.SendError(w, http.StatusInternalServerError, "Login failed")
			return
		}
		utils.SendError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !stored.CheckPassword(input.Password) {
		utils.SendError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	s, err := h.startSession(stored)
	if err != nil {
		utils.SendError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}
	utils.SendResponse(w, http.StatusOK, s, "Login successful")
}

func (h *Handlers) startSession(u *models.User) (*session, error) {
	token, claims, err := h.Tokens.Issue(u.UserID, u.Email, utils.GetUUID(), h.TokenTTL)
	if err != nil {
		slog.Error("sign token failed", "userid", u.UserID, "error", err)
		return nil, err
	}
	return &session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: u}, nil
}
