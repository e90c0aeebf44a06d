package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"wanderplan/utils"

	"github.com/julienschmidt/httprouter"
)

const (
	maxAvatarBytes = 10 << 20

	// MinPasswordLength applies to signup and password changes.
	MinPasswordLength = 8
)

// Handlers serves /api/users/me. Every route acts on the authenticated user only.
type Handlers struct {
	Store     Store
	Directory *Directory
	UploadDir string
}

func (h *Handlers) GetMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	user, err := h.Store.ByID(r.Context(), utils.GetUserIDFromRequest(r))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	utils.SendResponse(w, http.StatusOK, user, "")
}

type profileUpdate struct {
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in profileUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx := r.Context()
	user, err := h.Store.ByID(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		writeLookupError(w, err)
		return
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			utils.SendError(w, http.StatusBadRequest, "Name cannot be empty")
			return
		}
		user.Name = name
	}
	if in.Password != nil {
		if len(*in.Password) < MinPasswordLength {
			utils.SendError(w, http.StatusBadRequest, "Password is too short")
			return
		}
		user.Password = *in.Password
	}
	if err := user.HashPassword(); err != nil {
		slog.Error("hash password failed", "userid", user.UserID, "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Could not process password")
		return
	}
	user.UpdatedAt = time.Now().UTC()

	if err := h.Store.Save(ctx, user); err != nil {
		slog.Error("save profile failed", "userid", user.UserID, "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	h.Directory.Invalidate(ctx, user.UserID)
	utils.SendResponse(w, http.StatusOK, user, "Profile updated")
}

func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		utils.SendError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}
	file, _, err := r.FormFile("avatar")
	if err != nil {
		utils.SendError(w, http.StatusBadRequest, "Missing avatar file")
		return
	}
	defer file.Close()

	ctx := r.Context()
	user, err := h.Store.ByID(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		writeLookupError(w, err)
		return
	}

	url, err := SaveAvatar(file, h.UploadDir)
	if err != nil {
		if errors.Is(err, ErrBadImage) {
			utils.SendError(w, http.StatusBadRequest, "Avatar must be a JPEG, PNG or GIF image")
			return
		}
		slog.Error("save avatar failed", "userid", user.UserID, "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Failed to save avatar")
		return
	}

	user.Avatar = url
	user.UpdatedAt = time.Now().UTC()
	if err := h.Store.Save(ctx, user); err != nil {
		slog.Error("save profile failed", "userid", user.UserID, "error", err)
		utils.SendError(w, http.StatusInternalServerError, "Failed to update profile")
		return
	}
	h.Directory.Invalidate(ctx, user.UserID)
	utils.SendResponse(w, http.StatusOK, user, "Avatar updated")
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		utils.SendError(w, http.StatusNotFound, "User not found")
		return
	}
	slog.Error("user lookup failed", "error", err)
	utils.SendError(w, http.StatusInternalServerError, "Failed to load user")
}
