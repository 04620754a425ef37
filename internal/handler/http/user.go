package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/mjheves/account-service/pkg/errors"
	"github.com/mjheves/account-service/internal/service"
	"github.com/mjheves/account-service/pkg/middleware"
	"github.com/mjheves/account-service/pkg/pagination"
	"github.com/mjheves/account-service/pkg/validator"
)

// maxUploadBytes caps a profile photo upload at 5 MiB.
const maxUploadBytes = 5 << 20

// UserHandler serves profile and user listing endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new user handler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// GetProfile handles GET /api/v1/users/me.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, r, h.logger, apperrors.Unauthorized("missing authentication"))
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Name   string `json:"name" validate:"omitempty,min=2,max=100"`
	Mobile string `json:"mobile" validate:"omitempty,min=7,max=15"`
}

// UpdateProfile handles PUT /api/v1/users/me.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, r, h.logger, apperrors.Unauthorized("missing authentication"))
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validator.Validate(req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.UpdateProfileInput{
		Name:   req.Name,
		Mobile: req.Mobile,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/v1/users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ListUsers handles GET /api/v1/users.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)

	users, total, err := h.users.ListUsers(r.Context(), params.PerPage, params.Offset)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, pagination.NewResult(users, total, params))
}

// UploadPhoto handles POST /api/v1/users/me/photo with a multipart form
// carrying the image under the "photo" field.
func (h *UserHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeError(w, r, h.logger, apperrors.Unauthorized("missing authentication"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, h.logger, apperrors.InvalidInput("invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, r, h.logger, apperrors.InvalidInput("photo file is required"))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !isAllowedImageType(contentType) {
		writeError(w, r, h.logger, apperrors.InvalidInput("photo must be a JPEG, PNG or WebP image"))
		return
	}

	user, err := h.users.UploadProfilePhoto(r.Context(), userID, header.Filename, contentType, file)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func isAllowedImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	}
	return false
}
