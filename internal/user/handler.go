package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gochapel/identity-service/internal/httputil"
	"github.com/gochapel/identity-service/internal/logging"
)

// Handler contains HTTP handlers for profile self-service and admin
// user management endpoints.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Response represents a user in API responses. The password hash is never
// part of this shape, regardless of caller role.
type Response struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewResponse maps a domain user to its outward representation.
func NewResponse(u *User) Response {
	return Response{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// PasswordUpdateRequest represents the self password-change request body
type PasswordUpdateRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// DetailsUpdateRequest represents the self profile-update request body.
// Omitted fields are left unchanged.
type DetailsUpdateRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
}

// AdminUpdateRequest represents the admin user-update request body.
// Omitted fields are left unchanged.
type AdminUpdateRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	PhoneNumber *string `json:"phone_number"`
	Password    *string `json:"password"`
	Role        *Role   `json:"role"`
}

// Me returns the profile of the authenticated user
// @Summary      Current user profile
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} Response
// @Failure      401 {object} httputil.ErrorResponse "Unauthenticated"
// @Router       /user/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	current, err := h.service.GetByUsername(r.Context(), identity.Username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to load current user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, NewResponse(current), http.StatusOK)
}

// UpdatePassword changes the authenticated user's password
// @Summary      Change own password
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body PasswordUpdateRequest true "Current and new password"
// @Success      200 {object} Response
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Wrong current password"
// @Router       /user/me/password [put]
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	var req PasswordUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid password update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdatePassword(r.Context(), identity.Username, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, ErrWrongPassword):
			logger.Warn("password update failed: wrong current password", "username", identity.Username)
			httputil.RespondErrorWithCode(w, "current password is incorrect", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
		case errors.Is(err, ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrNotFound):
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
		default:
			logger.Error("password update failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to update password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password updated", "username", identity.Username)
	httputil.RespondJSON(w, NewResponse(updated), http.StatusOK)
}

// UpdateDetails applies a partial update to the authenticated user's profile
// @Summary      Update own profile details
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body DetailsUpdateRequest true "Fields to update"
// @Success      200 {object} Response
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Router       /user/me/update [put]
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	identity, ok := IdentityFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "authentication required", httputil.CodeUnauthenticated, http.StatusUnauthorized)
		return
	}

	var req DetailsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid details update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateDetails(r.Context(), identity.Username, DetailsUpdate{
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.respondUpdateError(w, logger, err)
		return
	}

	logger.Info("profile updated", "username", identity.Username)
	httputil.RespondJSON(w, NewResponse(updated), http.StatusOK)
}

// ListUsers returns all users (admin only)
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} Response
// @Failure      403 {object} httputil.ErrorResponse "Forbidden"
// @Router       /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		logger.Error("failed to list users", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to list users", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	responses := make([]Response, 0, len(users))
	for _, u := range users {
		responses = append(responses, NewResponse(u))
	}

	httputil.RespondJSON(w, responses, http.StatusOK)
}

// GetUser returns a single user by id (admin only)
// @Summary      Get user by id
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User id (UUID)"
// @Success      200 {object} Response
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /admin/users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	found, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to get user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to get user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	httputil.RespondJSON(w, NewResponse(found), http.StatusOK)
}

// UpdateUser applies a partial admin update, including role and password
// @Summary      Update user by id
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User id (UUID)"
// @Param        request body AdminUpdateRequest true "Fields to update"
// @Success      200 {object} Response
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      409 {object} httputil.ErrorResponse "Username or email already exists"
// @Router       /admin/users/{id} [put]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	var req AdminUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid admin update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	updated, err := h.service.UpdateUserAdmin(r.Context(), id, AdminUpdate{
		Username:    req.Username,
		Email:       req.Email,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		Role:        req.Role,
	})
	if err != nil {
		h.respondUpdateError(w, logger, err)
		return
	}

	logger.Info("user updated by admin", "user_id", updated.ID)
	httputil.RespondJSON(w, NewResponse(updated), http.StatusOK)
}

// DeleteUser removes a user by id (admin only)
// @Summary      Delete user by id
// @Tags         admin
// @Security     BearerAuth
// @Param        id path string true "User id (UUID)"
// @Success      204 "No Content"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /admin/users/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
			return
		}
		logger.Error("failed to delete user", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to delete user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user deleted by admin", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// respondUpdateError maps update-path service errors to HTTP responses.
func (h *Handler) respondUpdateError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrDuplicateUsername):
		httputil.RespondErrorWithCode(w, "username already exists", httputil.CodeDuplicateUsername, http.StatusConflict)
	case errors.Is(err, ErrDuplicateEmail):
		httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeDuplicateEmail, http.StatusConflict)
	case errors.Is(err, ErrUsernameRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
	case errors.Is(err, ErrEmailRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidEmailFormat):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordRequired):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
	case errors.Is(err, ErrPasswordTooShort):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
	case errors.Is(err, ErrInvalidRole):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
	default:
		logger.Error("user update failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to update user", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// parseUserID reads the {id} route parameter as a UUID, responding with
// 400 on malformed input.
func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidUserID, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
