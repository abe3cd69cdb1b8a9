package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gochapel/identity-service/internal/httputil"
	"github.com/gochapel/identity-service/internal/logging"
	"github.com/gochapel/identity-service/internal/user"
)

// Handler contains HTTP handlers for the public authentication endpoints
type Handler struct {
	service     *Service
	userService *user.Service
}

func NewHandler(service *Service, userService *user.Service) *Handler {
	return &Handler{service: service, userService: userService}
}

// SignupRequest represents the signup request body
type SignupRequest struct {
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Password    string    `json:"password"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber *string   `json:"phone_number"`
	Role        user.Role `json:"role"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response: a bearer token plus the
// sanitized profile
type LoginResponse struct {
	Token string        `json:"token"`
	User  user.Response `json:"user"`
}

// Signup handles account creation
// @Summary      Create a new account
// @Description  Register a new user. The role defaults to NORMAL_USER when omitted.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body SignupRequest true "Signup fields"
// @Success      201 {object} user.Response
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      409 {object} httputil.ErrorResponse "Username or email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid signup request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	newUser, err := h.userService.Signup(r.Context(), user.SignupInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateUsername):
			logger.Warn("signup failed: username already exists")
			httputil.RespondErrorWithCode(w, "username already exists", httputil.CodeDuplicateUsername, http.StatusConflict)
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("signup failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeDuplicateEmail, http.StatusConflict)
		case errors.Is(err, user.ErrUsernameRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeUsernameRequired, http.StatusBadRequest)
		case errors.Is(err, user.ErrEmailRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidEmailFormat):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, user.ErrPasswordRequired):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, user.ErrPasswordTooShort):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, user.ErrInvalidRole):
			httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up", "user_id", newUser.ID)
	httputil.RespondJSON(w, user.NewResponse(newUser), http.StatusCreated)
}

// Login handles credential verification and token issuance
// @Summary      Log in
// @Description  Verify username and password, returning a bearer token and the profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"username": req.Username})

	existing, token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "invalid username or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in")
	httputil.RespondJSON(w, LoginResponse{
		Token: token,
		User:  user.NewResponse(existing),
	}, http.StatusOK)
}
