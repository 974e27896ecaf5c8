package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/updoot/discussion-backend/internal/api/metrics"
	"github.com/updoot/discussion-backend/internal/api/middleware"
	"github.com/updoot/discussion-backend/internal/core/domain"
	"github.com/updoot/discussion-backend/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type changePasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// authResponse carries either the affected user or field-scoped errors.
// Validation outcomes are response data, never transport failures.
type authResponse struct {
	User   *userResponse       `json:"user,omitempty"`
	Errors []domain.FieldError `json:"errors,omitempty"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// Register creates a new account and signs the session in.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Registration details"
// @Success      201   {object}  authResponse
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	sess := middleware.SessionFromContext(c)
	user, ferrs, err := h.authService.Register(c.Request().Context(), sess, ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}
	if len(ferrs) > 0 {
		return c.JSON(http.StatusOK, authResponse{Errors: ferrs})
	}

	metrics.RegistrationsTotal.Inc()
	return c.JSON(http.StatusCreated, authResponse{User: presentUser(user, sess)})
}

// Login authenticates by email and password and binds the user to the session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	sess := middleware.SessionFromContext(c)
	user, ferrs, err := h.authService.Login(c.Request().Context(), sess, req.Email, req.Password)
	if err != nil {
		return err
	}
	if len(ferrs) > 0 {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return c.JSON(http.StatusOK, authResponse{Errors: ferrs})
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{User: presentUser(user, sess)})
}

// Logout destroys the server-side session; the session middleware clears the
// cookie once the session is marked destroyed.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  okResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	sess := middleware.SessionFromContext(c)
	ok := h.authService.Logout(c.Request().Context(), sess)
	return c.JSON(http.StatusOK, okResponse{OK: ok})
}

// ForgotPassword starts the reset flow. It answers true whether or not the
// account exists.
//
// @Summary      Request a password-reset mail
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  okResponse
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.authService.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	metrics.PasswordResetsTotal.WithLabelValues("requested").Inc()
	return c.JSON(http.StatusOK, okResponse{OK: true})
}

// ChangePassword redeems a reset token and sets a new password.
//
// @Summary      Change password with a reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      changePasswordRequest  true  "Token and new password"
// @Success      200   {object}  authResponse
// @Router       /auth/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	sess := middleware.SessionFromContext(c)
	user, ferrs, err := h.authService.ChangePassword(c.Request().Context(), sess, req.Token, req.NewPassword)
	if err != nil {
		return err
	}
	if len(ferrs) > 0 {
		return c.JSON(http.StatusOK, authResponse{Errors: ferrs})
	}

	metrics.PasswordResetsTotal.WithLabelValues("completed").Inc()
	return c.JSON(http.StatusOK, authResponse{User: presentUser(user, sess)})
}

// Me returns the session's user, or null for anonymous sessions.
//
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	sess := middleware.SessionFromContext(c)
	user, err := h.authService.Me(c.Request().Context(), sess)
	if err != nil {
		return err
	}
	if user == nil {
		return c.JSON(http.StatusOK, nil)
	}
	return c.JSON(http.StatusOK, presentUser(user, sess))
}
