package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/internal/platform/auth"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterPublicRoutes mounts registration and login, which take no
// credential.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/auth/register-user", h.Register)
	g.POST("/auth/login", h.Login)
}

// RegisterRoutes mounts the endpoints that require an authenticated caller.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/auth/logout", h.Logout)
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
	PersonID int64  `json:"person_id"`
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	u, err := h.svc.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Password: req.Password,
		Role:     auth.Role(req.Role),
		PersonID: req.PersonID,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "user registered",
		"user":    u,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	token, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"access_token": token})
}

func (h *Handler) Logout(c echo.Context) error {
	if err := h.svc.Logout(c.Request().Context(), auth.ClaimsFromEcho(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logged out"})
}
