package person

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/pkg/pagination"
)

// Handler exposes the patient and provider registry endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterPublicRoutes mounts the open registration endpoints.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.POST("/patients", h.RegisterPatient)
	g.POST("/providers", h.RegisterProvider)
}

// RegisterRoutes mounts the authenticated registry endpoints.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/patients", h.ListPatients)
	g.GET("/patients/:id", h.GetPatient)
	g.GET("/providers", h.ListProviders)
	g.GET("/providers/:id", h.GetProvider)
}

const dateLayout = "2006-01-02"

func parseDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, apperr.Validationf("invalid %s: %q, expected YYYY-MM-DD", field, value)
	}
	return &t, nil
}

type registerPatientRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	DateOfBirth string `json:"date_of_birth"`
	Phone       string `json:"phone"`
	Email       string `json:"email"`
	Gender      string `json:"gender"`
	NationalID  string `json:"national_id"`
	Address     string `json:"address"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	dob, err := parseDate(req.DateOfBirth, "date_of_birth")
	if err != nil {
		return err
	}

	p, err := h.svc.RegisterPatient(c.Request().Context(), RegisterPatientInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Phone:       req.Phone,
		Email:       req.Email,
		Gender:      req.Gender,
		NationalID:  req.NationalID,
		Address:     req.Address,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

type registerProviderRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	DateOfBirth    string `json:"date_of_birth"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Gender         string `json:"gender"`
	NationalID     string `json:"national_id"`
	Cadre          string `json:"cadre"`
	Specialization string `json:"specialization"`
}

func (h *Handler) RegisterProvider(c echo.Context) error {
	var req registerProviderRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	dob, err := parseDate(req.DateOfBirth, "date_of_birth")
	if err != nil {
		return err
	}

	p, err := h.svc.RegisterProvider(c.Request().Context(), RegisterProviderInput{
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DateOfBirth:    dob,
		Phone:          req.Phone,
		Email:          req.Email,
		Gender:         req.Gender,
		NationalID:     req.NationalID,
		Cadre:          req.Cadre,
		Specialization: req.Specialization,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid patient id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) GetProvider(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid provider id")
	}
	p, err := h.svc.GetProvider(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), c.QueryParam("search"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListProviders(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListProviders(c.Request().Context(), c.QueryParam("search"), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Provider{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}
