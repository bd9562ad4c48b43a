package insurance

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/pkg/pagination"
)

// Handler exposes the insurance endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the insurance routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/insurance", h.Create)
	g.GET("/insurance", h.List)
	g.GET("/insurance/:id", h.Get)
	g.GET("/insurance/patient/:patient_id", h.ListByPatient)
	g.PUT("/insurance/:id", h.Update)
}

const dateLayout = "2006-01-02"

type policyRequest struct {
	PatientID    int64  `json:"patient_id"`
	ProviderName string `json:"provider_name"`
	PolicyNumber string `json:"policy_number"`
	ExpiryDate   string `json:"expiry_date"`
}

func (r policyRequest) toInput() (Input, error) {
	in := Input{
		PatientID:    r.PatientID,
		ProviderName: r.ProviderName,
		PolicyNumber: r.PolicyNumber,
	}
	if r.ExpiryDate != "" {
		t, err := time.Parse(dateLayout, r.ExpiryDate)
		if err != nil {
			return Input{}, apperr.Validationf("invalid expiry_date: %q, expected YYYY-MM-DD", r.ExpiryDate)
		}
		in.ExpiryDate = t
	}
	return in, nil
}

func (h *Handler) Create(c echo.Context) error {
	var req policyRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	i, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, i)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid insurance id")
	}
	i, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, i)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Insurance{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := strconv.ParseInt(c.Param("patient_id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid patient id")
	}

	p := pagination.FromContext(c)
	items, total, err := h.svc.ListByPatient(c.Request().Context(), patientID, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Insurance{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid insurance id")
	}

	var req policyRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	i, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, i)
}
