package medicalrecord

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/pkg/pagination"
)

// Handler exposes the medical record endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the medical record routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/medical-records", h.Create)
	g.GET("/medical-records", h.List)
	g.GET("/medical-records/:id", h.Get)
	g.GET("/medical-records/appointment/:appointment_id", h.GetByAppointment)
	g.GET("/medical-records/patient/:patient_id", h.ListByPatient)
	g.PATCH("/medical-records/:id", h.Update)
	g.DELETE("/medical-records/:id", h.Delete)
}

func pathID(c echo.Context, name, label string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, apperr.Validationf("invalid %s", label)
	}
	return id, nil
}

type createRequest struct {
	AppointmentID int64  `json:"appointment_id"`
	Diagnosis     string `json:"diagnosis"`
	Treatment     string `json:"treatment"`
	Notes         string `json:"notes"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	m, err := h.svc.Create(c.Request().Context(), CreateInput{
		AppointmentID: req.AppointmentID,
		Diagnosis:     req.Diagnosis,
		Treatment:     req.Treatment,
		Notes:         req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := pathID(c, "id", "medical record id")
	if err != nil {
		return err
	}
	m, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) GetByAppointment(c echo.Context) error {
	id, err := pathID(c, "appointment_id", "appointment id")
	if err != nil {
		return err
	}
	m, err := h.svc.GetByAppointment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	f := Filter{Diagnosis: c.QueryParam("diagnosis")}

	items, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*MedicalRecord{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := pathID(c, "patient_id", "patient id")
	if err != nil {
		return err
	}

	p := pagination.FromContext(c)
	f := Filter{PatientID: patientID, Diagnosis: c.QueryParam("diagnosis")}

	items, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*MedicalRecord{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

type updateRequest struct {
	Diagnosis *string `json:"diagnosis"`
	Treatment *string `json:"treatment"`
	Notes     *string `json:"notes"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := pathID(c, "id", "medical record id")
	if err != nil {
		return err
	}

	var req updateRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	m, err := h.svc.Update(c.Request().Context(), id, UpdateInput{
		Diagnosis: req.Diagnosis,
		Treatment: req.Treatment,
		Notes:     req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := pathID(c, "id", "medical record id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "medical record deleted"})
}
