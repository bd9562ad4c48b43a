package scheduling

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/emiadi/emiadi/internal/platform/apperr"
	"github.com/emiadi/emiadi/pkg/pagination"
)

// Handler exposes the appointment HTTP endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

// RegisterRoutes mounts the appointment routes on the given group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/appointments", h.Create)
	g.GET("/appointments", h.List)
	g.GET("/appointments/:id", h.Get)
	g.GET("/appointments/patient/:patient_id", h.ListByPatient)
	g.PATCH("/appointments/:id/status", h.UpdateStatus)
	g.GET("/appointment-types", h.ListTypes)
}

// timeLayouts are accepted on input, most specific first. Responses always
// render RFC 3339.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func parseTime(value, field string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validationf("invalid %s: %q", field, value)
}

type createRequest struct {
	PatientID         int64  `json:"patient_id"`
	ProviderID        int64  `json:"provider_id"`
	AppointmentTypeID int64  `json:"appointment_type_id"`
	StartTime         string `json:"start_time"`
	EndTime           string `json:"end_time"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	in := CreateInput{
		PatientID:         req.PatientID,
		ProviderID:        req.ProviderID,
		AppointmentTypeID: req.AppointmentTypeID,
	}
	var err error
	if req.StartTime != "" {
		if in.StartTime, err = parseTime(req.StartTime, "start_time"); err != nil {
			return err
		}
	}
	if req.EndTime != "" {
		if in.EndTime, err = parseTime(req.EndTime, "end_time"); err != nil {
			return err
		}
	}

	a, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

type updateStatusRequest struct {
	Status               string `json:"status"`
	RescheduledStartTime string `json:"rescheduled_start_time"`
	RescheduledEndTime   string `json:"rescheduled_end_time"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}

	var req updateStatusRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}

	in := UpdateStatusInput{Status: Status(req.Status)}
	if req.RescheduledStartTime != "" {
		t, err := parseTime(req.RescheduledStartTime, "rescheduled_start_time")
		if err != nil {
			return err
		}
		in.RescheduledStartTime = &t
	}
	if req.RescheduledEndTime != "" {
		t, err := parseTime(req.RescheduledEndTime, "rescheduled_end_time")
		if err != nil {
			return err
		}
		in.RescheduledEndTime = &t
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid appointment id")
	}
	a, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	f := Filter{Status: Status(c.QueryParam("status"))}

	items, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListByPatient(c echo.Context) error {
	patientID, err := strconv.ParseInt(c.Param("patient_id"), 10, 64)
	if err != nil {
		return apperr.Validation("invalid patient id")
	}

	p := pagination.FromContext(c)
	f := Filter{PatientID: patientID, Status: Status(c.QueryParam("status"))}

	items, total, err := h.svc.List(c.Request().Context(), f, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) ListTypes(c echo.Context) error {
	types, err := h.svc.ListTypes(c.Request().Context())
	if err != nil {
		return err
	}
	if types == nil {
		types = []*AppointmentType{}
	}
	return c.JSON(http.StatusOK, types)
}
