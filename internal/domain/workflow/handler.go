package workflow

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients/:patientId/workflows", h.Open)
	api.GET("/workflows/:id", h.Get)
	api.PUT("/workflows/:id/draft", h.UpdateDraft)
	api.POST("/workflows/:id/advance", h.Advance)
	api.POST("/workflows/:id/step", h.SelectStep)
	api.POST("/workflows/:id/sign", h.Sign)
	api.POST("/workflows/:id/send", h.Send)
	api.POST("/workflows/:id/modify", h.Modify)
	api.GET("/workflows/:id/preview", h.Preview)
	api.DELETE("/workflows/:id", h.Close)
}

type sessionResponse struct {
	ID        uuid.UUID `json:"id"`
	PatientID uuid.UUID `json:"patient_id"`
	Kind      Kind      `json:"kind"`
	State     State     `json:"state"`
	Draft     Draft     `json:"draft"`
}

func sessionJSON(sess *Session) sessionResponse {
	return sessionResponse{
		ID:        sess.ID,
		PatientID: sess.PatientID,
		Kind:      sess.Kind,
		State:     sess.Machine.State(),
		Draft:     sess.Draft,
	}
}

// workflowError maps service errors onto HTTP responses. Gating failures are
// 422s carrying the validation code so the client can surface the message
// inline; they are expected, recoverable outcomes, not server faults.
func workflowError(c echo.Context, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]interface{}{"error": ve})
	}
	if errors.Is(err, ErrSessionNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "workflow session not found")
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

type openRequest struct {
	Kind     string `json:"kind" validate:"required,oneof=prescription lab_request document"`
	Template string `json:"template" validate:"omitempty,oneof=report certificate referral sickleave"`
}

func (h *Handler) Open(c echo.Context) error {
	patientID, err := uuid.Parse(c.Param("patientId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	var req openRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sess, err := h.svc.Open(c.Request().Context(), patientID, Kind(req.Kind), DocTemplate(req.Template))
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusCreated, sessionJSON(sess))
}

func (h *Handler) Get(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) UpdateDraft(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}

	var draft Draft
	switch sess.Kind {
	case KindPrescription:
		d := &PrescriptionDraft{}
		if err := c.Bind(d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		draft = d
	case KindLabRequest:
		d := NewLabDraft()
		if err := c.Bind(d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		// keep only known catalog keys
		for key := range d.Panels {
			if _, ok := PanelByKey(key); !ok {
				delete(d.Panels, key)
			}
		}
		draft = d
	case KindDocument:
		d := &DocumentDraft{}
		if err := c.Bind(d); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if !d.Template.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid document template")
		}
		draft = d
	}

	if err := h.svc.SetDraft(sess.ID, draft); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) Advance(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	if _, err := h.svc.Advance(sess.ID); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

type stepRequest struct {
	Step int `json:"step" validate:"required,min=1,max=3"`
}

func (h *Handler) SelectStep(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	var req stepRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.SelectStep(sess.ID, Step(req.Step)); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

type signRequest struct {
	Signed *bool `json:"signed" validate:"required"`
}

func (h *Handler) Sign(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	var req signRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if _, err := h.svc.SetGate(sess.ID, *req.Signed); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) Send(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	result, err := h.svc.Send(c.Request().Context(), sess.ID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"result":  result,
		"session": sessionJSON(sess),
	})
}

func (h *Handler) Modify(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	if _, err := h.svc.Modify(sess.ID); err != nil {
		return workflowError(c, err)
	}
	return c.JSON(http.StatusOK, sessionJSON(sess))
}

func (h *Handler) Preview(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	text, err := h.svc.Preview(c.Request().Context(), sess.ID)
	if err != nil {
		return workflowError(c, err)
	}
	return c.String(http.StatusOK, text)
}

func (h *Handler) Close(c echo.Context) error {
	sess, err := h.session(c)
	if err != nil {
		return workflowError(c, err)
	}
	h.svc.Close(sess.ID)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) session(c echo.Context) (*Session, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, ErrSessionNotFound
	}
	return h.svc.Get(id)
}
