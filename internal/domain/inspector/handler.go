package inspector

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediflow/mediflow/internal/domain/consultation"
	"github.com/mediflow/mediflow/internal/domain/document"
	"github.com/mediflow/mediflow/internal/domain/labrequest"
	"github.com/mediflow/mediflow/internal/domain/prescription"
	"github.com/mediflow/mediflow/internal/domain/workflow"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/timeline/entries/:id", h.Inspect)
	api.POST("/timeline/entries/:id/edit", h.OpenEdit)
}

func notFound(err error) bool {
	return errors.Is(err, prescription.ErrNotFound) ||
		errors.Is(err, labrequest.ErrNotFound) ||
		errors.Is(err, document.ErrNotFound) ||
		errors.Is(err, consultation.ErrNotFound)
}

func (h *Handler) Inspect(c echo.Context) error {
	entry, err := h.svc.Inspect(c.Request().Context(), c.Param("id"))
	if err != nil {
		if notFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "entry not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, entry)
}

type editResponse struct {
	SessionID string         `json:"session_id"`
	Kind      workflow.Kind  `json:"kind"`
	State     workflow.State `json:"state"`
	Draft     workflow.Draft `json:"draft"`
}

func (h *Handler) OpenEdit(c echo.Context) error {
	sess, err := h.svc.OpenEdit(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotEditable) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
		}
		if notFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "entry not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, editResponse{
		SessionID: sess.ID.String(),
		Kind:      sess.Kind,
		State:     sess.Machine.State(),
		Draft:     sess.Draft,
	})
}
