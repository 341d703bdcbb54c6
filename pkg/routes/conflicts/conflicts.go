package conflicts

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/conflicts"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/utils"
)

type DetectRequest struct {
	Primary   entity.Entity `json:"primary" validate:"required"`
	Secondary entity.Entity `json:"secondary" validate:"required"`
}

type DetectResponse struct {
	Conflicts []models.Conflict  `json:"conflicts"`
	Analysis  conflicts.Analysis `json:"analysis"`
}

type Handler struct {
	detector *conflicts.Detector
}

func NewHandler(detector *conflicts.Detector) *Handler {
	return &Handler{detector: detector}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/detect", h.Detect)
	g.POST("/options", h.Options)
}

// Detect compares an ODS record (primary) with a PMS record (secondary).
func (h *Handler) Detect(c echo.Context) error {
	req, err := utils.BindRequest[DetectRequest](c)
	if err != nil {
		return err
	}

	found := h.detector.DetectConflicts(req.Primary, req.Secondary)
	return c.JSON(http.StatusOK, DetectResponse{
		Conflicts: found,
		Analysis:  conflicts.AnalyzeConflicts(found),
	})
}

func (h *Handler) Options(c echo.Context) error {
	conflict, err := utils.BindRequest[models.Conflict](c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, conflicts.ResolutionOptions(conflict))
}
