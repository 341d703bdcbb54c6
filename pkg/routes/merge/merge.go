package merge

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/merging"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/utils"
)

type Handler struct {
	merger *merging.Merger
}

func NewHandler(merger *merging.Merger) *Handler {
	return &Handler{merger: merger}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Merge)
}

// Merge reconciles caller supplied internal and external result sets without touching either system.
func (h *Handler) Merge(c echo.Context) error {
	req, err := utils.BindRequest[models.MergeRequest](c)
	if err != nil {
		return err
	}

	outcome := h.merger.MergeResults(c.Request().Context(), req.Internal, req.External, merging.LabelsFromMap(req.Labels))
	outcome.Results = merging.EnrichResults(outcome.Results)

	return c.JSON(http.StatusOK, outcome)
}
