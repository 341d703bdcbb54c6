package imports

import (
	"context"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/importer"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/utils"
)

type Importer interface {
	Import(ctx context.Context, result models.MergedResult) (models.MergedResult, error)
}

// ValidationFailure is the 422 body returned when an import is blocked by invalid fields.
type ValidationFailure struct {
	Message string `json:"message"`
	models.ValidationResult
}

type Handler struct {
	importer Importer
}

func NewHandler(importer Importer) *Handler {
	return &Handler{importer: importer}
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Import)
	g.POST("/validate", h.Validate)
}

// Import creates an external-only result in the ODS and returns it marked as matched.
func (h *Handler) Import(c echo.Context) error {
	result, err := utils.BindRequest[models.MergedResult](c)
	if err != nil {
		return err
	}

	imported, err := h.importer.Import(c.Request().Context(), result)
	if err != nil {
		var verr *importer.ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusUnprocessableEntity, ValidationFailure{
				Message:          "validation failed",
				ValidationResult: verr.Result,
			})
		}
		return err
	}

	return c.JSON(http.StatusOK, imported)
}

// Validate reports whether data would pass import validation without creating anything.
func (h *Handler) Validate(c echo.Context) error {
	req, err := utils.BindRequest[models.ValidateRequest](c)
	if err != nil {
		return err
	}

	kind, ok := entity.ParseKind(req.EntityType)
	if !ok {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported entity type: %s", req.EntityType)
	}

	return c.JSON(http.StatusOK, importer.Validate(kind, req.Data))
}
