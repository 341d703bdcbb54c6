package entity

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
)

type Loader interface {
	LoadEntityByID(ctx context.Context, id string) (entity.Entity, error)
}

type Handler struct {
	loader Loader
}

func NewHandler(loader Loader) *Handler {
	return &Handler{loader: loader}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("/:id", h.GetEntity)
}

// GetEntity loads a person or organisation from the ODS by id.
func (h *Handler) GetEntity(c echo.Context) error {
	id := c.Param("id")

	e, err := h.loader.LoadEntityByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if e == nil {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "entity %s not found", id)
	}

	return c.JSON(http.StatusOK, e)
}
