package search

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/utils"
)

type Searcher interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

type Handler struct {
	searcher Searcher
}

func NewHandler(searcher Searcher) *Handler {
	return &Handler{searcher: searcher}
}

// Register registers the unified search route
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.Search)
	g.GET("", h.Search)
}

// Search runs a unified ODS + PMS search. GET accepts the same fields as query parameters.
func (h *Handler) Search(c echo.Context) error {
	req, err := utils.BindRequest[models.SearchRequest](c)
	if err != nil {
		return err
	}

	resp, err := h.searcher.Search(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, resp)
}
