package providers

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/providers"
)

type Describer interface {
	Describe(ctx context.Context) []providers.Capabilities
	Get(systemName string) (providers.Provider, bool)
	Capabilities(ctx context.Context, p providers.Provider) (providers.Capabilities, error)
}

type Handler struct {
	registry Describer
}

func NewHandler(registry Describer) *Handler {
	return &Handler{registry: registry}
}

func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.ListProviders)
	g.GET("/:name", h.GetProvider)
}

// ListProviders lists the configured external systems and what each can search.
func (h *Handler) ListProviders(c echo.Context) error {
	return c.JSON(http.StatusOK, h.registry.Describe(c.Request().Context()))
}

// GetProvider reports one provider's capabilities. A provider whose discovery fails is a 502.
func (h *Handler) GetProvider(c echo.Context) error {
	name := c.Param("name")
	p, ok := h.registry.Get(name)
	if !ok {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "provider %s not found", name)
	}

	caps, err := h.registry.Capabilities(c.Request().Context(), p)
	if err != nil {
		return httperror.WrapError(http.StatusBadGateway, err)
	}
	return c.JSON(http.StatusOK, caps)
}
