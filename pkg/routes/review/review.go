package review

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"

	appctx "github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/utils"
)

type Store interface {
	List(ctx context.Context, tenantID string, status models.ReviewStatus, limit int) ([]models.MatchReview, error)
	Get(ctx context.Context, tenantID, id string) (*models.MatchReview, error)
	Resolve(ctx context.Context, tenantID, id, resolution, resolvedBy string) (*models.MatchReview, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Register registers the ambiguous match review routes
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.ListReviews)
	g.GET("/:id", h.GetReview)
	g.POST("/:id/resolve", h.ResolveReview)
}

// ListReviews lists reviews for the tenant. status defaults to pending; "all" lists every review.
func (h *Handler) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()

	status := models.ReviewStatus(c.QueryParam("status"))
	switch status {
	case "":
		status = models.ReviewStatusPending
	case "all":
		status = ""
	case models.ReviewStatusPending, models.ReviewStatusResolved:
	default:
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "unsupported review status: %s", status)
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a number")
		}
		limit = n
	}

	reviews, err := h.store.List(ctx, appctx.GetTenantID(ctx), status, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reviews)
}

func (h *Handler) GetReview(c echo.Context) error {
	ctx := c.Request().Context()

	review, err := h.store.Get(ctx, appctx.GetTenantID(ctx), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, review)
}

// ResolveReview records whether the reference match, the key match or neither was correct.
func (h *Handler) ResolveReview(c echo.Context) error {
	ctx := c.Request().Context()

	req, err := utils.BindRequest[models.ResolveReviewRequest](c)
	if err != nil {
		return err
	}

	review, err := h.store.Resolve(ctx, appctx.GetTenantID(ctx), c.Param("id"), req.Resolution, appctx.GetUserID(ctx))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, review)
}
