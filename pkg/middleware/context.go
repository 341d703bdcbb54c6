package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/context"
)

const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderUserID   = "X-User-ID"
	// HeaderSearchID lets a caller correlate a follow-up import with the search that surfaced the record
	HeaderSearchID = "X-Search-ID"
)

// Context copies request identity headers onto the request context and echoes the request id back.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetTenantID(ctx, req.Header.Get(HeaderTenantID))
			ctx = context.SetUserID(ctx, req.Header.Get(HeaderUserID))
			if searchID := req.Header.Get(HeaderSearchID); searchID != "" {
				ctx = context.SetSearchID(ctx, searchID)
			}

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
