// Package providers queries external practice management systems and tracks what each can search.
package providers

import (
	"context"

	"github.com/Gobusters/ectolinq"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

// Capabilities describes which entity kinds a provider can search.
type Capabilities struct {
	SystemName  string        `json:"systemName"`
	DisplayName string        `json:"displayName"`
	Kinds       []entity.Kind `json:"kinds"`
	MaxPageSize int           `json:"maxPageSize,omitempty"`
}

func (c Capabilities) Supports(kind entity.Kind) bool {
	return ectolinq.Contains(c.Kinds, kind)
}

// Query is one page request for a single entity kind.
type Query struct {
	Query    string
	Kind     entity.Kind
	Page     int
	PageSize int
}

type Provider interface {
	SystemName() string
	Capabilities(ctx context.Context) (Capabilities, error)
	Search(ctx context.Context, q Query) (models.ResultSet, error)
}
