package merging

import (
	"strings"

	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/entity"
	"github.com/Alterspective-Engine/UnifiedDataSearch/pkg/models"
)

// EnrichResults adds the display-only fields. Identity, source and conflicts are left as they are.
func EnrichResults(results []models.MergedResult) []models.MergedResult {
	enriched := make([]models.MergedResult, len(results))
	for i, r := range results {
		data := r.Data
		if data == nil {
			data = r.PmsData
		}
		if data == nil {
			data = entity.Entity{}
		}

		r.PrimaryEmail = data.String("email")
		r.PrimaryPhone = data.String("phone")

		parts := make([]string, 0, 3)
		for _, field := range []string{"address", "suburb", "postcode"} {
			if v := data.String(field); v != "" {
				parts = append(parts, v)
			}
		}
		r.FormattedAddress = strings.Join(parts, ", ")
		r.SourceClass = sourceClass(r.Source)

		enriched[i] = r
	}
	return enriched
}

func sourceClass(source models.Source) string {
	switch source {
	case models.SourceShareDo:
		return "badge-primary"
	case models.SourcePMS, models.SourceExternal:
		return "badge-info"
	case models.SourceMatched:
		return "badge-success"
	}
	return "badge-default"
}
