package generation

import (
	"strings"

	"github.com/brandwell/contentforge/internal/interfaces"
	"github.com/brandwell/contentforge/internal/models"
)

// HeuristicAreaInferer derives template text areas from the template type
// and name. It is the default interfaces.TextAreaInferer; tenants with
// structured template metadata can supply their own.
type HeuristicAreaInferer struct{}

// NewHeuristicAreaInferer creates the default area inferer
func NewHeuristicAreaInferer() *HeuristicAreaInferer {
	return &HeuristicAreaInferer{}
}

// InferAreas returns the named text slots a template of this shape carries
func (h *HeuristicAreaInferer) InferAreas(template models.Template) []models.TemplateTextArea {
	var areas []models.TemplateTextArea

	switch template.Type {
	case models.TemplateTypePromotion:
		areas = []models.TemplateTextArea{
			{ID: "headline", Label: "Headline", MaxCharacters: 60},
			{ID: "offer", Label: "Offer", MaxCharacters: 40},
			{ID: "cta", Label: "Call to action", MaxCharacters: 25},
		}
	case models.TemplateTypeAnnouncement:
		areas = []models.TemplateTextArea{
			{ID: "headline", Label: "Headline", MaxCharacters: 70},
			{ID: "body", Label: "Body", MaxCharacters: 140},
		}
	case models.TemplateTypeQuote:
		areas = []models.TemplateTextArea{
			{ID: "quote", Label: "Quote", MaxCharacters: 180},
			{ID: "attribution", Label: "Attribution", MaxCharacters: 40},
		}
	default:
		areas = []models.TemplateTextArea{
			{ID: "headline", Label: "Headline", MaxCharacters: 80},
			{ID: "subtext", Label: "Subtext", MaxCharacters: 120},
		}
	}

	// Templates named for a promo carry a discount label slot even when
	// typed as something else.
	name := strings.ToLower(template.Name)
	if template.Type != models.TemplateTypePromotion &&
		(strings.Contains(name, "promo") || strings.Contains(name, "sale") || strings.Contains(name, "discount")) {
		areas = append(areas, models.TemplateTextArea{ID: "discount", Label: "Discount label", MaxCharacters: 20})
	}

	return areas
}

var _ interfaces.TextAreaInferer = (*HeuristicAreaInferer)(nil)

// truncateWithEllipsis hard-caps area text at max runes, replacing the tail
// with a single ellipsis character when trimming was needed.
func truncateWithEllipsis(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max < 1 {
		return ""
	}
	return string(runes[:max-1]) + "…"
}
