package planfile

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/brandwell/contentforge/internal/models"
)

// Plan is a campaign content plan loaded from a YAML file. It bundles the
// plan items with the brand guideline and any assets and templates the
// items reference.
type Plan struct {
	CampaignID string                   `yaml:"campaign_id" validate:"required"`
	Brand      models.BrandGuideline    `yaml:"brand"`
	Assets     []models.MediaAsset      `yaml:"assets"`
	Templates  []models.Template        `yaml:"templates"`
	Items      []models.ContentPlanItem `yaml:"items" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Load reads and validates a campaign plan file
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data)
}

// Parse validates plan YAML. Items missing a campaign ID inherit the plan's.
func Parse(data []byte) (*Plan, error) {
	var plan Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to parse plan file: %w", err)
	}

	for i := range plan.Items {
		if plan.Items[i].CampaignID == "" {
			plan.Items[i].CampaignID = plan.CampaignID
		}
	}

	if err := validate.Struct(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}

	if err := plan.check(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// check enforces semantic rules struct tags cannot express
func (p *Plan) check() error {
	assetIDs := make(map[string]bool, len(p.Assets))
	for _, asset := range p.Assets {
		if asset.ID == "" {
			return fmt.Errorf("plan asset missing id")
		}
		assetIDs[asset.ID] = true
	}
	templateIDs := make(map[string]bool, len(p.Templates))
	for _, template := range p.Templates {
		if template.ID == "" {
			return fmt.Errorf("plan template missing id")
		}
		templateIDs[template.ID] = true
	}

	seen := make(map[string]bool, len(p.Items))
	for _, item := range p.Items {
		if seen[item.ID] {
			return fmt.Errorf("duplicate plan item id: %s", item.ID)
		}
		seen[item.ID] = true

		if item.CampaignID != p.CampaignID {
			return fmt.Errorf("item %s belongs to campaign %s, plan is for %s", item.ID, item.CampaignID, p.CampaignID)
		}
		if err := item.Validate(); err != nil {
			return err
		}

		// References must resolve within the plan when the plan carries
		// its own assets and templates.
		if item.TemplateID != "" && len(p.Templates) > 0 && !templateIDs[item.TemplateID] {
			return fmt.Errorf("item %s references unknown template %s", item.ID, item.TemplateID)
		}
		if len(p.Assets) > 0 {
			for _, assetID := range item.AssetIDs {
				if !assetIDs[assetID] {
					return fmt.Errorf("item %s references unknown asset %s", item.ID, assetID)
				}
			}
		}
	}
	return nil
}
