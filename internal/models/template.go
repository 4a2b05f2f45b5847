package models

// TemplateType categorizes overlay templates
type TemplateType string

const (
	TemplateTypeStandard     TemplateType = "standard"
	TemplateTypePromotion    TemplateType = "promotion"
	TemplateTypeAnnouncement TemplateType = "announcement"
	TemplateTypeQuote        TemplateType = "quote"
)

// Template is an overlay definition used by the text+template strategy
type Template struct {
	ID     string       `json:"id" yaml:"id"`
	Name   string       `json:"name" yaml:"name"`
	Type   TemplateType `json:"type" yaml:"type"`
	Width  int          `json:"width" yaml:"width"`
	Height int          `json:"height" yaml:"height"`
}

// TemplateTextArea is one named text slot on a template.
// Area texts above MaxCharacters are hard-truncated with an ellipsis.
type TemplateTextArea struct {
	ID            string `json:"id"`
	Label         string `json:"label"`
	MaxCharacters int    `json:"max_characters"`
}
