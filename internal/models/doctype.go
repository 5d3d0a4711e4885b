package models

// DocumentType describes one supported intake document type: the render
// template it maps to and how many parties the form must carry.
type DocumentType struct {
	Tag        string
	TemplateID string
	MinParties int
}

// The tag -> template table is a static, explicit enumeration. Unknown
// tags resolve to the default type rather than erroring; callers that
// care can compare the returned Tag against their input.
var documentTypes = map[string]DocumentType{
	"engagement-letter": {
		Tag:        "engagement-letter",
		TemplateID: "tmpl-engagement-letter-v2",
		MinParties: 1,
	},
	"retainer-agreement": {
		Tag:        "retainer-agreement",
		TemplateID: "tmpl-retainer-agreement-v3",
		MinParties: 2,
	},
	"power-of-attorney": {
		Tag:        "power-of-attorney",
		TemplateID: "tmpl-poa-v1",
		MinParties: 2,
	},
	"demand-letter": {
		Tag:        "demand-letter",
		TemplateID: "tmpl-demand-letter-v1",
		MinParties: 1,
	},
	"intake-summary": {
		Tag:        "intake-summary",
		TemplateID: "tmpl-intake-summary-legacy",
		MinParties: 0,
	},
}

var defaultDocumentType = documentTypes["intake-summary"]

// LookupDocumentType maps a caller-supplied tag to its document type,
// falling back to the default for unknown or empty tags.
func LookupDocumentType(tag string) DocumentType {
	if dt, ok := documentTypes[tag]; ok {
		return dt
	}
	return defaultDocumentType
}
