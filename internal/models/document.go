package models

// RawSubmission is the flatly-keyed intake form as received from the
// form layer: field name to scalar value, insertion order irrelevant.
type RawSubmission map[string]any

// StructuredDocument is the normalized form data handed to the render
// engine. It is built once per job and never mutated afterwards.
type StructuredDocument struct {
	DocumentType string            `json:"documentType"`
	Matter       Matter            `json:"matter"`
	Parties      []Party           `json:"parties"`
	Extra        map[string]string `json:"extra,omitempty"`
}

type Matter struct {
	Title        string `json:"title"`
	Number       string `json:"number,omitempty"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
}

// Party is one ordered party record grouped from party-N-* form fields.
// Optional fields are absent rather than empty strings.
type Party struct {
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Role      string   `json:"role,omitempty"`
	Email     string   `json:"email,omitempty"`
	Phone     string   `json:"phone,omitempty"`
	Address   *Address `json:"address,omitempty"`
}

type Address struct {
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// FullName joins the party's name parts for display and staging names.
func (p *Party) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
