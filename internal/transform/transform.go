package transform

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/caselane/docforge/internal/models"
)

// ValidationError marks a submission the caller must fix; it is surfaced
// synchronously at submit time and never creates a job.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid submission: " + e.Reason
	}
	return fmt.Sprintf("invalid submission: field %q: %s", e.Field, e.Reason)
}

var partyKey = regexp.MustCompile(`^party-(\d+)-([a-z-]+)$`)

// Transform converts a flatly-keyed intake submission into the structured
// document handed to the render engine. It is pure: the same submission
// always yields the same document.
//
// party-N-* keys are grouped into party records ordered by N. Optional
// fields submitted as empty strings are dropped rather than carried as
// "". A party missing both name parts is rejected, as is a submission
// with fewer parties than the document type requires.
func Transform(raw models.RawSubmission, docType string) (*models.StructuredDocument, error) {
	if err := ValidatePayload(raw); err != nil {
		return nil, err
	}

	dt := models.LookupDocumentType(docType)

	doc := &models.StructuredDocument{
		DocumentType: dt.Tag,
		Matter: models.Matter{
			Title:        stringField(raw, "matter-title"),
			Number:       stringField(raw, "matter-number"),
			Jurisdiction: stringField(raw, "jurisdiction"),
		},
	}
	if doc.Matter.Title == "" {
		return nil, &ValidationError{Field: "matter-title", Reason: "required"}
	}

	parties, err := groupParties(raw)
	if err != nil {
		return nil, err
	}
	if len(parties) < dt.MinParties {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("document type %q requires at least %d party record(s), got %d",
				dt.Tag, dt.MinParties, len(parties)),
		}
	}
	doc.Parties = parties

	// Any remaining scalar fields ride along for free-form templates.
	extra := map[string]string{}
	for key, val := range raw {
		if key == "matter-title" || key == "matter-number" || key == "jurisdiction" {
			continue
		}
		if partyKey.MatchString(key) {
			continue
		}
		if s := scalarString(val); s != "" {
			extra[key] = s
		}
	}
	if len(extra) > 0 {
		doc.Extra = extra
	}

	return doc, nil
}

func groupParties(raw models.RawSubmission) ([]models.Party, error) {
	grouped := map[int]map[string]string{}
	for key, val := range raw {
		m := partyKey.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if grouped[idx] == nil {
			grouped[idx] = map[string]string{}
		}
		if s := scalarString(val); s != "" {
			grouped[idx][m[2]] = s
		}
	}

	indexes := make([]int, 0, len(grouped))
	for idx := range grouped {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	parties := make([]models.Party, 0, len(indexes))
	for _, idx := range indexes {
		fields := grouped[idx]
		p := models.Party{
			FirstName: fields["first-name"],
			LastName:  fields["last-name"],
			Role:      fields["role"],
			Email:     fields["email"],
			Phone:     fields["phone"],
		}
		if p.FirstName == "" && p.LastName == "" {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("party-%d", idx),
				Reason: "party record must carry a first or last name",
			}
		}
		addr := models.Address{
			Street:     fields["street"],
			City:       fields["city"],
			State:      fields["state"],
			PostalCode: fields["zip"],
		}
		if addr != (models.Address{}) {
			p.Address = &addr
		}
		parties = append(parties, p)
	}
	return parties, nil
}

func stringField(raw models.RawSubmission, key string) string {
	return scalarString(raw[key])
}

func scalarString(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
