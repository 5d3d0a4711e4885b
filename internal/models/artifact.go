package models

// Artifact describes a rendered document and where it has been stored.
// The local staging copy always exists; Destinations lists only the
// secondary uploads that succeeded.
type Artifact struct {
	FileName     string              `json:"fileName" firestore:"fileName"`
	LocalPath    string              `json:"localPath" firestore:"localPath"`
	ContentType  string              `json:"contentType" firestore:"contentType"`
	Size         int64               `json:"size" firestore:"size"`
	Pages        int                 `json:"pages,omitempty" firestore:"pages"`
	Destinations []DestinationRecord `json:"destinations" firestore:"destinations"`
	Warnings     []string            `json:"warnings,omitempty" firestore:"warnings"`
}

// DestinationRecord is appended for each successful secondary upload and
// never mutated afterwards.
type DestinationRecord struct {
	Name       string `json:"name" firestore:"name"`
	RemotePath string `json:"remotePath" firestore:"remotePath"`
	Link       string `json:"link,omitempty" firestore:"link"`
	UploadedAt string `json:"uploadedAt" firestore:"uploadedAt"`
}

// Meta returns the projection exposed on status responses, without local
// filesystem details.
func (a *Artifact) Meta() map[string]any {
	m := map[string]any{
		"fileName":     a.FileName,
		"size":         a.Size,
		"contentType":  a.ContentType,
		"destinations": a.Destinations,
	}
	if a.Pages > 0 {
		m["pages"] = a.Pages
	}
	if len(a.Warnings) > 0 {
		m["warnings"] = a.Warnings
	}
	return m
}

func (a *Artifact) Clone() *Artifact {
	c := *a
	c.Destinations = append([]DestinationRecord(nil), a.Destinations...)
	c.Warnings = append([]string(nil), a.Warnings...)
	return &c
}
