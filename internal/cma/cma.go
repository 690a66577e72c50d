// Package cma models comparative market analyses: the comparable set, its
// summary statistics, default naming and the attached brochure.
package cma

import (
	"path"
	"strings"
	"time"

	"github.com/yourorg/agentdesk-api/internal/criteria"
)

// CMA is one analysis as persisted by the store.
type CMA struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	NameMode  NameMode          `json:"nameMode"`
	Criteria  criteria.Criteria `json:"criteria"`
	Comparables
	Brochure  *Brochure `json:"brochure,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New starts a CMA. A nil name means auto-naming; any supplied name, even
// an empty one, latches the name as manual.
func New(c criteria.Criteria, name *string, n Namer) CMA {
	m := CMA{Criteria: c}
	if name != nil {
		m.Rename(*name)
	} else {
		m.Name = n.Generate(c)
	}
	return m
}

// Rename records a user edit. It latches NameManual permanently.
func (m *CMA) Rename(name string) {
	m.Name = strings.TrimSpace(name)
	m.NameMode = NameManual
}

// UpdateCriteria replaces the criteria and regenerates the name unless the
// user has taken it over.
func (m *CMA) UpdateCriteria(c criteria.Criteria, n Namer) {
	m.Criteria = c
	if m.NameMode == NameAuto {
		m.Name = n.Generate(c)
	}
}

type BrochureType string

const (
	BrochurePDF   BrochureType = "pdf"
	BrochureImage BrochureType = "image"
)

// Brochure describes the marketing document attached to a CMA.
type Brochure struct {
	Filename   string       `json:"filename"`
	URL        string       `json:"url"`
	Type       BrochureType `json:"type"`
	Generated  bool         `json:"generated"`
	UploadedAt time.Time    `json:"uploadedAt"`
}

// BrochureFilename derives the placeholder file name for a generated
// brochure from the CMA name.
func BrochureFilename(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		slug = "cma-brochure"
	}
	return slug + ".pdf"
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".heic": true}

// DetectBrochureType classifies an upload from its content type, falling back
// to the file extension. ok is false for anything but PDFs and images.
func DetectBrochureType(filename, contentType string) (BrochureType, bool) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	switch {
	case ct == "application/pdf":
		return BrochurePDF, true
	case strings.HasPrefix(ct, "image/"):
		return BrochureImage, true
	}
	ext := strings.ToLower(path.Ext(filename))
	if ext == ".pdf" {
		return BrochurePDF, true
	}
	if imageExts[ext] {
		return BrochureImage, true
	}
	return "", false
}
