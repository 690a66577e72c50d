package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/agentdesk-api/internal/cma"
	"github.com/yourorg/agentdesk-api/internal/uploads"
)

// BrochureRequest records a brochure the client already uploaded through its
// own presigned URL.
type BrochureRequest struct {
	Filename string           `json:"filename" validate:"required"`
	URL      string           `json:"url" validate:"required,url"`
	Type     cma.BrochureType `json:"type" validate:"omitempty,oneof=pdf image"`
}

// uploadBrochure accepts either a JSON metadata body or a multipart file. A
// file is stored first and only then recorded, so a failed upload leaves the
// CMA untouched and the client starts over.
func (d CMADeps) uploadBrochure(w http.ResponseWriter, req *http.Request) {
	if ct, _, _ := mime.ParseMediaType(req.Header.Get("Content-Type")); ct == "application/json" {
		d.recordBrochure(w, req)
		return
	}
	if d.Uploader == nil || !d.Uploader.Configured() {
		fail(w, req, http.StatusServiceUnavailable, "uploads_unavailable", uploads.ErrNotConfigured.Error())
		return
	}
	ctx := req.Context()
	id := chi.URLParam(req, "id")
	m, err := d.Store.Get(ctx, id)
	if err != nil {
		d.storeError(w, req, err)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, uploads.MaxSize+(1<<20))
	if err := req.ParseMultipartForm(8 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			fail(w, req, http.StatusRequestEntityTooLarge, "file_too_large", uploads.ErrTooLarge.Error())
			return
		}
		fail(w, req, http.StatusBadRequest, "invalid_multipart", err.Error())
		return
	}
	defer req.MultipartForm.RemoveAll()
	file, hdr, err := req.FormFile("file")
	if err != nil {
		fail(w, req, http.StatusBadRequest, "file_required", err.Error())
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, uploads.MaxSize+1))
	if err != nil {
		fail(w, req, http.StatusBadRequest, "invalid_multipart", err.Error())
		return
	}

	b, err := d.Uploader.Upload(ctx, m.ID, hdr.Filename, hdr.Header.Get("Content-Type"), data)
	switch {
	case errors.Is(err, uploads.ErrUnsupportedType):
		fail(w, req, http.StatusUnsupportedMediaType, "unsupported_type", err.Error())
		return
	case errors.Is(err, uploads.ErrTooLarge):
		fail(w, req, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
		return
	case errors.Is(err, uploads.ErrEmpty):
		fail(w, req, http.StatusBadRequest, "file_required", err.Error())
		return
	case err != nil:
		logrus.WithError(err).WithField("cma", m.ID).Warn("brochure upload failed")
		fail(w, req, http.StatusBadGateway, "upload_failed", err.Error())
		return
	}

	m.Brochure = &b
	if err := d.Store.Update(ctx, &m); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"cma": m.ID, "url": b.URL}).Warn("brochure uploaded but not recorded")
		d.storeError(w, req, err)
		return
	}
	d.publish(ctx, m, "brochure_uploaded")
	d.respond(w, req, m, map[string]any{"brochure": m.Brochure})
}

func (d CMADeps) recordBrochure(w http.ResponseWriter, req *http.Request) {
	var body BrochureRequest
	if !decodeJSON(w, req, &body) {
		return
	}
	kind := body.Type
	if kind == "" {
		var ok bool
		if kind, ok = cma.DetectBrochureType(body.Filename, ""); !ok {
			fail(w, req, http.StatusUnsupportedMediaType, "unsupported_type", uploads.ErrUnsupportedType.Error())
			return
		}
	}
	d.mutate(w, req, "brochure_uploaded", func(m *cma.CMA) (bool, map[string]any) {
		m.Brochure = &cma.Brochure{
			Filename:   body.Filename,
			URL:        body.URL,
			Type:       kind,
			UploadedAt: time.Now().UTC(),
		}
		return true, map[string]any{"brochure": m.Brochure}
	})
}
