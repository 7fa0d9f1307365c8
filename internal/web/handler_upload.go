package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/beautytracker/internal/auth"
	"github.com/vbonduro/beautytracker/internal/photostore"
)

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniffing standard (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readImage reads the multipart "image" field, enforcing the upload limit
// and the accepted image formats.
func (s *Server) readImage(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	// Leave headroom for the multipart envelope around the file.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+64<<10)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, "", badRequest("image exceeds %d bytes", s.opts.MaxUploadBytes)
		}
		return nil, "", badRequest("failed to parse form")
	}
	// r may be a shallow copy made by middleware, so the server's own
	// cleanup never sees this form.
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			s.logger.Error("failed to remove multipart temp files", "error", err)
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		return nil, "", badRequest("image file required")
	}
	defer closeWithLog(file, "upload file", s.logger)

	if header.Size > s.opts.MaxUploadBytes {
		return nil, "", badRequest("image exceeds %d bytes", s.opts.MaxUploadBytes)
	}

	imageData, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		return nil, "", badRequest("unsupported image format")
	}
	return imageData, mimeType, nil
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	imageData, mimeType, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Catalog.UploadImage(r.Context(), auth.UserID(r.Context()), imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) handleIdentifyProduct(w http.ResponseWriter, r *http.Request) {
	imageData, mimeType, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.svc.Catalog.Identify(r.Context(), auth.UserID(r.Context()), imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, res)
}

func (s *Server) handleUploadUserProductPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	imageData, mimeType, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	up, err := s.svc.Inventory.UploadPhoto(r.Context(), auth.UserID(r.Context()), id, imageData, mimeType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, up)
}

// handleGetMedia serves stored photos by key.
func (s *Server) handleGetMedia(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	reader, mimeType, err := s.photoStore.Get(r.Context(), key)
	if err != nil {
		if !errors.Is(err, photostore.ErrNotFound) {
			s.logger.Error("get photo failed", "key", key, "error", err)
		}
		http.NotFound(w, r)
		return
	}
	defer closeWithLog(reader, "photo reader", s.logger)

	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "key", key, "error", err)
	}
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
