// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder

	"tenantpress/internal/middleware"
	"tenantpress/internal/models"
	"tenantpress/internal/slug"
	"tenantpress/internal/storage"
	"tenantpress/internal/store"
)

const (
	// maxUploadSize is the maximum allowed file upload size (10 MB).
	maxUploadSize = 10 << 20

	// thumbMaxWidth is the maximum thumbnail width in pixels.
	thumbMaxWidth = 400

	// thumbQuality is the JPEG quality for generated thumbnails.
	thumbQuality = 80

	// maxImagePixels caps the number of pixels to prevent memory bombs.
	maxImagePixels = 100_000_000
)

// allowedUploadTypes defines MIME types accepted for site images.
var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// thumbableTypes are image types that support thumbnail generation.
// GIF is excluded to preserve animation.
var thumbableTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// Uploads handles tenant asset uploads to S3 storage.
type Uploads struct {
	storageClient *storage.Client
	mediaStore    *store.MediaStore
}

// NewUploads creates a new Uploads handler group. storageClient may be nil
// when S3 is not configured; uploads then return 503.
func NewUploads(storageClient *storage.Client, mediaStore *store.MediaStore) *Uploads {
	return &Uploads{storageClient: storageClient, mediaStore: mediaStore}
}

// Upload accepts a multipart image upload, stores the original and a
// thumbnail in S3 under the tenant's key prefix, records the asset, and
// returns the public URL for embedding in the site document.
func (u *Uploads) Upload(w http.ResponseWriter, r *http.Request) {
	if u.storageClient == nil {
		writeError(w, http.StatusServiceUnavailable, "storage not configured")
		return
	}

	id := middleware.IdentityFromCtx(r.Context())
	username := id.Username

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedUploadTypes[contentType] {
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file type")
		return
	}

	// Read the whole file; uploads are capped well below memory limits.
	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	filename := fmt.Sprintf("%d-%s", time.Now().UnixMilli(), slug.SafeFilename(header.Filename))
	key := storage.TenantKey(username, filename)

	ctx := r.Context()
	if err := u.storageClient.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		slog.Error("s3 upload failed", "key", key, "error", err)
		writeError(w, http.StatusBadGateway, "storage upload failed")
		return
	}

	// Thumbnail is best-effort; the original is already stored.
	var thumbKey *string
	if thumbableTypes[contentType] {
		thumb, err := generateThumbnail(bytes.NewReader(data), thumbMaxWidth)
		if err != nil {
			slog.Warn("thumbnail generation failed", "key", key, "error", err)
		} else if thumb != nil {
			tk := storage.TenantKey(username, "thumb-"+strings.TrimSuffix(filename, extOf(filename))+".jpg")
			if err := u.storageClient.Upload(ctx, tk, "image/jpeg", bytes.NewReader(thumb), int64(len(thumb))); err != nil {
				slog.Warn("thumbnail upload failed", "key", tk, "error", err)
			} else {
				thumbKey = &tk
			}
		}
	}

	url := u.storageClient.FileURL(key)

	if _, err := u.mediaStore.Create(&models.Media{
		Username:    username,
		Filename:    header.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		S3Key:       key,
		ThumbS3Key:  thumbKey,
		URL:         url,
	}); err != nil {
		slog.Error("record media failed", "key", key, "error", err)
		// The object is in S3 and usable; report success anyway.
	}

	writeJSON(w, http.StatusCreated, map[string]string{"url": url})
}

// List returns the authenticated tenant's uploaded assets.
func (u *Uploads) List(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())

	items, err := u.mediaStore.ListByUsername(id.Username, 100, 0)
	if err != nil {
		slog.Error("list media failed", "username", id.Username, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"media": items})
}

// Delete removes an uploaded asset and its stored objects. Only the owning
// tenant's assets are reachable; anything else is a 404.
func (u *Uploads) Delete(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFromCtx(r.Context())

	assetID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid asset id")
		return
	}

	deleted, err := u.mediaStore.Delete(assetID, id.Username)
	if err != nil {
		slog.Error("delete media failed", "id", assetID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if deleted == nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	// Object removal is best-effort; the record is already gone.
	if u.storageClient != nil {
		if err := u.storageClient.Delete(r.Context(), deleted.S3Key); err != nil {
			slog.Warn("s3 delete failed", "key", deleted.S3Key, "error", err)
		}
		if deleted.ThumbS3Key != nil {
			if err := u.storageClient.Delete(r.Context(), *deleted.ThumbS3Key); err != nil {
				slog.Warn("s3 delete failed", "key", *deleted.ThumbS3Key, "error", err)
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// generateThumbnail creates a JPEG thumbnail from an image, constrained
// to maxWidth while preserving aspect ratio. Returns nil if the image is
// already smaller than maxWidth.
func generateThumbnail(src io.ReadSeeker, maxWidth int) ([]byte, error) {
	// Decode config first to check dimensions without full decode.
	imgCfg, _, err := image.DecodeConfig(src)
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Check for image bombs.
	if int64(imgCfg.Width)*int64(imgCfg.Height) > maxImagePixels {
		return nil, fmt.Errorf("image too large: %dx%d exceeds %d pixels", imgCfg.Width, imgCfg.Height, maxImagePixels)
	}

	// Skip thumbnail if image is already small enough.
	if imgCfg.Width <= maxWidth {
		return nil, nil
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}

	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	// Calculate thumbnail dimensions preserving aspect ratio.
	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newWidth := maxWidth
	newHeight := int(float64(bounds.Dy()) * ratio)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}

	return buf.Bytes(), nil
}

// extOf returns the filename extension including the dot, or "".
func extOf(name string) string {
	if idx := strings.LastIndexByte(name, '.'); idx != -1 {
		return name[idx:]
	}
	return ""
}
