package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"tournament-admin/internal/category"
	"tournament-admin/internal/database"
	"tournament-admin/internal/images"
	"tournament-admin/internal/logging"
	"tournament-admin/internal/metrics"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ListImages returns a filtered page of catalog images.
func (h *Handlers) ListImages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filters := database.QueryFilters{
		Category:     q.Get("category"),
		ActiveOnly:   q.Get("active") == "true",
		ApprovedOnly: q.Get("approved") == "true",
		SearchTerm:   strings.TrimSpace(q.Get("search")),
	}

	if filters.Category != "" && !category.IsKnown(filters.Category) {
		writeJSONError(w, "Unknown category: "+filters.Category, http.StatusBadRequest)
		return
	}

	limit := parsePositiveInt(q.Get("limit"), defaultPageSize)
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := parsePositiveInt(q.Get("offset"), 0)

	imgs, err := h.db.Query(r.Context(), filters, limit, offset)
	if err != nil {
		logging.Error("Failed to list images: %v", err)
		writeJSONError(w, "Failed to list images", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"images": imgs,
		"count":  len(imgs),
		"limit":  limit,
		"offset": offset,
	})
}

// GetImage returns one catalog image.
func (h *Handlers) GetImage(w http.ResponseWriter, r *http.Request) {
	id, ok := imageID(w, r)
	if !ok {
		return
	}

	img, err := h.db.GetByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Failed to fetch image")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, img)
}

// UploadImage ingests a multipart upload: validate, process, store the
// artifacts, then insert the catalog row. New rows start active and
// unapproved.
func (h *Handlers) UploadImage(w http.ResponseWriter, r *http.Request) {
	// One extra MiB covers the multipart framing and form fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.Upload.MaxBytes+1<<20)
	if err := r.ParseMultipartForm(h.cfg.Upload.MaxBytes + 1<<20); err != nil {
		metrics.UploadsTotal.WithLabelValues("validation_failed").Inc()
		writeJSONError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}

	cat := r.FormValue("category")
	if !category.IsKnown(cat) {
		metrics.UploadsTotal.WithLabelValues("validation_failed").Inc()
		writeJSONError(w, "Unknown category: "+cat, http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("validation_failed").Inc()
		writeJSONError(w, "Missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := h.pipeline.Validate(file, header.Size, header.Filename); err != nil {
		metrics.UploadsTotal.WithLabelValues("validation_failed").Inc()
		var verr *images.ValidationError
		if errors.As(err, &verr) {
			metrics.UploadValidationFailures.WithLabelValues(string(verr.Kind)).Inc()
			writeJSONError(w, verr.Message, http.StatusBadRequest)
			return
		}
		writeJSONError(w, "Invalid image", http.StatusBadRequest)
		return
	}

	optimize := r.FormValue("optimize") != "false"
	processed, err := h.pipeline.Process(file, header.Filename, cat, optimize)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("processing_failed").Inc()
		logging.Error("Upload processing failed for %s: %v", header.Filename, err)
		writeJSONError(w, "Failed to process image", http.StatusInternalServerError)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = header.Filename
	}

	rec := database.NewImageRecord{
		Category:     cat,
		ImageURL:     &processed.ImageURL,
		ThumbnailURL: &processed.ThumbnailURL,
		Title:        title,
		Description:  strings.TrimSpace(r.FormValue("description")),
		Tags:         parseTags(r.FormValue("tags")),
		Active:       true,
		Approved:     false,
		FileSize:     processed.FileSize,
		ImageWidth:   processed.Width,
		ImageHeight:  processed.Height,
		MimeType:     processed.MimeType,
	}

	id, err := h.db.Insert(r.Context(), rec)
	if err != nil {
		metrics.UploadsTotal.WithLabelValues("storage_failed").Inc()
		// The written artifacts are orphaned here; a cleanup sweep can
		// reconcile them against the catalog later.
		logging.Error("Failed to store upload %s: %v", processed.Filename, err)
		writeJSONError(w, "Failed to store image", http.StatusInternalServerError)
		return
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	logging.Info("Image %d uploaded to %s by %s", id, cat, sessionFrom(r).Username)

	img, err := h.db.GetByID(r.Context(), id)
	if err != nil {
		// Insert succeeded; fall back to the minimal response.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, map[string]interface{}{"id": id})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, img)
}

// UpdateImageRequest carries a partial image update. Absent fields are
// left untouched.
type UpdateImageRequest struct {
	Category    *string   `json:"category,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Tags        *[]string `json:"tags,omitempty"`
	Active      *bool     `json:"active,omitempty"`
	Approved    *bool     `json:"approved,omitempty"`
}

// UpdateImage applies a partial update to one image.
func (h *Handlers) UpdateImage(w http.ResponseWriter, r *http.Request) {
	id, ok := imageID(w, r)
	if !ok {
		return
	}

	var req UpdateImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Category != nil && !category.IsKnown(*req.Category) {
		writeJSONError(w, "Unknown category: "+*req.Category, http.StatusBadRequest)
		return
	}
	if req.Category == nil && req.Title == nil && req.Description == nil &&
		req.Tags == nil && req.Active == nil && req.Approved == nil {
		writeJSONError(w, "No fields to update", http.StatusBadRequest)
		return
	}

	update := database.ImageUpdate{
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		Active:      req.Active,
		Approved:    req.Approved,
	}
	if req.Approved != nil && *req.Approved {
		username := sessionFrom(r).Username
		update.ApprovedBy = &username
	}

	if err := h.db.Update(r.Context(), id, update); err != nil {
		respondStoreError(w, err, "Failed to update image")
		return
	}

	img, err := h.db.GetByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Failed to fetch image")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, img)
}

// ApproveImage marks one image approved, stamping the reviewer.
func (h *Handlers) ApproveImage(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, true)
}

// RejectImage clears the approval flag.
func (h *Handlers) RejectImage(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, false)
}

func (h *Handlers) setApproval(w http.ResponseWriter, r *http.Request, approved bool) {
	id, ok := imageID(w, r)
	if !ok {
		return
	}

	username := sessionFrom(r).Username
	if err := h.db.SetApproval(r.Context(), id, approved, username); err != nil {
		respondStoreError(w, err, "Failed to set approval")
		return
	}

	if approved {
		logging.Info("Image %d approved by %s", id, username)
	} else {
		logging.Info("Image %d rejected by %s", id, username)
	}
	writeJSONStatus(w, "ok")
}

// DeleteImage deactivates an image. With ?hard=true the row and its
// stored artifacts are removed permanently.
func (h *Handlers) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := imageID(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("hard") != "true" {
		if err := h.db.SoftDelete(r.Context(), id); err != nil {
			respondStoreError(w, err, "Failed to delete image")
			return
		}
		logging.Info("Image %d deactivated by %s", id, sessionFrom(r).Username)
		writeJSONStatus(w, "deactivated")
		return
	}

	img, err := h.db.GetByID(r.Context(), id)
	if err != nil {
		respondStoreError(w, err, "Failed to delete image")
		return
	}

	if err := h.db.HardDelete(r.Context(), id); err != nil {
		respondStoreError(w, err, "Failed to delete image")
		return
	}

	var imageURL, thumbnailURL string
	if img.ImageURL != nil {
		imageURL = *img.ImageURL
	}
	if img.ThumbnailURL != nil {
		thumbnailURL = *img.ThumbnailURL
	}
	h.pipeline.DeleteArtifacts(imageURL, thumbnailURL)

	logging.Info("Image %d permanently deleted by %s", id, sessionFrom(r).Username)
	writeJSONStatus(w, "deleted")
}

// BulkApprovalRequest flips approval for a set of image IDs.
type BulkApprovalRequest struct {
	IDs      []int64 `json:"ids"`
	Approved bool    `json:"approved"`
}

// BulkApproval applies one approval decision to many images at once.
func (h *Handlers) BulkApproval(w http.ResponseWriter, r *http.Request) {
	var req BulkApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		writeJSONError(w, "No image IDs given", http.StatusBadRequest)
		return
	}

	username := sessionFrom(r).Username
	if err := h.db.BulkSetApproval(r.Context(), req.IDs, req.Approved, username); err != nil {
		logging.Error("Bulk approval failed: %v", err)
		writeJSONError(w, "Failed to update images", http.StatusInternalServerError)
		return
	}

	logging.Info("Bulk approval (%v) of %d images by %s", req.Approved, len(req.IDs), username)
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"applied": len(req.IDs),
	})
}

// BulkActiveRequest flips visibility for a set of image IDs.
type BulkActiveRequest struct {
	IDs    []int64 `json:"ids"`
	Active bool    `json:"active"`
}

// BulkActive flips the active flag row by row. On failure the rows
// already updated stay updated; the response reports how many applied.
func (h *Handlers) BulkActive(w http.ResponseWriter, r *http.Request) {
	var req BulkActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.IDs) == 0 {
		writeJSONError(w, "No image IDs given", http.StatusBadRequest)
		return
	}

	applied, err := h.db.BulkSetActive(r.Context(), req.IDs, req.Active)
	if err != nil {
		logging.Error("Bulk active stopped after %d of %d: %v", applied, len(req.IDs), err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{
			"error":   "Failed to update all images",
			"applied": applied,
			"total":   len(req.IDs),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"status":  "ok",
		"applied": applied,
	})
}

// imageID parses the {id} route variable, writing a 400 on failure.
func imageID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, "Invalid image ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func respondStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, database.ErrNotFound) {
		writeJSONError(w, "Image not found", http.StatusNotFound)
		return
	}
	logging.Error("%s: %v", message, err)
	writeJSONError(w, message, http.StatusInternalServerError)
}

func parsePositiveInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

// parseTags splits a comma-separated tag list, dropping empties.
func parseTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	if tags == nil {
		return []string{}
	}
	return tags
}
