package handlers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"tournament-admin/internal/auth"
	"tournament-admin/internal/database"
	"tournament-admin/internal/images"
	"tournament-admin/internal/startup"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	images map[int64]*database.TournamentImage
	nextID int64

	// failOn forces an error from the named operation.
	failOn string

	// bulkActiveFailAt aborts BulkSetActive before this 1-based index.
	bulkActiveFailAt int

	pingErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		images: make(map[int64]*database.TournamentImage),
		nextID: 1,
	}
}

var errFake = errors.New("store failure")

func (f *fakeStore) Insert(_ context.Context, rec database.NewImageRecord) (int64, error) {
	if f.failOn == "insert" {
		return 0, errFake
	}
	id := f.nextID
	f.nextID++
	f.images[id] = &database.TournamentImage{
		ID:           id,
		Category:     rec.Category,
		ImageURL:     rec.ImageURL,
		ThumbnailURL: rec.ThumbnailURL,
		Title:        rec.Title,
		Description:  rec.Description,
		Tags:         rec.Tags,
		Active:       rec.Active,
		Approved:     rec.Approved,
		FileSize:     rec.FileSize,
		ImageWidth:   rec.ImageWidth,
		ImageHeight:  rec.ImageHeight,
		MimeType:     rec.MimeType,
		UploadDate:   time.Now(),
		UpdatedAt:    time.Now(),
	}
	return id, nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*database.TournamentImage, error) {
	img, ok := f.images[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *img
	return &copied, nil
}

func (f *fakeStore) Query(_ context.Context, filters database.QueryFilters, limit, offset int) ([]database.TournamentImage, error) {
	if f.failOn == "query" {
		return nil, errFake
	}
	var out []database.TournamentImage
	for _, img := range f.images {
		if filters.Category != "" && img.Category != filters.Category {
			continue
		}
		if filters.ActiveOnly && !img.Active {
			continue
		}
		if filters.ApprovedOnly && !img.Approved {
			continue
		}
		out = append(out, *img)
	}
	if out == nil {
		out = []database.TournamentImage{}
	}
	return out, nil
}

func (f *fakeStore) Update(_ context.Context, id int64, u database.ImageUpdate) error {
	img, ok := f.images[id]
	if !ok {
		return database.ErrNotFound
	}
	if u.Title != nil {
		img.Title = *u.Title
	}
	if u.Description != nil {
		img.Description = *u.Description
	}
	if u.Category != nil {
		img.Category = *u.Category
	}
	if u.Tags != nil {
		img.Tags = *u.Tags
	}
	if u.Active != nil {
		img.Active = *u.Active
	}
	if u.Approved != nil {
		img.Approved = *u.Approved
		if *u.Approved && u.ApprovedBy != nil {
			img.ApprovedBy = u.ApprovedBy
			now := time.Now()
			img.ApprovedAt = &now
		}
	}
	return nil
}

func (f *fakeStore) SetApproval(_ context.Context, id int64, approved bool, approvedBy string) error {
	img, ok := f.images[id]
	if !ok {
		return database.ErrNotFound
	}
	img.Approved = approved
	if approved {
		img.ApprovedBy = &approvedBy
		now := time.Now()
		img.ApprovedAt = &now
	}
	return nil
}

func (f *fakeStore) BulkSetApproval(ctx context.Context, ids []int64, approved bool, approvedBy string) error {
	if f.failOn == "bulk_approval" {
		return errFake
	}
	for _, id := range ids {
		if _, ok := f.images[id]; ok {
			_ = f.SetApproval(ctx, id, approved, approvedBy)
		}
	}
	return nil
}

func (f *fakeStore) BulkSetActive(_ context.Context, ids []int64, active bool) (int, error) {
	applied := 0
	for i, id := range ids {
		if f.bulkActiveFailAt > 0 && i+1 == f.bulkActiveFailAt {
			return applied, errFake
		}
		if img, ok := f.images[id]; ok {
			img.Active = active
		}
		applied++
	}
	return applied, nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id int64) error {
	img, ok := f.images[id]
	if !ok {
		return database.ErrNotFound
	}
	img.Active = false
	return nil
}

func (f *fakeStore) HardDelete(_ context.Context, id int64) error {
	if _, ok := f.images[id]; !ok {
		return database.ErrNotFound
	}
	delete(f.images, id)
	return nil
}

func (f *fakeStore) CategoryAggregates(_ context.Context) (map[string]database.CategoryStat, error) {
	if f.failOn == "category_stats" {
		return nil, errFake
	}
	stats := make(map[string]database.CategoryStat)
	for _, img := range f.images {
		s := stats[img.Category]
		s.TotalImages++
		if img.Active {
			s.ActiveImages++
		}
		if img.Approved {
			s.ApprovedImages++
		}
		stats[img.Category] = s
	}
	return stats, nil
}

func (f *fakeStore) GetDashboardStats(_ context.Context) (*database.DashboardStats, error) {
	if f.failOn == "dashboard_stats" {
		return nil, errFake
	}
	var s database.DashboardStats
	categories := make(map[string]bool)
	for _, img := range f.images {
		s.TotalImages++
		if img.Active {
			s.ActiveImages++
		}
		if img.Approved {
			s.ApprovedImages++
		}
		if img.Active && !img.Approved {
			s.PendingApproval++
		}
		categories[img.Category] = true
	}
	s.CategoriesCount = int64(len(categories))
	return &s, nil
}

func (f *fakeStore) Ping(_ context.Context) error {
	return f.pingErr
}

// testEnv bundles the handler under test with its collaborators.
type testEnv struct {
	h     *Handlers
	store *fakeStore
	cfg   *startup.Config
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &startup.Config{
		Upload: startup.UploadConfig{
			MaxBytes:          5 * 1024 * 1024,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
			MinWidth:          200,
			MinHeight:         200,
			MaxWidth:          2048,
			MaxHeight:         2048,
			ThumbnailSize:     150,
			Quality:           85,
		},
		SessionTimeout:    time.Hour,
		AdminPassword:     "admin-secret",
		ModeratorPassword: "mod-secret",
		UploadBaseDir:     t.TempDir(),
	}
	cfg.ImagesDir = cfg.UploadBaseDir + "/tournament-images"
	cfg.ThumbnailsDir = cfg.ImagesDir + "/thumbnails"
	if err := os.MkdirAll(cfg.ThumbnailsDir, 0o755); err != nil {
		t.Fatalf("failed to create upload dirs: %v", err)
	}

	store := newFakeStore()
	h := New(store, auth.NewManager(cfg), images.NewPipeline(cfg), cfg)
	return &testEnv{h: h, store: store, cfg: cfg}
}

// loginAs authenticates against the in-memory manager and returns the
// session cookie.
func (e *testEnv) loginAs(t *testing.T, username, password string) *http.Cookie {
	t.Helper()
	session, err := e.h.auth.Authenticate(username, password)
	if err != nil {
		t.Fatalf("failed to authenticate as %s: %v", username, err)
	}
	return &http.Cookie{Name: SessionCookieName, Value: session.Token}
}

// multipartUpload builds a multipart body with an encoded JPEG.
func multipartUpload(t *testing.T, fields map[string]string, filename string, width, height int) (*bytes.Buffer, string) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x % 256), uint8(y % 256), 128, 255})
		}
	}
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, img, nil); err != nil {
		t.Fatalf("failed to encode fixture: %v", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.Copy(part, &encoded); err != nil {
		t.Fatalf("failed to copy image: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func doRequest(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}
