package database

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"tournament-admin/internal/migrate"
)

// newTestDatabase connects to the database named by TEST_DATABASE_URL,
// applies migrations, and truncates the catalog table. Tests that use
// it are skipped when the variable is unset.
func newTestDatabase(t *testing.T) *Database {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}

	if _, err := migrate.NewRunner(pool).Run(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, "TRUNCATE tournament_images RESTART IDENTITY"); err != nil {
		pool.Close()
		t.Fatalf("failed to truncate: %v", err)
	}
	pool.Close()

	db, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func strPtr(s string) *string { return &s }

func testRecord(category, title string) NewImageRecord {
	return NewImageRecord{
		Category:     category,
		ImageURL:     strPtr("/uploads/tournament-images/" + category + "_20250630_140509_deadbeef.jpg"),
		ThumbnailURL: strPtr("/uploads/tournament-images/thumbnails/thumb_" + category + "_20250630_140509_deadbeef.jpg"),
		Title:        title,
		Tags:         []string{"teste"},
		Active:       true,
		FileSize:     1024,
		ImageWidth:   800,
		ImageHeight:  600,
		MimeType:     "image/jpeg",
	}
}

func TestInsertAndQueryByCategory(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	if _, err := db.Insert(ctx, testRecord("cores", "Vermelho")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := db.Insert(ctx, testRecord("estilos", "Minimalista")); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	images, err := db.Query(ctx, QueryFilters{Category: "cores"}, 50, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected 1 image, got %d", len(images))
	}
	if images[0].Title != "Vermelho" {
		t.Errorf("expected Vermelho, got %s", images[0].Title)
	}
	if images[0].Approved {
		t.Error("new uploads must start unapproved")
	}
	if !images[0].Active {
		t.Error("new uploads must start active")
	}
}

func TestBulkApprovalStampsReviewer(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	var ids []int64
	for _, title := range []string{"a", "b", "c", "d"} {
		id, err := db.Insert(ctx, testRecord("joias", title))
		if err != nil {
			t.Fatalf("insert failed: %v", err)
		}
		ids = append(ids, id)
	}

	if err := db.BulkSetApproval(ctx, ids[:3], true, "admin"); err != nil {
		t.Fatalf("bulk approval failed: %v", err)
	}

	for _, id := range ids[:3] {
		img, err := db.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}
		if !img.Approved {
			t.Errorf("image %d should be approved", id)
		}
		if img.ApprovedBy == nil || *img.ApprovedBy != "admin" {
			t.Errorf("image %d missing reviewer stamp", id)
		}
		if img.ApprovedAt == nil {
			t.Errorf("image %d missing approval timestamp", id)
		}
	}

	untouched, err := db.GetByID(ctx, ids[3])
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if untouched.Approved {
		t.Error("image outside the ID set must stay unapproved")
	}
}

func TestSetApprovalRejectKeepsReviewerColumns(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	id, err := db.Insert(ctx, testRecord("bolsas", "Clutch"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := db.SetApproval(ctx, id, true, "moderator"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if err := db.SetApproval(ctx, id, false, ""); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	img, err := db.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if img.Approved {
		t.Error("image should be rejected")
	}
	if img.ApprovedBy == nil || img.ApprovedAt == nil {
		t.Error("rejection leaves the prior reviewer columns in place")
	}
}

func TestSoftDeleteHidesFromActiveListing(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	id, err := db.Insert(ctx, testRecord("texturas", "Linho"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := db.SoftDelete(ctx, id); err != nil {
		t.Fatalf("soft delete failed: %v", err)
	}

	active, err := db.Query(ctx, QueryFilters{ActiveOnly: true}, 50, 0)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active images, got %d", len(active))
	}

	img, err := db.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("soft-deleted row must still be fetchable: %v", err)
	}
	if img.Active {
		t.Error("soft-deleted image should be inactive")
	}
}

func TestHardDeleteRemovesRow(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	id, err := db.Insert(ctx, testRecord("acessorios", "Cinto"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	if err := db.HardDelete(ctx, id); err != nil {
		t.Fatalf("hard delete failed: %v", err)
	}
	if _, err := db.GetByID(ctx, id); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := db.HardDelete(ctx, id); err != ErrNotFound {
		t.Errorf("deleting twice should report ErrNotFound, got %v", err)
	}
}

func TestUpdatePartialFields(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	id, err := db.Insert(ctx, testRecord("roupas_festa", "Vestido"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	desc := "Vestido longo de festa"
	tags := []string{"festa", "longo"}
	if err := db.Update(ctx, id, ImageUpdate{Description: &desc, Tags: &tags}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	img, err := db.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if img.Description != desc {
		t.Errorf("expected updated description, got %q", img.Description)
	}
	if len(img.Tags) != 2 {
		t.Errorf("expected 2 tags, got %v", img.Tags)
	}
	if img.Title != "Vestido" {
		t.Errorf("title must be untouched, got %q", img.Title)
	}
}

func TestDashboardAndCategoryStats(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := db.Insert(ctx, testRecord("cores", "c")); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}
	id, err := db.Insert(ctx, testRecord("estilos", "e"))
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if err := db.SetApproval(ctx, id, true, "admin"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	stats, err := db.GetDashboardStats(ctx)
	if err != nil {
		t.Fatalf("dashboard stats failed: %v", err)
	}
	if stats.TotalImages != 4 || stats.ApprovedImages != 1 || stats.PendingApproval != 3 {
		t.Errorf("unexpected dashboard counters: %+v", stats)
	}
	if stats.CategoriesCount != 2 {
		t.Errorf("expected 2 categories, got %d", stats.CategoriesCount)
	}

	byCategory, err := db.CategoryAggregates(ctx)
	if err != nil {
		t.Fatalf("category stats failed: %v", err)
	}
	if byCategory["cores"].TotalImages != 3 {
		t.Errorf("expected 3 cores images, got %d", byCategory["cores"].TotalImages)
	}
	if byCategory["estilos"].ApprovedImages != 1 {
		t.Errorf("expected 1 approved estilos image, got %d", byCategory["estilos"].ApprovedImages)
	}
	if byCategory["cores"].RecentUploads != 3 {
		t.Errorf("fresh uploads must count as recent, got %d", byCategory["cores"].RecentUploads)
	}
}
