package postgres

import (
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/campus-gigs/marketplace-service/internal/cache"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
)

// newDryRunDB builds statements with the postgres dialect without
// connecting to a server.
func newDryRunDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}
	return db
}

func newTestCacheManager(t *testing.T) (*cache.CacheManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return cache.NewCacheManager(client), mr
}

func TestStudentProfileInsertWritesAvailability(t *testing.T) {
	db := newDryRunDB(t)

	for _, open := range []bool{false, true} {
		profile := &models.StudentProfile{
			UserID:      "7b0f3c52-1b43-4c1a-9d7e-2f1c9a4e8b10",
			StudentID:   "S-1001",
			Skills:      datatypes.JSONSlice[string]{"go"},
			Price:       150,
			OpenForWork: open,
		}
		stmt := db.Create(profile).Statement

		if !strings.Contains(stmt.SQL.String(), `"open_for_work"`) {
			t.Fatalf("open_for_work=%v: column missing from INSERT: %s", open, stmt.SQL.String())
		}
		found := false
		for _, v := range stmt.Vars {
			if b, ok := v.(bool); ok && b == open {
				found = true
			}
		}
		if !found {
			t.Errorf("open_for_work=%v: value not bound, vars = %v", open, stmt.Vars)
		}
	}
}

func TestEnsureID(t *testing.T) {
	id := ""
	ensureID(&id)
	if len(id) != 36 {
		t.Errorf("ensureID() = %q, want a UUID", id)
	}

	kept := "given"
	ensureID(&kept)
	if kept != "given" {
		t.Errorf("ensureID() replaced an existing id with %q", kept)
	}
}

func TestFreelancerCacheKey(t *testing.T) {
	skill := "go"
	open := true
	base := repositories.FreelancerFilters{Skill: &skill, OpenForWork: &open, Limit: 20}
	other := base
	other.Offset = 20

	if freelancerCacheKey(base) != freelancerCacheKey(base) {
		t.Error("same filters produced different keys")
	}
	if freelancerCacheKey(base) == freelancerCacheKey(other) {
		t.Error("different pages share a key")
	}
	if !strings.HasPrefix(freelancerCacheKey(base), "freelancers:") {
		t.Errorf("key %q is outside the freelancers namespace", freelancerCacheKey(base))
	}
}

func TestListFreelancers_CachedPageAndInvalidation(t *testing.T) {
	ctx := context.Background()
	cm, mr := newTestCacheManager(t)
	repo := NewUserPostgreSQL(newDryRunDB(t), cm)

	filters := repositories.FreelancerFilters{Limit: 20}
	key := freelancerCacheKey(filters)
	cached := freelancerPage{
		Users: []*models.User{{
			ID:   "7b0f3c52-1b43-4c1a-9d7e-2f1c9a4e8b10",
			Role: models.RoleStudent,
			Name: "Sam",
			Student: &models.StudentProfile{
				StudentID:   "S-1001",
				Price:       150,
				OpenForWork: false,
			},
		}},
		Total: 1,
	}
	if err := cm.Fast.Set(ctx, key, cached, cache.FastCacheConfig.TTL); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	users, total, err := repo.ListFreelancers(ctx, filters)
	if err != nil {
		t.Fatalf("ListFreelancers() error = %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Name != "Sam" {
		t.Fatalf("ListFreelancers() = %d users, total %d; want the cached page", len(users), total)
	}
	if users[0].Student.UserID != users[0].ID {
		t.Errorf("Student.UserID = %q, want it restored from the user", users[0].Student.UserID)
	}
	if users[0].Student.OpenForWork {
		t.Error("cached availability flipped to open")
	}

	cache.InvalidateUserCache(ctx, cm, users[0].ID)
	if mr.Exists(cache.FastCacheConfig.Prefix + key) {
		t.Fatal("freelancer page survived a profile change")
	}

	users, total, err = repo.ListFreelancers(ctx, filters)
	if err != nil {
		t.Fatalf("ListFreelancers() after invalidation error = %v", err)
	}
	if total != 0 || len(users) != 0 {
		t.Errorf("ListFreelancers() = %d users, total %d; want a fresh empty page", len(users), total)
	}
	if !mr.Exists(cache.FastCacheConfig.Prefix + key) {
		t.Error("fresh page was not cached")
	}
}
