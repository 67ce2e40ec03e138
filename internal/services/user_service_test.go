package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

const testMediaURL = "http://localhost/media"

func newUserService(t *testing.T, env *testEnv) (UserService, string) {
	t.Helper()
	dir := t.TempDir()
	media, err := storage.NewLocalMediaStore(dir, testMediaURL)
	if err != nil {
		t.Fatalf("NewLocalMediaStore() error = %v", err)
	}
	return NewUserService(env.repo, media, testLogger(), env.validator), dir
}

func mediaPath(dir, url string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, testMediaURL+"/")))
}

func TestUserService_Gallery(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := seedUser(t, env.repo, models.RoleStudent, "Sam")
	users, dir := newUserService(t, env)

	var urls []string
	for i := 0; i < models.MaxGalleryImages; i++ {
		user, err := users.AddGalleryImage(ctx, student.ID, pngBytes)
		if err != nil {
			t.Fatalf("AddGalleryImage() #%d error = %v", i+1, err)
		}
		urls = user.Student.Gallery
	}
	if len(urls) != models.MaxGalleryImages {
		t.Fatalf("Gallery = %d images, want %d", len(urls), models.MaxGalleryImages)
	}
	seen := make(map[string]bool)
	for _, url := range urls {
		if seen[url] {
			t.Errorf("duplicate gallery url %s", url)
		}
		seen[url] = true
	}

	if _, err := users.AddGalleryImage(ctx, student.ID, pngBytes); !errors.Is(err, ErrGalleryFull) {
		t.Errorf("AddGalleryImage() past the cap error = %v, want ErrGalleryFull", err)
	}

	removed := urls[0]
	user, err := users.RemoveGalleryImage(ctx, student.ID, removed)
	if err != nil {
		t.Fatalf("RemoveGalleryImage() error = %v", err)
	}
	if len(user.Student.Gallery) != models.MaxGalleryImages-1 {
		t.Errorf("Gallery = %d images after removal", len(user.Student.Gallery))
	}
	if _, err := os.Stat(mediaPath(dir, removed)); !os.IsNotExist(err) {
		t.Errorf("removed file still on disk: %v", err)
	}

	if _, err := users.RemoveGalleryImage(ctx, student.ID, removed); !errors.Is(err, storage.ErrMediaNotFound) {
		t.Errorf("RemoveGalleryImage() twice error = %v, want ErrMediaNotFound", err)
	}
}

func TestUserService_MediaRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := seedUser(t, env.repo, models.RoleStudent, "Sam")
	teacher := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	users, _ := newUserService(t, env)

	if _, err := users.AddGalleryImage(ctx, student.ID, []byte("plain text")); !errors.Is(err, storage.ErrNotImage) {
		t.Errorf("AddGalleryImage(text) error = %v, want ErrNotImage", err)
	}

	var permErr *PermissionError
	if _, err := users.UploadPortfolio(ctx, teacher.ID, []byte("%PDF-1.4")); !errors.As(err, &permErr) {
		t.Errorf("UploadPortfolio() by teacher error = %v, want PermissionError", err)
	}
	if _, err := users.AddGalleryImage(ctx, teacher.ID, pngBytes); !errors.As(err, &permErr) {
		t.Errorf("AddGalleryImage() by teacher error = %v, want PermissionError", err)
	}

	user, err := users.UploadProfileImage(ctx, teacher.ID, pngBytes)
	if err != nil {
		t.Fatalf("UploadProfileImage() error = %v", err)
	}
	if user.ProfileImageURL == nil || !strings.HasSuffix(*user.ProfileImageURL, ".png") {
		t.Errorf("ProfileImageURL = %v", user.ProfileImageURL)
	}

	user, err = users.UploadPortfolio(ctx, student.ID, []byte("%PDF-1.4 resume"))
	if err != nil {
		t.Fatalf("UploadPortfolio() error = %v", err)
	}
	if user.Student.PortfolioURL == nil || !strings.HasSuffix(*user.Student.PortfolioURL, ".pdf") {
		t.Errorf("PortfolioURL = %v", user.Student.PortfolioURL)
	}
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := seedUser(t, env.repo, models.RoleStudent, "Sam")
	teacher := seedUser(t, env.repo, models.RoleTeacher, "Olivia")
	users, _ := newUserService(t, env)

	name := "  Samuel "
	price := 250
	closed := false
	user, err := users.UpdateProfile(ctx, student.ID, &UpdateProfileRequest{
		Name:        &name,
		Price:       &price,
		OpenForWork: &closed,
		Skills:      []string{"go", "Go", "react"},
	})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if user.Name != "Samuel" || user.Student.Price != 250 || user.Student.OpenForWork {
		t.Errorf("UpdateProfile() = %+v / %+v", user, user.Student)
	}
	if len(user.Student.Skills) != 2 {
		t.Errorf("Skills = %v, want deduplicated", user.Student.Skills)
	}

	var verrs ValidationErrors
	if _, err := users.UpdateProfile(ctx, teacher.ID, &UpdateProfileRequest{Skills: []string{"go"}}); !errors.As(err, &verrs) {
		t.Errorf("UpdateProfile() skills for teacher error = %v, want ValidationErrors", err)
	}

	low := 10
	if _, err := users.UpdateProfile(ctx, student.ID, &UpdateProfileRequest{Price: &low}); !errors.As(err, &verrs) {
		t.Errorf("UpdateProfile() low price error = %v, want ValidationErrors", err)
	}

	list, err := users.ListFreelancers(ctx, repositories.FreelancerFilters{})
	if err != nil {
		t.Fatalf("ListFreelancers() error = %v", err)
	}
	for _, f := range list.Freelancers {
		if !f.IsStudent() {
			t.Errorf("ListFreelancers() returned %s with role %s", f.Name, f.Role)
		}
	}

	if _, err := users.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}
