package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/config"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories/memory"
	"github.com/campus-gigs/marketplace-service/internal/security"
	"github.com/campus-gigs/marketplace-service/internal/services"
	"github.com/campus-gigs/marketplace-service/internal/storage"
	"github.com/campus-gigs/marketplace-service/internal/utils"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

type testAPI struct {
	router *gin.Engine
	repo   *memory.Repository
	tokens *auth.JWTService
}

func newTestAPI(t *testing.T, opts ...func(*services.Dependencies)) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	repo := memory.New()

	enc, err := security.NewEncryptor("handler-test-key", slogger)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	mediaDir := t.TempDir()
	media, err := storage.NewLocalMediaStore(mediaDir, "/media")
	if err != nil {
		t.Fatalf("NewLocalMediaStore() error = %v", err)
	}
	tokens := auth.NewJWTService([]byte("handler-test-secret-handler-test"), time.Hour)

	deps := services.Dependencies{
		Repo:      repo,
		Validator: validator.NewBusinessValidator(),
		Logger:    slogger,
		Cipher:    enc,
		Media:     media,
		Tokens:    tokens,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	sm := services.NewServiceManager(deps)
	if err := sm.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	router := gin.New()
	SetupMiddleware(router, logger, []string{"*"})
	NewHandlerManager(sm, repo.User(), logger, tokens).
		SetupRoutes(router, config.MediaConfig{Dir: mediaDir, BaseURL: "/media"})

	return &testAPI{router: router, repo: repo, tokens: tokens}
}

// seed stores a user and returns it with a valid bearer token.
func (a *testAPI) seed(t *testing.T, role models.UserRole, name string) (*models.User, string) {
	t.Helper()

	user := &models.User{
		Email: strings.ToLower(name) + "-" + uuid.NewString()[:8] + "@campus.test",
		Role:  role,
		Name:  name,
	}
	if role == models.RoleStudent {
		user.Student = &models.StudentProfile{
			StudentID:   "S-" + uuid.NewString()[:8],
			Skills:      datatypes.JSONSlice[string]{"go"},
			Price:       150,
			OpenForWork: true,
		}
	}
	if err := a.repo.User().Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := a.tokens.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return user, token
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) upload(t *testing.T, path, token string, data []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(uploadField, "upload.bin")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	part.Write(data)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dest); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", w.Code, want, w.Body.String())
	}
}

func projectBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":       title,
		"description": "Build the club website",
		"budget":      500,
		"deadline":    time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
		"skills":      []string{"go", "html"},
	}
}

type idBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (a *testAPI) createProject(t *testing.T, token, title string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/api/v1/projects", token, projectBody(title))
	expectStatus(t, w, http.StatusCreated)
	var p idBody
	decode(t, w, &p)
	return p.ID
}

// pngBytes is the PNG signature, enough for content sniffing.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
