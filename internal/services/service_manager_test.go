package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/repositories/memory"
	"github.com/campus-gigs/marketplace-service/internal/security"
	"github.com/campus-gigs/marketplace-service/internal/storage"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

func testDependencies(t *testing.T) Dependencies {
	t.Helper()

	logger := testLogger()
	enc, err := security.NewEncryptor("manager-test-key", logger)
	if err != nil {
		t.Fatalf("NewEncryptor() error = %v", err)
	}
	media, err := storage.NewLocalMediaStore(t.TempDir(), "http://localhost/media")
	if err != nil {
		t.Fatalf("NewLocalMediaStore() error = %v", err)
	}

	return Dependencies{
		Repo:      memory.New(),
		Validator: validator.NewBusinessValidator(),
		Logger:    logger,
		Cipher:    enc,
		Media:     media,
		Tokens:    auth.NewJWTService([]byte("manager-test-secret-manager-test"), time.Hour),
	}
}

func TestServiceManager_Lifecycle(t *testing.T) {
	ctx := context.Background()
	sm := NewServiceManager(testDependencies(t))

	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() before Initialize succeeded")
	}

	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := sm.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}

	if sm.Auth() == nil || sm.User() == nil || sm.Project() == nil || sm.Request() == nil ||
		sm.Notification() == nil || sm.Lifecycle() == nil || sm.Message() == nil || sm.Export() == nil {
		t.Fatal("a service getter returned nil")
	}
	if err := sm.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := sm.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := sm.Shutdown(ctx); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
	if err := sm.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() after Shutdown succeeded")
	}

	defer func() {
		if recover() == nil {
			t.Error("getter after Shutdown did not panic")
		}
	}()
	sm.Project()
}

func TestServiceManager_MissingDependencies(t *testing.T) {
	deps := testDependencies(t)
	deps.Cipher = nil
	deps.Tokens = nil

	err := NewServiceManager(deps).Initialize(context.Background())
	if err == nil {
		t.Fatal("Initialize() error = nil")
	}
	for _, want := range []string{"cipher", "token issuer"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestServiceManager_GetterBeforeInitializePanics(t *testing.T) {
	sm := NewServiceManager(testDependencies(t))

	defer func() {
		if recover() == nil {
			t.Error("getter before Initialize did not panic")
		}
	}()
	sm.Auth()
}
