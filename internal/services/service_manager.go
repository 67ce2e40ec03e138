package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/campus-gigs/marketplace-service/internal/events"
	"github.com/campus-gigs/marketplace-service/internal/mail"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/storage"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

// Dependencies are the collaborators the services are built from.
type Dependencies struct {
	Repo      repositories.Repository
	Validator *validator.BusinessValidator
	Logger    *slog.Logger

	Publisher events.EventPublisher
	Cipher    ContentCipher
	Mailer    mail.Mailer
	Media     storage.MediaStore
	Tokens    TokenIssuer
	Codes     CodeStore

	// TestingMode enables the verification bypass code in non-production builds.
	TestingMode bool
	// Production hides verification codes from responses when mail fails.
	Production bool
}

func (d Dependencies) validate() error {
	var missing []string
	if d.Repo == nil {
		missing = append(missing, "repository")
	}
	if d.Validator == nil {
		missing = append(missing, "validator")
	}
	if d.Logger == nil {
		missing = append(missing, "logger")
	}
	if d.Cipher == nil {
		missing = append(missing, "cipher")
	}
	if d.Media == nil {
		missing = append(missing, "media store")
	}
	if d.Tokens == nil {
		missing = append(missing, "token issuer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %v", missing)
	}
	return nil
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps Dependencies

	// Service instances
	authService         AuthService
	userService         UserService
	projectService      ProjectService
	requestService      RequestService
	notificationService NotificationService
	lifecycleNotifier   LifecycleNotifier
	messageService      MessageService
	exportService       ExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies) ServiceManager {
	if deps.Publisher == nil {
		deps.Publisher = events.NoopPublisher{}
	}
	if deps.Mailer == nil {
		deps.Mailer = mail.DisabledMailer{}
	}
	if deps.Codes == nil {
		deps.Codes = NewMemoryCodeStore()
	}
	return &serviceManager{deps: deps}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.deps.Logger.Info("Initializing service manager")

	if err := sm.deps.validate(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	sm.initializeServices()

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	d := sm.deps

	sm.notificationService = NewNotificationService(d.Repo, d.Publisher, d.Logger, d.Validator)
	sm.lifecycleNotifier = NewLifecycleNotifier(d.Repo, sm.notificationService, d.Logger)
	sm.deps.Logger.Info("Notification services initialized")

	sm.authService = NewAuthService(d.Repo, d.Codes, d.Mailer, d.Tokens, d.Logger, d.Validator,
		AuthOptions{TestingMode: d.TestingMode, Production: d.Production})
	sm.userService = NewUserService(d.Repo, d.Media, d.Logger, d.Validator)
	sm.projectService = NewProjectService(d.Repo, sm.lifecycleNotifier, d.Logger, d.Validator)
	sm.requestService = NewRequestService(d.Repo, sm.lifecycleNotifier, d.Logger, d.Validator)
	sm.messageService = NewMessageService(d.Repo, d.Cipher, d.Logger, d.Validator)
	sm.exportService = NewExportService(d.Repo, d.Logger)
	sm.deps.Logger.Info("Domain services initialized")
}

func (sm *serviceManager) mustBeReady(name string) {
	if !sm.initialized {
		panic("service manager not initialized")
	}
	if sm.shutdown {
		panic(name + " service requested after shutdown")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("auth")
	return sm.authService
}

func (sm *serviceManager) User() UserService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("user")
	return sm.userService
}

func (sm *serviceManager) Project() ProjectService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("project")
	return sm.projectService
}

func (sm *serviceManager) Request() RequestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("request")
	return sm.requestService
}

func (sm *serviceManager) Notification() NotificationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("notification")
	return sm.notificationService
}

func (sm *serviceManager) Lifecycle() LifecycleNotifier {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("lifecycle")
	return sm.lifecycleNotifier
}

func (sm *serviceManager) Message() MessageService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("message")
	return sm.messageService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady("export")
	return sm.exportService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

// Shutdown closes the publisher and the repository. The service manager
// cannot be used afterwards.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	var errs []error
	if err := sm.deps.Publisher.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
		errs = append(errs, err)
	}
	if err := sm.deps.Repo.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close repository", "error", err)
		errs = append(errs, err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return errors.Join(errs...)
}
