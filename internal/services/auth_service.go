package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/campus-gigs/marketplace-service/internal/auth"
	"github.com/campus-gigs/marketplace-service/internal/mail"
	"github.com/campus-gigs/marketplace-service/internal/metrics"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

// TokenIssuer signs session tokens for users.
type TokenIssuer interface {
	GenerateToken(user *models.User) (string, error)
	TTL() time.Duration
}

// AuthOptions carries the environment switches of the auth flow.
type AuthOptions struct {
	// TestingMode accepts the bypass code.
	TestingMode bool
	// Production never returns a code in a response.
	Production bool
}

type authService struct {
	repo      repositories.Repository
	codes     CodeStore
	mailer    mail.Mailer
	tokens    TokenIssuer
	logger    *slog.Logger
	validator *validator.BusinessValidator
	opts      AuthOptions
}

func NewAuthService(repo repositories.Repository, codes CodeStore, mailer mail.Mailer, tokens TokenIssuer, logger *slog.Logger, validator *validator.BusinessValidator, opts AuthOptions) AuthService {
	return &authService{
		repo:      repo,
		codes:     codes,
		mailer:    mailer,
		tokens:    tokens,
		logger:    logger,
		validator: validator,
		opts:      opts,
	}
}

// RequestCode issues a one-time code. When the mail cannot be sent a
// production server drops the code and fails with ErrMailUnavailable;
// elsewhere the code is returned in the response.
func (s *authService) RequestCode(ctx context.Context, req *RequestCodeRequest) (*CodeResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	email := normalizeEmail(req.Email)

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}
	if err := s.codes.Save(ctx, email, code, CodeTTL); err != nil {
		return nil, err
	}
	metrics.VerificationCodesIssued.Inc()

	response := &CodeResponse{
		Message:   "Verification code sent",
		ExpiresIn: int(CodeTTL.Seconds()),
	}

	text, html := codeMailBody(code)
	if err := s.mailer.Send(ctx, email, "Your verification code", text, html); err != nil {
		metrics.VerificationMailFailures.Inc()
		if s.opts.Production {
			s.logger.Error("Failed to send verification code", "email", email, "error", err)
			if delErr := s.codes.Delete(ctx, email); delErr != nil {
				s.logger.Warn("Failed to drop unsent verification code", "email", email, "error", delErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrMailUnavailable, err)
		}
		s.logger.Warn("Failed to send verification code", "email", email, "error", err)
		response.Message = "Verification code generated but could not be emailed"
		response.Code = code
	}

	return response, nil
}

// Register creates the account. Students must supply student id, skills and
// price; for other roles those fields are dropped.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	s.logger.Info("Registering user", "email", req.Email, "role", req.Role)

	if errs := s.validator.ValidateRegistration(req); len(errs) > 0 {
		return nil, errs
	}
	email := normalizeEmail(req.Email)

	exists, err := s.repo.User().ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	user := &models.User{
		Email:         email,
		Role:          req.Role,
		Name:          strings.TrimSpace(req.Name),
		Major:         strings.TrimSpace(req.Major),
		Bio:           req.Bio,
		EmailVerified: true,
	}

	if req.Role == models.RoleStudent {
		studentID := strings.TrimSpace(*req.StudentID)
		taken, err := s.repo.User().ExistsByStudentID(ctx, studentID)
		if err != nil {
			return nil, fmt.Errorf("failed to check student id: %w", err)
		}
		if taken {
			return nil, ErrStudentIDTaken
		}

		openForWork := models.DefaultOpenForWork
		if req.OpenForWork != nil {
			openForWork = *req.OpenForWork
		}
		user.Student = &models.StudentProfile{
			StudentID:   studentID,
			Skills:      datatypes.JSONSlice[string](normalizeSkills(req.Skills)),
			Price:       *req.Price,
			OpenForWork: openForWork,
		}
	}

	if err := s.checkCode(ctx, email, req.Code); err != nil {
		return nil, err
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, s.duplicateCause(ctx, user)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "role", user.Role)
	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}
	email := normalizeEmail(req.Email)

	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.checkCode(ctx, email, req.Code); err != nil {
		return nil, err
	}

	if !user.EmailVerified {
		if err := s.repo.User().MarkEmailVerified(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("failed to mark email verified: %w", err)
		}
		user.EmailVerified = true
	}

	s.logger.Info("User logged in", "user_id", user.ID)
	return s.issue(user)
}

// ===== HELPERS =====

func (s *authService) checkCode(ctx context.Context, email, code string) error {
	if auth.IsBypass(code, s.opts.TestingMode) {
		s.logger.Warn("Verification bypass code used", "email", email)
		return nil
	}
	ok, err := s.codes.Consume(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

func (s *authService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{
		Token:     token,
		ExpiresIn: int(s.tokens.TTL().Seconds()),
		User:      user,
	}, nil
}

// duplicateCause tells a concurrent email registration from a student id clash.
func (s *authService) duplicateCause(ctx context.Context, user *models.User) error {
	if user.Student != nil {
		if taken, err := s.repo.User().ExistsByStudentID(ctx, user.Student.StudentID); err == nil && taken {
			return ErrStudentIDTaken
		}
	}
	return ErrEmailTaken
}

func codeMailBody(code string) (string, string) {
	minutes := int(CodeTTL.Minutes())
	text := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.", code, minutes)
	html := fmt.Sprintf("<p>Your verification code is <strong>%s</strong>.</p><p>It expires in %d minutes.</p>", code, minutes)
	return text, html
}
