package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"github.com/campus-gigs/marketplace-service/internal/storage"
	"github.com/campus-gigs/marketplace-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	media     storage.MediaStore
	logger    *slog.Logger
	validator *validator.BusinessValidator
}

func NewUserService(repo repositories.Repository, media storage.MediaStore, logger *slog.Logger, validator *validator.BusinessValidator) UserService {
	return &userService{
		repo:      repo,
		media:     media,
		logger:    logger,
		validator: validator,
	}
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields. Student fields are rejected for
// other roles.
func (s *userService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if errs := s.validator.ValidateProfileUpdate(req, user.Role); len(errs) > 0 {
		return nil, errs
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.Major != nil {
		user.Major = strings.TrimSpace(*req.Major)
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if user.IsStudent() && user.Student != nil {
		if req.Skills != nil {
			user.Student.Skills = datatypes.JSONSlice[string](normalizeSkills(req.Skills))
		}
		if req.Price != nil {
			user.Student.Price = *req.Price
		}
		if req.OpenForWork != nil {
			user.Student.OpenForWork = *req.OpenForWork
		}
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.logger.Info("Profile updated", "user_id", userID)
	return user, nil
}

func (s *userService) ListFreelancers(ctx context.Context, filters repositories.FreelancerFilters) (*FreelancerListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > maxPageSize {
		filters.Limit = defaultPageSize
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	users, total, err := s.repo.User().ListFreelancers(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list freelancers: %w", err)
	}

	return &FreelancerListResponse{
		Freelancers: users,
		Total:       total,
		Page:        pageOf(filters.Limit, filters.Offset),
		Size:        filters.Limit,
	}, nil
}

// ===== MEDIA =====

func (s *userService) UploadProfileImage(ctx context.Context, userID string, data []byte) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := s.media.Upload(ctx, data, userID, storage.CategoryProfileImage, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upload profile image: %w", err)
	}

	previous := user.ProfileImageURL
	user.ProfileImageURL = &url
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save profile image: %w", err)
	}

	if previous != nil && *previous != url {
		s.deleteMedia(ctx, *previous)
	}
	return user, nil
}

func (s *userService) UploadPortfolio(ctx context.Context, userID string, data []byte) (*models.User, error) {
	user, err := s.getStudent(ctx, userID, "upload_portfolio")
	if err != nil {
		return nil, err
	}

	url, err := s.media.Upload(ctx, data, userID, storage.CategoryPortfolio, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upload portfolio: %w", err)
	}

	previous := user.Student.PortfolioURL
	user.Student.PortfolioURL = &url
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save portfolio: %w", err)
	}

	if previous != nil && *previous != url {
		s.deleteMedia(ctx, *previous)
	}
	return user, nil
}

// AddGalleryImage stores the image under a fresh name so existing entries
// are never overwritten.
func (s *userService) AddGalleryImage(ctx context.Context, userID string, data []byte) (*models.User, error) {
	user, err := s.getStudent(ctx, userID, "add_gallery_image")
	if err != nil {
		return nil, err
	}
	if len(user.Student.Gallery) >= models.MaxGalleryImages {
		return nil, fmt.Errorf("%w: at most %d images", ErrGalleryFull, models.MaxGalleryImages)
	}

	url, err := s.media.Upload(ctx, data, userID, storage.CategoryGallery, uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to upload gallery image: %w", err)
	}

	user.Student.Gallery = append(user.Student.Gallery, url)
	if err := s.repo.User().Update(ctx, user); err != nil {
		s.deleteMedia(ctx, url)
		return nil, fmt.Errorf("failed to save gallery: %w", err)
	}
	return user, nil
}

func (s *userService) RemoveGalleryImage(ctx context.Context, userID, url string) (*models.User, error) {
	user, err := s.getStudent(ctx, userID, "remove_gallery_image")
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(user.Student.Gallery))
	for _, existing := range user.Student.Gallery {
		if existing != url {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(user.Student.Gallery) {
		return nil, storage.ErrMediaNotFound
	}

	user.Student.Gallery = datatypes.JSONSlice[string](kept)
	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save gallery: %w", err)
	}

	s.deleteMedia(ctx, url)
	return user, nil
}

func (s *userService) getStudent(ctx context.Context, userID, action string) (*models.User, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsStudent() || user.Student == nil {
		return nil, NewPermissionError(userID, userID, "profile", action, "only students have portfolios and galleries")
	}
	return user, nil
}

func (s *userService) deleteMedia(ctx context.Context, url string) {
	if err := s.media.Delete(ctx, url); err != nil {
		s.logger.Warn("Failed to delete media", "url", url, "error", err)
	}
}
