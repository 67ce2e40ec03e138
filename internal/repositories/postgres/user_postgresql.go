package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/campus-gigs/marketplace-service/internal/cache"
	"github.com/campus-gigs/marketplace-service/internal/models"
	"github.com/campus-gigs/marketplace-service/internal/repositories"
	"gorm.io/gorm"
)

type UserPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewUserPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.UserRepository {
	return &UserPostgreSQL{
		db:           db,
		cacheManager: cacheManager,
	}
}

// ===== BASIC CRUD OPERATIONS =====

// Create inserts the user and its student profile in one transaction
func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	ensureID(&user.ID)
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		student := user.Student
		if err := tx.Omit("Student").Create(user).Error; err != nil {
			return err
		}
		if student != nil {
			student.UserID = user.ID
			if err := tx.Create(student).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return handleDBError(err, "create user")
	}

	cache.SafeInvalidatePattern(ctx, u.cacheManager.Fast, "freelancers:*")
	return nil
}

// Update saves base profile and student profile fields
func (u *UserPostgreSQL) Update(ctx context.Context, user *models.User) error {
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Student").Save(user).Error; err != nil {
			return err
		}
		if user.Student != nil {
			user.Student.UserID = user.ID
			if err := tx.Save(user.Student).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return handleDBError(err, "update user")
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, user.ID)
	return nil
}

func (u *UserPostgreSQL) MarkEmailVerified(ctx context.Context, id string) error {
	result := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Update("email_verified", true)
	if result.Error != nil {
		return handleDBError(result.Error, "mark email verified")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("mark email verified: %w", repositories.ErrNotFound)
	}

	cache.InvalidateUserCache(ctx, u.cacheManager, id)
	return nil
}

// GetByID retrieves a user by ID with caching
func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User

	err := u.cacheManager.User.CacheOrExecute(ctx, "id:"+id, &user, cache.UserCacheConfig.TTL, func() (interface{}, error) {
		var dbUser models.User
		if err := u.db.WithContext(ctx).Preload("Student").First(&dbUser, "id = ?", id).Error; err != nil {
			return nil, handleDBError(err, "get user by id")
		}
		return &dbUser, nil
	})
	if err != nil {
		return nil, err
	}

	if user.Student != nil {
		user.Student.UserID = user.ID
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := u.db.WithContext(ctx).
		Preload("Student").
		Where("LOWER(email) = ?", strings.ToLower(email)).
		First(&user).Error; err != nil {
		return nil, handleDBError(err, "get user by email")
	}
	return &user, nil
}

func (u *UserPostgreSQL) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	var users []*models.User
	if err := u.db.WithContext(ctx).
		Preload("Student").
		Where("id IN ?", ids).
		Find(&users).Error; err != nil {
		return nil, handleDBError(err, "get users by ids")
	}
	return users, nil
}

// ===== QUERY OPERATIONS =====

// freelancerPage is the cached result of one ListFreelancers call.
type freelancerPage struct {
	Users []*models.User `json:"users"`
	Total int64          `json:"total"`
}

// freelancerCacheKey keys a page by its filters. Every key lives under
// "freelancers:" so a profile change can drop them all.
func freelancerCacheKey(filters repositories.FreelancerFilters) string {
	raw, _ := json.Marshal(filters)
	sum := sha256.Sum256(raw)
	return "freelancers:" + hex.EncodeToString(sum[:16])
}

// ListFreelancers lists students, optionally filtered by skill, availability
// and price. Pages are cached briefly and dropped whenever a user changes.
func (u *UserPostgreSQL) ListFreelancers(ctx context.Context, filters repositories.FreelancerFilters) ([]*models.User, int64, error) {
	var page freelancerPage
	err := u.cacheManager.Fast.CacheOrExecute(ctx, freelancerCacheKey(filters), &page, cache.FastCacheConfig.TTL, func() (interface{}, error) {
		users, total, err := u.queryFreelancers(ctx, filters)
		if err != nil {
			return nil, err
		}
		return freelancerPage{Users: users, Total: total}, nil
	})
	if err != nil {
		return nil, 0, err
	}

	for _, user := range page.Users {
		if user.Student != nil {
			user.Student.UserID = user.ID
		}
	}
	return page.Users, page.Total, nil
}

func (u *UserPostgreSQL) queryFreelancers(ctx context.Context, filters repositories.FreelancerFilters) ([]*models.User, int64, error) {
	var users []*models.User
	var total int64

	query := u.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN "+models.StudentProfileTable+" sp ON sp.user_id = users.id").
		Where("users.role = ?", models.RoleStudent)

	if filters.Skill != nil {
		query = query.Where("sp.skills @> ?", jsonContains(*filters.Skill))
	}
	if filters.OpenForWork != nil {
		query = query.Where("sp.open_for_work = ?", *filters.OpenForWork)
	}
	if filters.MaxPrice != nil {
		query = query.Where("sp.price <= ?", *filters.MaxPrice)
	}
	if filters.Query != "" {
		like := "%" + filters.Query + "%"
		query = query.Where("users.name ILIKE ? OR users.major ILIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, handleDBError(err, "count freelancers")
	}

	query = applyPagination(query.Order("users.created_at DESC"), filters.Limit, filters.Offset)
	if err := query.Preload("Student").Find(&users).Error; err != nil {
		return nil, 0, handleDBError(err, "list freelancers")
	}

	return users, total, nil
}

func (u *UserPostgreSQL) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.User{}).
		Where("LOWER(email) = ?", strings.ToLower(email)).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check email")
	}
	return count > 0, nil
}

func (u *UserPostgreSQL) ExistsByStudentID(ctx context.Context, studentID string) (bool, error) {
	var count int64
	if err := u.db.WithContext(ctx).
		Model(&models.StudentProfile{}).
		Where("student_id = ?", studentID).
		Count(&count).Error; err != nil {
		return false, handleDBError(err, "check student id")
	}
	return count > 0, nil
}
