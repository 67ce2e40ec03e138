package postgres

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/campus-gigs/marketplace-service/internal/repositories"
)

const defaultPageSize = 20

// ensureID assigns a fresh UUID to records created without one.
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// handleDBError maps gorm errors onto repository sentinels
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}

	if repositories.IsNotFoundError(err) {
		return fmt.Errorf("%s: %w", operation, repositories.ErrNotFound)
	}
	if repositories.IsDuplicateError(err) {
		return fmt.Errorf("%s: %w", operation, repositories.ErrDuplicate)
	}

	return fmt.Errorf("%s failed: %w", operation, err)
}

// requireAffected turns a conditional update that matched no row into
// ErrConflict.
func requireAffected(result *gorm.DB, operation string) error {
	if result.Error != nil {
		return handleDBError(result.Error, operation)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", operation, repositories.ErrConflict)
	}
	return nil
}

// applyPaginationAndSorting applies pagination and sorting with SQL injection protection
func applyPaginationAndSorting(query *gorm.DB, limit, offset int, sortBy, sortOrder string, allowed map[string]string) *gorm.DB {
	column, ok := allowed[sortBy]
	if !ok {
		column = "created_at"
	}

	order := "DESC"
	if sortOrder == "asc" || sortOrder == "ASC" {
		order = "ASC"
	}

	query = query.Order(fmt.Sprintf("%s %s", column, order))

	return applyPagination(query, limit, offset)
}

func applyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit <= 0 {
		limit = defaultPageSize
	}
	query = query.Limit(limit)
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// jsonContains builds a jsonb containment argument for a single string.
func jsonContains(value string) string {
	return fmt.Sprintf("[%q]", value)
}
