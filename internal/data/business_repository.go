package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// BusinessRepository handles database operations for businesses.
type BusinessRepository struct {
	db *sqlx.DB
}

// NewBusinessRepository creates a new BusinessRepository.
func NewBusinessRepository(db *sqlx.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// IsUniqueViolation reports whether err was caused by a violated unique
// constraint. The user_id unique index on businesses is the backstop for
// the one-business-per-user invariant under concurrent registrations.
func IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	// The sqlite driver used in tests reports constraint failures by message.
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

const businessColumns = `id, user_id, name, description, address, phone, whatsapp, email, website,
	facebook, instagram, tiktok, hours, image, category_id, state, created_at, updated_at`

// Create inserts a new business and returns its ID.
func (r *BusinessRepository) Create(ctx context.Context, b *Business) (int64, error) {
	query := `INSERT INTO businesses
		(user_id, name, description, address, phone, whatsapp, email, website, facebook, instagram, tiktok, hours, image, category_id, state)
		VALUES (:user_id, :name, :description, :address, :phone, :whatsapp, :email, :website, :facebook, :instagram, :tiktok, :hours, :image, :category_id, :state)`
	res, err := r.db.NamedExecContext(ctx, query, b)
	if err != nil {
		return 0, fmt.Errorf("failed to create business: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted business id: %w", err)
	}
	return id, nil
}

// Update overwrites all profile fields of an existing business. The
// moderation state is deliberately left untouched; state changes go
// through SetState.
func (r *BusinessRepository) Update(ctx context.Context, b *Business) error {
	query := `UPDATE businesses SET
		name = :name, description = :description, address = :address, phone = :phone,
		whatsapp = :whatsapp, email = :email, website = :website, facebook = :facebook,
		instagram = :instagram, tiktok = :tiktok, hours = :hours, image = :image,
		category_id = :category_id, updated_at = CURRENT_TIMESTAMP
		WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, b)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no business found to update with id %d", b.ID)
	}
	return nil
}

// GetByID retrieves a business by its ID. Returns nil when no business exists.
func (r *BusinessRepository) GetByID(ctx context.Context, id int64) (*Business, error) {
	var b Business
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = ?`
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found is not an error
		}
		return nil, fmt.Errorf("failed to get business by id: %w", err)
	}
	return &b, nil
}

// GetByUserID retrieves the business owned by the given user. Returns nil
// when the user owns no business.
func (r *BusinessRepository) GetByUserID(ctx context.Context, userID int64) (*Business, error) {
	var b Business
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE user_id = ?`
	if err := r.db.GetContext(ctx, &b, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business by user id: %w", err)
	}
	return &b, nil
}

// SearchApproved retrieves a page of approved businesses matching the
// optional text query and category filter, ordered by name ascending.
// The text match is a case-insensitive substring over name, description
// and address.
func (r *BusinessRepository) SearchApproved(ctx context.Context, q string, categoryID *int64, limit, offset int) ([]*Business, error) {
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE state = ?`
	args := []interface{}{StateApproved}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += ` AND (LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(COALESCE(address, '')) LIKE ?)`
		args = append(args, like, like, like)
	}
	if categoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *categoryID)
	}
	query += ` ORDER BY name ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	var businesses []*Business
	if err := r.db.SelectContext(ctx, &businesses, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search businesses: %w", err)
	}
	return businesses, nil
}

// CountApprovedMatching returns the number of approved businesses matching
// the same filters as SearchApproved, for pagination.
func (r *BusinessRepository) CountApprovedMatching(ctx context.Context, q string, categoryID *int64) (int64, error) {
	query := `SELECT COUNT(*) FROM businesses WHERE state = ?`
	args := []interface{}{StateApproved}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query += ` AND (LOWER(name) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ? OR LOWER(COALESCE(address, '')) LIKE ?)`
		args = append(args, like, like, like)
	}
	if categoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *categoryID)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return n, nil
}

// TopApprovedByCategory retrieves the most recently registered approved
// businesses in a category, capped at limit.
func (r *BusinessRepository) TopApprovedByCategory(ctx context.Context, categoryID int64, limit int) ([]*Business, error) {
	var businesses []*Business
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE state = ? AND category_id = ? ORDER BY id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &businesses, query, StateApproved, categoryID, limit); err != nil {
		return nil, fmt.Errorf("failed to get top businesses by category: %w", err)
	}
	return businesses, nil
}

// OthersInCategory retrieves up to limit approved businesses sharing the
// given category, excluding the business itself.
func (r *BusinessRepository) OthersInCategory(ctx context.Context, categoryID, excludeID int64, limit int) ([]*Business, error) {
	var businesses []*Business
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE state = ? AND category_id = ? AND id != ? ORDER BY id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &businesses, query, StateApproved, categoryID, excludeID, limit); err != nil {
		return nil, fmt.Errorf("failed to get related businesses: %w", err)
	}
	return businesses, nil
}

// RecentApproved retrieves the most recently registered approved businesses.
func (r *BusinessRepository) RecentApproved(ctx context.Context, limit int) ([]*Business, error) {
	var businesses []*Business
	query := `SELECT ` + businessColumns + ` FROM businesses WHERE state = ? ORDER BY id DESC LIMIT ?`
	if err := r.db.SelectContext(ctx, &businesses, query, StateApproved, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent businesses: %w", err)
	}
	return businesses, nil
}

// GetAll retrieves every business regardless of state, newest first.
// Used by the admin console.
func (r *BusinessRepository) GetAll(ctx context.Context) ([]*Business, error) {
	var businesses []*Business
	query := `SELECT ` + businessColumns + ` FROM businesses ORDER BY id DESC`
	if err := r.db.SelectContext(ctx, &businesses, query); err != nil {
		return nil, fmt.Errorf("failed to get all businesses: %w", err)
	}
	return businesses, nil
}

// SetState transitions a business to the given moderation state.
func (r *BusinessRepository) SetState(ctx context.Context, id int64, state string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE businesses SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("failed to set business state: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no business found to update with id %d", id)
	}
	return nil
}

// Delete removes a business. Child content rows are removed by the
// ON DELETE CASCADE foreign keys.
func (r *BusinessRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("no business found to delete with id %d", id)
	}
	return nil
}

// Count returns the total number of businesses.
func (r *BusinessRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM businesses`); err != nil {
		return 0, fmt.Errorf("failed to count businesses: %w", err)
	}
	return n, nil
}

// CountByState returns the number of businesses in the given state.
func (r *BusinessRepository) CountByState(ctx context.Context, state string) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM businesses WHERE state = ?`, state); err != nil {
		return 0, fmt.Errorf("failed to count businesses by state: %w", err)
	}
	return n, nil
}
