package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emre/famlink/internal/app/models"
	"github.com/emre/famlink/internal/pkg/apperrors"
	"github.com/emre/famlink/internal/pkg/dberrors"
	"github.com/emre/famlink/internal/pkg/logger"
)

// IParentRepository defines parent profile storage operations.
type IParentRepository interface {
	CreateParent(ctx context.Context, parent *models.Parent) error
	GetParentByUserID(ctx context.Context, userID int64) (*models.Parent, error)
	GetParentByFamilyCode(ctx context.Context, familyCode string) (*models.Parent, error)
	FamilyCodeExists(ctx context.Context, familyCode string) (bool, error)
	UpdateParent(ctx context.Context, parent *models.Parent) error
	WithTx(tx pgx.Tx) IParentRepository
}

// ParentRepository handles parent profile database operations
type ParentRepository struct {
	db Querier
	sb squirrel.StatementBuilderType
}

// NewParentRepository creates a new ParentRepository
func NewParentRepository(db *pgxpool.Pool) *ParentRepository {
	return &ParentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *ParentRepository) WithTx(tx pgx.Tx) IParentRepository {
	return &ParentRepository{db: tx, sb: r.sb}
}

const parentColumns = "user_id, uuid, family_code, phone_number, address, country, state, account_emails, marketing, student_updates, created_at, updated_at"

func scanParent(row pgx.Row) (*models.Parent, error) {
	parent := &models.Parent{}
	err := row.Scan(
		&parent.UserID, &parent.UUID, &parent.FamilyCode, &parent.PhoneNumber,
		&parent.Address, &parent.Country, &parent.State, &parent.AccountEmails,
		&parent.Marketing, &parent.StudentUpdates, &parent.CreatedAt, &parent.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// CreateParent inserts a parent profile row. The unique constraint on
// family_code is the authoritative guard against two parents claiming the
// same code; callers retry with a fresh code on ErrFamilyCodeExists.
func (r *ParentRepository) CreateParent(ctx context.Context, parent *models.Parent) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO parents (user_id, family_code, phone_number, address, country, state, account_emails, marketing, student_updates)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		parent.UserID, parent.FamilyCode, parent.PhoneNumber, parent.Address,
		parent.Country, parent.State, parent.AccountEmails, parent.Marketing, parent.StudentUpdates)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "parents_family_code_key") {
			logger.Warn().Str("familyCode", parent.FamilyCode).Msg("Family code collided on insert")
			return apperrors.ErrFamilyCodeExists
		}
		if dberrors.IsDuplicateConstraintError(err, "parents_pkey") {
			return apperrors.ErrProfileExists
		}
		return fmt.Errorf("error creating parent profile: %w", err)
	}

	logger.Info().Int64("userID", parent.UserID).Str("familyCode", parent.FamilyCode).Msg("Parent profile created")
	return nil
}

// GetParentByUserID retrieves a parent profile by its owning user ID
func (r *ParentRepository) GetParentByUserID(ctx context.Context, userID int64) (*models.Parent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+parentColumns+` FROM parents WHERE user_id = $1`, userID)
	parent, err := scanParent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrParentNotFound
		}
		return nil, fmt.Errorf("error retrieving parent profile: %w", err)
	}
	return parent, nil
}

// GetParentByFamilyCode resolves a family code to the parent that owns it.
// A code with no owner (for example after the parent account was deleted)
// returns ErrParentNotFound.
func (r *ParentRepository) GetParentByFamilyCode(ctx context.Context, familyCode string) (*models.Parent, error) {
	row := r.db.QueryRow(ctx, `SELECT `+parentColumns+` FROM parents WHERE family_code = $1`, familyCode)
	parent, err := scanParent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrParentNotFound
		}
		return nil, fmt.Errorf("error resolving family code: %w", err)
	}
	return parent, nil
}

// FamilyCodeExists checks whether a family code is already claimed
func (r *ParentRepository) FamilyCodeExists(ctx context.Context, familyCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM parents WHERE family_code = $1)`, familyCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking family code: %w", err)
	}
	return exists, nil
}

// UpdateParent updates the mutable contact and preference fields. The family
// code is immutable for the lifetime of the profile.
func (r *ParentRepository) UpdateParent(ctx context.Context, parent *models.Parent) error {
	sql, args, err := r.sb.Update("parents").
		Set("phone_number", parent.PhoneNumber).
		Set("address", parent.Address).
		Set("country", parent.Country).
		Set("state", parent.State).
		Set("account_emails", parent.AccountEmails).
		Set("marketing", parent.Marketing).
		Set("student_updates", parent.StudentUpdates).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"user_id": parent.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update parent query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating parent profile: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrParentNotFound
	}

	return nil
}
