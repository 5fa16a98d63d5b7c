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

// IStudentRepository defines student profile storage operations.
type IStudentRepository interface {
	CreateStudent(ctx context.Context, student *models.Student) error
	GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error)
	StudentCodeExists(ctx context.Context, studentCode string) (bool, error)
	GetStudentsByFamilyCode(ctx context.Context, familyCode string) ([]*models.Student, error)
	CountStudentsByFamilyCode(ctx context.Context, familyCode string) (int64, error)
	SetParentFamilyCode(ctx context.Context, userID int64, familyCode *string) error
	UpdateStudent(ctx context.Context, student *models.Student) error
	ListStudents(ctx context.Context, linked *bool, offset uint64, limit int) ([]*models.Student, int64, error)
	WithTx(tx pgx.Tx) IStudentRepository
}

// StudentRepository handles student profile database operations
type StudentRepository struct {
	db Querier
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// WithTx returns a copy of the repository bound to the given transaction.
func (r *StudentRepository) WithTx(tx pgx.Tx) IStudentRepository {
	return &StudentRepository{db: tx, sb: r.sb}
}

const studentColumns = "user_id, uuid, student_code, parent_family_code, grade, class_name, created_at, updated_at"

func scanStudent(row pgx.Row) (*models.Student, error) {
	student := &models.Student{}
	err := row.Scan(
		&student.UserID, &student.UUID, &student.StudentCode, &student.ParentFamilyCode,
		&student.Grade, &student.ClassName, &student.CreatedAt, &student.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return student, nil
}

// CreateStudent inserts a student profile row. The unique constraint on
// student_code is the authoritative guard against concurrent code claims;
// callers retry with a fresh code on ErrStudentCodeExists.
func (r *StudentRepository) CreateStudent(ctx context.Context, student *models.Student) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO students (user_id, student_code, parent_family_code, grade, class_name)
		VALUES ($1, $2, $3, $4, $5)`,
		student.UserID, student.StudentCode, student.ParentFamilyCode, student.Grade, student.ClassName)

	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "students_student_code_key") {
			logger.Warn().Str("studentCode", student.StudentCode).Msg("Student code collided on insert")
			return apperrors.ErrStudentCodeExists
		}
		if dberrors.IsDuplicateConstraintError(err, "students_pkey") {
			return apperrors.ErrProfileExists
		}
		return fmt.Errorf("error creating student profile: %w", err)
	}

	logger.Info().Int64("userID", student.UserID).Str("studentCode", student.StudentCode).Msg("Student profile created")
	return nil
}

// GetStudentByUserID retrieves a student profile by its owning user ID
func (r *StudentRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	row := r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE user_id = $1`, userID)
	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error retrieving student profile: %w", err)
	}
	return student, nil
}

// StudentCodeExists checks whether a student code is already claimed
func (r *StudentRepository) StudentCodeExists(ctx context.Context, studentCode string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM students WHERE student_code = $1)`, studentCode).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking student code: %w", err)
	}
	return exists, nil
}

// GetStudentsByFamilyCode returns every student whose stored code matches the
// given family code. Siblings share one code, so this can return many rows.
func (r *StudentRepository) GetStudentsByFamilyCode(ctx context.Context, familyCode string) ([]*models.Student, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+studentColumns+` FROM students WHERE parent_family_code = $1 ORDER BY created_at`, familyCode)
	if err != nil {
		return nil, fmt.Errorf("error listing students by family code: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student rows: %w", err)
	}

	return students, nil
}

// CountStudentsByFamilyCode counts the students holding the given family code
func (r *StudentRepository) CountStudentsByFamilyCode(ctx context.Context, familyCode string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM students WHERE parent_family_code = $1`, familyCode).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting students by family code: %w", err)
	}
	return count, nil
}

// SetParentFamilyCode stores or clears the student's copy of a family code.
// Passing nil clears the link; both directions are idempotent.
func (r *StudentRepository) SetParentFamilyCode(ctx context.Context, userID int64, familyCode *string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE students SET parent_family_code = $1, updated_at = $2 WHERE user_id = $3`,
		familyCode, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("error setting parent family code: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// UpdateStudent updates the mutable academic fields. Student code and family
// code linkage are managed by their own operations.
func (r *StudentRepository) UpdateStudent(ctx context.Context, student *models.Student) error {
	sql, args, err := r.sb.Update("students").
		Set("grade", student.Grade).
		Set("class_name", student.ClassName).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"user_id": student.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("error updating student profile: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}

	return nil
}

// linkedCondition matches students holding (or lacking) a usable stored
// family code. An empty string stored directly in the column counts the same
// as NULL.
func linkedCondition(linked bool) squirrel.Sqlizer {
	if linked {
		return squirrel.And{
			squirrel.NotEq{"parent_family_code": nil},
			squirrel.NotEq{"parent_family_code": ""},
		}
	}
	return squirrel.Or{
		squirrel.Eq{"parent_family_code": nil},
		squirrel.Eq{"parent_family_code": ""},
	}
}

// ListStudents retrieves a page of students with the total count. When linked
// is non-nil the result is filtered to students with (or without) a stored
// family code; note a dangling code still counts as "linked" at this layer.
func (r *StudentRepository) ListStudents(ctx context.Context, linked *bool, offset uint64, limit int) ([]*models.Student, int64, error) {
	base := r.sb.Select(studentColumns).From("students")
	countBase := r.sb.Select("COUNT(*)").From("students")

	if linked != nil {
		cond := linkedCondition(*linked)
		base = base.Where(cond)
		countBase = countBase.Where(cond)
	}

	sql, args, err := base.OrderBy("created_at DESC").Offset(offset).Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating student rows: %w", err)
	}

	countSQL, countArgs, err := countBase.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count students query: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	return students, total, nil
}
