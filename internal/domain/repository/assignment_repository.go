package repository

import (
	"assignment_desk/internal/common"
	"assignment_desk/internal/domain/model"
	"context"
	"database/sql"

	"github.com/pkg/errors"
)

type AssignmentRepository interface {
	Create(ctx context.Context, a *model.Assignment) error
	FindByID(ctx context.Context, id string) (*model.Assignment, error)
	// Update persists task, status, feedback and the assigned admin set.
	Update(ctx context.Context, a *model.Assignment) error
	Delete(ctx context.Context, id string) error
	// ListByCreator returns the assignments created by userID, newest first.
	ListByCreator(ctx context.Context, userID string) ([]model.Assignment, error)
	// ListByAdmin returns the assignments adminID is assigned to, newest first.
	ListByAdmin(ctx context.Context, adminID string) ([]model.Assignment, error)
}

type pgAssignmentRepository struct {
	db *sql.DB
}

func NewPgAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &pgAssignmentRepository{db: db}
}

const assignmentColumns = `a.id, a.user_id, a.task, a.status, a.feedback, a.created_at, a.updated_at`

func (r *pgAssignmentRepository) Create(ctx context.Context, a *model.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Create begin")
	}
	defer tx.Rollback()

	query := `INSERT INTO assignments (id, user_id, task, status, feedback)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING created_at, updated_at`
	err = tx.QueryRowContext(ctx, query, a.ID, a.UserID, a.Task, a.Status, a.Feedback).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Create insert")
	}

	if err := r.insertAdmins(ctx, tx, a.ID, a.AssignedAdmins); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Create commit")
	}
	return nil
}

func (r *pgAssignmentRepository) FindByID(ctx context.Context, id string) (*model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a WHERE a.id = $1`
	a := &model.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.Task, &a.Status, &a.Feedback, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, errors.Wrap(err, "pgAssignmentRepository.FindByID")
	}

	admins, err := r.loadAdmins(ctx, []string{a.ID})
	if err != nil {
		return nil, err
	}
	a.AssignedAdmins = admins[a.ID]
	return a, nil
}

func (r *pgAssignmentRepository) Update(ctx context.Context, a *model.Assignment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Update begin")
	}
	defer tx.Rollback()

	query := `UPDATE assignments SET task = $1, status = $2, feedback = $3, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $4
	          RETURNING updated_at`
	err = tx.QueryRowContext(ctx, query, a.Task, a.Status, a.Feedback, a.ID).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return errors.Wrap(err, "pgAssignmentRepository.Update")
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM assignment_admins WHERE assignment_id = $1`, a.ID); err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Update clear admins")
	}
	if err := r.insertAdmins(ctx, tx, a.ID, a.AssignedAdmins); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Update commit")
	}
	return nil
}

func (r *pgAssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assignments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Delete")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.Delete rows affected")
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgAssignmentRepository) ListByCreator(ctx context.Context, userID string) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a
	          WHERE a.user_id = $1
	          ORDER BY a.created_at DESC, a.id DESC`
	return r.list(ctx, "pgAssignmentRepository.ListByCreator", query, userID)
}

func (r *pgAssignmentRepository) ListByAdmin(ctx context.Context, adminID string) ([]model.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments a
	          JOIN assignment_admins aa ON aa.assignment_id = a.id
	          WHERE aa.admin_id = $1
	          ORDER BY a.created_at DESC, a.id DESC`
	return r.list(ctx, "pgAssignmentRepository.ListByAdmin", query, adminID)
}

func (r *pgAssignmentRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]model.Assignment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, op+" query")
	}
	defer rows.Close()

	assignments := []model.Assignment{}
	var ids []string
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.UserID, &a.Task, &a.Status, &a.Feedback, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.Wrap(err, op+" scan")
		}
		assignments = append(assignments, a)
		ids = append(ids, a.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, op+" rows.Err")
	}

	admins, err := r.loadAdmins(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range assignments {
		assignments[i].AssignedAdmins = admins[assignments[i].ID]
	}
	return assignments, nil
}

// loadAdmins returns the admin IDs of each assignment in ids, in stored order.
func (r *pgAssignmentRepository) loadAdmins(ctx context.Context, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query := `SELECT assignment_id, admin_id FROM assignment_admins
	          WHERE assignment_id = ANY($1)
	          ORDER BY assignment_id, position ASC`
	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, errors.Wrap(err, "pgAssignmentRepository.loadAdmins query")
	}
	defer rows.Close()

	for rows.Next() {
		var assignmentID, adminID string
		if err := rows.Scan(&assignmentID, &adminID); err != nil {
			return nil, errors.Wrap(err, "pgAssignmentRepository.loadAdmins scan")
		}
		out[assignmentID] = append(out[assignmentID], adminID)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "pgAssignmentRepository.loadAdmins rows.Err")
	}
	return out, nil
}

func (r *pgAssignmentRepository) insertAdmins(ctx context.Context, tx *sql.Tx, assignmentID string, adminIDs []string) error {
	if len(adminIDs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO assignment_admins (assignment_id, admin_id, position) VALUES ($1, $2, $3)`)
	if err != nil {
		return errors.Wrap(err, "pgAssignmentRepository.insertAdmins prepare")
	}
	defer stmt.Close()

	for i, adminID := range adminIDs {
		if _, err := stmt.ExecContext(ctx, assignmentID, adminID, i); err != nil {
			return errors.Wrapf(err, "pgAssignmentRepository.insertAdmins exec for admin %s", adminID)
		}
	}
	return nil
}
