package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/ratiba/core/substitution"
)

type requestRow struct {
	ID                  string    `db:"id"`
	OriginalTeacherID   string    `db:"original_teacher_id"`
	SubstituteTeacherID string    `db:"substitute_teacher_id"`
	TimetableID         string    `db:"timetable_id"`
	Reason              string    `db:"reason"`
	RequestDate         time.Time `db:"request_date"`
	SubstituteDate      time.Time `db:"substitute_date"`
	Status              string    `db:"status"`
	ApprovedBy          string    `db:"approved_by"`
	Comments            string    `db:"comments"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func newRequestRow(r substitution.Request) requestRow {
	return requestRow{
		ID:                  r.ID,
		OriginalTeacherID:   r.OriginalTeacherID,
		SubstituteTeacherID: r.SubstituteTeacherID,
		TimetableID:         r.TimetableID,
		Reason:              r.Reason,
		RequestDate:         r.RequestDate,
		SubstituteDate:      r.SubstituteDate,
		Status:              string(r.Status),
		ApprovedBy:          r.ApprovedBy,
		Comments:            r.Comments,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func (row requestRow) request() substitution.Request {
	return substitution.Request{
		ID:                  row.ID,
		OriginalTeacherID:   row.OriginalTeacherID,
		SubstituteTeacherID: row.SubstituteTeacherID,
		TimetableID:         row.TimetableID,
		Reason:              row.Reason,
		RequestDate:         row.RequestDate,
		SubstituteDate:      row.SubstituteDate,
		Status:              substitution.Status(row.Status),
		ApprovedBy:          row.ApprovedBy,
		Comments:            row.Comments,
		CreatedAt:           row.CreatedAt,
		UpdatedAt:           row.UpdatedAt,
	}
}

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) substitution.Repository {
	return &requestRepository{db: db}
}

func (repo *requestRepository) CreateRequest(r substitution.Request) (substitution.Request, error) {
	const query = `
		INSERT INTO substitute_request (
			id, original_teacher_id, substitute_teacher_id, timetable_id, reason,
			request_date, substitute_date, status, approved_by, comments,
			created_at, updated_at
		) VALUES (
			:id, :original_teacher_id, :substitute_teacher_id, :timetable_id, :reason,
			:request_date, :substitute_date, :status, :approved_by, :comments,
			:created_at, :updated_at
		)`
	if _, err := repo.db.NamedExec(query, newRequestRow(r)); err != nil {
		return substitution.Request{}, err
	}
	return r, nil
}

func (repo *requestRepository) GetRequestByID(id string) (substitution.Request, error) {
	var row requestRow
	if err := repo.db.Get(&row, `SELECT * FROM substitute_request WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return substitution.Request{}, substitution.ErrRequestNotFound
		}
		return substitution.Request{}, err
	}
	return row.request(), nil
}

func (repo *requestRepository) QueryAllRequests() ([]substitution.Request, error) {
	var rows []requestRow
	if err := repo.db.Select(&rows, `SELECT * FROM substitute_request ORDER BY created_at`); err != nil {
		return nil, err
	}
	return requests(rows), nil
}

func (repo *requestRepository) FilterRequests(filter substitution.QueryFilter) ([]substitution.Request, error) {
	query := `SELECT * FROM substitute_request WHERE 1=1`
	args := make([]interface{}, 0, 3)

	if filter.OriginalTeacherID != "" {
		args = append(args, filter.OriginalTeacherID)
		query += ` AND original_teacher_id = $` + itoa(len(args))
	}
	if filter.SubstituteTeacherID != "" {
		args = append(args, filter.SubstituteTeacherID)
		query += ` AND substitute_teacher_id = $` + itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + itoa(len(args))
	}
	query += ` ORDER BY created_at`

	var rows []requestRow
	if err := repo.db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	return requests(rows), nil
}

func (repo *requestRepository) UpdateRequest(r substitution.Request) (substitution.Request, error) {
	const query = `
		UPDATE substitute_request SET
			original_teacher_id = :original_teacher_id,
			substitute_teacher_id = :substitute_teacher_id,
			timetable_id = :timetable_id, reason = :reason,
			request_date = :request_date, substitute_date = :substitute_date,
			status = :status, approved_by = :approved_by, comments = :comments,
			updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExec(query, newRequestRow(r))
	if err != nil {
		return substitution.Request{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return substitution.Request{}, substitution.ErrRequestNotFound
	}
	return r, nil
}

func requests(rows []requestRow) []substitution.Request {
	out := make([]substitution.Request, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.request())
	}
	return out
}
