package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.Template) error
	Update(t *model.Template) error
	GetByID(id int) (*model.Template, error)
	List(offset, limit int) ([]*model.Template, int, error)
	Delete(id int) error
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.Template) error {
	t.CreatedAt = time.Now()
	return r.DB.QueryRow(
		`INSERT INTO templates (name, subject, body, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		t.Name, t.Subject, t.Body, t.CreatedAt,
	).Scan(&t.ID)
}

func (r *TemplateRepository) Update(t *model.Template) error {
	_, err := r.DB.Exec(
		`UPDATE templates SET name=$1, subject=$2, body=$3, updated_at=NOW() WHERE id=$4`,
		t.Name, t.Subject, t.Body, t.ID,
	)
	return err
}

func (r *TemplateRepository) GetByID(id int) (*model.Template, error) {
	var t model.Template
	err := r.DB.QueryRow(
		`SELECT id, name, subject, body, created_at, updated_at FROM templates WHERE id=$1`, id,
	).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.ErrTemplateNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepository) List(offset, limit int) ([]*model.Template, int, error) {
	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM templates`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.DB.Query(
		`SELECT id, name, subject, body, created_at, updated_at FROM templates ORDER BY id DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	templates := []*model.Template{}
	for rows.Next() {
		var t model.Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		templates = append(templates, &t)
	}
	return templates, total, rows.Err()
}

func (r *TemplateRepository) Delete(id int) error {
	res, err := r.DB.Exec(`DELETE FROM templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.ErrTemplateNotFound
	}
	return nil
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
