package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	Update(c *model.Campaign) error
	GetByID(id int) (*model.Campaign, error)
	List(offset, limit int, status, segment string) ([]*model.Campaign, int, error)

	// Status machine. The WHERE clause on the prior status makes each
	// transition race-safe; ok=false means the row was not in `from`.
	Transition(campaignID int, from, to model.CampaignStatus) (bool, error)
	ListByStatus(status model.CampaignStatus) ([]*model.Campaign, error)
	MarkStarted(campaignID int) error
	MarkCompleted(campaignID int) error

	IncrementCounter(campaignID int, counter string) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, name, description, segment, template_id, subject, status,
	rate_limit_per_hour, dry_run, resend_enabled, resend_delay_hours, resend_subject,
	sent_count, delivered_count, opened_count, clicked_count, bounced_count,
	complained_count, failed_count, scheduled_at, started_at, completed_at,
	created_at, updated_at`

func scanCampaign(row interface{ Scan(...any) error }) (*model.Campaign, error) {
	var c model.Campaign
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Segment, &c.TemplateID, &c.Subject, &c.Status,
		&c.RateLimitPerHour, &c.DryRun, &c.ResendEnabled, &c.ResendDelayHours, &c.ResendSubject,
		&c.SentCount, &c.DeliveredCount, &c.OpenedCount, &c.ClickedCount, &c.BouncedCount,
		&c.ComplainedCount, &c.FailedCount, &c.ScheduledAt, &c.StartedAt, &c.CompletedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignDraft
	}
	query := `
        INSERT INTO campaigns (name, description, segment, template_id, subject, status,
            rate_limit_per_hour, dry_run, resend_enabled, resend_delay_hours, resend_subject,
            scheduled_at, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.Name, c.Description, c.Segment, c.TemplateID, c.Subject, c.Status,
		c.RateLimitPerHour, c.DryRun, c.ResendEnabled, c.ResendDelayHours, c.ResendSubject,
		c.ScheduledAt, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, description=$2, segment=$3, template_id=$4, subject=$5,
            rate_limit_per_hour=$6, dry_run=$7, resend_enabled=$8, resend_delay_hours=$9,
            resend_subject=$10, scheduled_at=$11, updated_at=NOW()
        WHERE id=$12
    `
	_, err := r.DB.Exec(query,
		c.Name, c.Description, c.Segment, c.TemplateID, c.Subject,
		c.RateLimitPerHour, c.DryRun, c.ResendEnabled, c.ResendDelayHours,
		c.ResendSubject, c.ScheduledAt, c.ID,
	)
	return err
}

func (r *CampaignRepository) GetByID(id int) (*model.Campaign, error) {
	c, err := scanCampaign(r.DB.QueryRow(
		`SELECT `+campaignColumns+` FROM campaigns WHERE id=$1`, id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) List(offset, limit int, status, segment string) ([]*model.Campaign, int, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE 1=1`
	args := []any{}
	argPos := 1

	if status != "" {
		clause := fmt.Sprintf(" AND status=$%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, status)
		argPos++
	}
	if segment != "" {
		clause := fmt.Sprintf(" AND segment=$%d", argPos)
		query += clause
		countQuery += clause
		args = append(args, segment)
		argPos++
	}

	var total int
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, total, rows.Err()
}

func (r *CampaignRepository) Transition(campaignID int, from, to model.CampaignStatus) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE campaigns SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`,
		to, campaignID, from,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *CampaignRepository) ListByStatus(status model.CampaignStatus) ([]*model.Campaign, error) {
	rows, err := r.DB.Query(
		`SELECT `+campaignColumns+` FROM campaigns WHERE status=$1 ORDER BY id`, status,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	campaigns := []*model.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *CampaignRepository) MarkStarted(campaignID int) error {
	_, err := r.DB.Exec(
		`UPDATE campaigns SET started_at=COALESCE(started_at, NOW()), updated_at=NOW() WHERE id=$1`,
		campaignID,
	)
	return err
}

func (r *CampaignRepository) MarkCompleted(campaignID int) error {
	_, err := r.DB.Exec(
		`UPDATE campaigns SET completed_at=NOW(), updated_at=NOW() WHERE id=$1`,
		campaignID,
	)
	return err
}

// counterColumns whitelists the campaign aggregate columns counter updates,
// here and in the email repository, may touch.
var counterColumns = map[string]bool{
	"sent_count":       true,
	"delivered_count":  true,
	"opened_count":     true,
	"clicked_count":    true,
	"bounced_count":    true,
	"complained_count": true,
	"failed_count":     true,
}

func (r *CampaignRepository) IncrementCounter(campaignID int, counter string) error {
	if !counterColumns[counter] {
		return fmt.Errorf("unknown campaign counter %q", counter)
	}
	query := fmt.Sprintf(
		`UPDATE campaigns SET %s=%s+1, updated_at=NOW() WHERE id=$1`, counter, counter,
	)
	_, err := r.DB.Exec(query, campaignID)
	return err
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
