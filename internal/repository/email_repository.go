package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/unclebandit/outreach-backend/internal/model"
)

type EmailRepositoryInterface interface {
	CreateForCampaign(campaignID, customerID int, recipient string) (*model.Email, error)
	CreateResend(original *model.Email, subject string) (*model.Email, error)
	GetByID(id int) (*model.Email, error)
	GetByProviderMessageID(providerMessageID string) (*model.Email, error)
	ListByCampaign(campaignID int, status model.EmailStatus, limit int) ([]*model.Email, error)

	ClaimPending(campaignID, limit int) ([]int, error)
	RequeueStale(olderThan time.Time) (int, error)
	MarkSent(id int, providerMessageID, subject, body string) error
	MarkFailed(id int, lastError string) error
	AdvanceStatus(id int, from []model.EmailStatus, to model.EmailStatus, counter string) (bool, error)
	SetFirstOpened(id int, at time.Time) (bool, error)
	SetFirstClicked(id int, at time.Time) (bool, error)

	CountSentSince(campaignID int, since time.Time) (int, error)
	CountUnfinished(campaignID int) (int, error)
	CountAwaitingResend(campaignID int) (int, error)
	StatsByCampaign(campaignID int) (map[string]int, error)

	ListResendCandidates(campaignID int, cutoff time.Time, limit int) ([]*model.Email, error)
	MarkResendQueued(id int) (bool, error)
}

type EmailRepository struct {
	DB *sql.DB
}

const emailColumns = `id, campaign_id, customer_id, recipient, subject, body, status,
	provider_message_id, last_error, retry_count, is_resend, resend_queued,
	sent_at, first_opened_at, first_clicked_at, created_at, updated_at`

func scanEmail(row interface{ Scan(...any) error }) (*model.Email, error) {
	var e model.Email
	err := row.Scan(
		&e.ID, &e.CampaignID, &e.CustomerID, &e.Recipient, &e.Subject, &e.Body, &e.Status,
		&e.ProviderMessageID, &e.LastError, &e.RetryCount, &e.IsResend, &e.ResendQueued,
		&e.SentAt, &e.FirstOpenedAt, &e.FirstClickedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateForCampaign inserts a pending email for the campaign/customer pair.
// Duplicate pairs are ignored so campaign starts are idempotent.
func (r *EmailRepository) CreateForCampaign(campaignID, customerID int, recipient string) (*model.Email, error) {
	query := `
        INSERT INTO emails (campaign_id, customer_id, recipient, status)
        VALUES ($1, $2, $3, 'pending')
        ON CONFLICT (campaign_id, customer_id, is_resend) DO NOTHING
        RETURNING ` + emailColumns
	e, err := scanEmail(r.DB.QueryRow(query, campaignID, customerID, recipient))
	if err == sql.ErrNoRows {
		// Already present from an earlier start.
		return r.getByPair(campaignID, customerID, false)
	}
	return e, err
}

func (r *EmailRepository) getByPair(campaignID, customerID int, isResend bool) (*model.Email, error) {
	e, err := scanEmail(r.DB.QueryRow(
		`SELECT `+emailColumns+` FROM emails WHERE campaign_id=$1 AND customer_id=$2 AND is_resend=$3`,
		campaignID, customerID, isResend,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

// CreateResend inserts a pending follow-up row for an unopened email, carrying
// the campaign's alternate subject.
func (r *EmailRepository) CreateResend(original *model.Email, subject string) (*model.Email, error) {
	query := `
        INSERT INTO emails (campaign_id, customer_id, recipient, subject, status, is_resend)
        VALUES ($1, $2, $3, $4, 'pending', TRUE)
        ON CONFLICT (campaign_id, customer_id, is_resend) DO NOTHING
        RETURNING ` + emailColumns
	e, err := scanEmail(r.DB.QueryRow(query,
		original.CampaignID, original.CustomerID, original.Recipient, subject,
	))
	if err == sql.ErrNoRows {
		return r.getByPair(original.CampaignID, original.CustomerID, true)
	}
	return e, err
}

func (r *EmailRepository) GetByID(id int) (*model.Email, error) {
	e, err := scanEmail(r.DB.QueryRow(
		`SELECT `+emailColumns+` FROM emails WHERE id=$1`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EmailRepository) GetByProviderMessageID(providerMessageID string) (*model.Email, error) {
	e, err := scanEmail(r.DB.QueryRow(
		`SELECT `+emailColumns+` FROM emails WHERE provider_message_id=$1`, providerMessageID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func (r *EmailRepository) ListByCampaign(campaignID int, status model.EmailStatus, limit int) ([]*model.Email, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE campaign_id=$1`
	args := []any{campaignID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY id LIMIT ` + itoa(limit)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []*model.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// ClaimPending flips up to limit pending emails to queued and returns their
// ids. The UPDATE ... RETURNING keeps concurrent dispatch ticks from claiming
// the same rows.
func (r *EmailRepository) ClaimPending(campaignID, limit int) ([]int, error) {
	query := `
        UPDATE emails SET status='queued', updated_at=NOW()
        WHERE id IN (
            SELECT id FROM emails
            WHERE campaign_id=$1 AND status='pending'
            ORDER BY id
            LIMIT $2
            FOR UPDATE SKIP LOCKED
        )
        RETURNING id
    `
	rows, err := r.DB.Query(query, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// RequeueStale returns queued rows that never reached a worker (a publish
// failure or a worker crash) to pending so the dispatcher reclaims them.
func (r *EmailRepository) RequeueStale(olderThan time.Time) (int, error) {
	res, err := r.DB.Exec(
		`UPDATE emails SET status='pending', updated_at=NOW() WHERE status='queued' AND updated_at < $1`,
		olderThan,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (r *EmailRepository) MarkSent(id int, providerMessageID, subject, body string) error {
	_, err := r.DB.Exec(`
        UPDATE emails
        SET status='sent', provider_message_id=$1, subject=$2, body=$3,
            last_error='', sent_at=NOW(), updated_at=NOW()
        WHERE id=$4
    `, providerMessageID, subject, body, id)
	return err
}

func (r *EmailRepository) MarkFailed(id int, lastError string) error {
	_, err := r.DB.Exec(`
        UPDATE emails
        SET status='failed', last_error=$1, retry_count=retry_count+1, updated_at=NOW()
        WHERE id=$2
    `, lastError, id)
	return err
}

// AdvanceStatus moves an email forward only when its current status is in
// from; replayed webhooks fall through without effect. When counter names a
// campaign aggregate, the bump rides the same statement so a retried event
// can never advance the row without counting.
func (r *EmailRepository) AdvanceStatus(id int, from []model.EmailStatus, to model.EmailStatus, counter string) (bool, error) {
	if counter == "" {
		res, err := r.DB.Exec(
			`UPDATE emails SET status=$1, updated_at=NOW() WHERE id=$2 AND status=ANY($3)`,
			to, id, statusArray(from),
		)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		return n > 0, err
	}

	if !counterColumns[counter] {
		return false, fmt.Errorf("unknown campaign counter %q", counter)
	}
	query := fmt.Sprintf(`
        WITH advanced AS (
            UPDATE emails SET status=$1, updated_at=NOW()
            WHERE id=$2 AND status=ANY($3)
            RETURNING campaign_id
        )
        UPDATE campaigns SET %s=%s+1, updated_at=NOW()
        FROM advanced WHERE campaigns.id=advanced.campaign_id
    `, counter, counter)
	res, err := r.DB.Exec(query, to, id, statusArray(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SetFirstOpened stamps the first open and bumps the campaign's opened_count
// in the same statement. Later opens fall through.
func (r *EmailRepository) SetFirstOpened(id int, at time.Time) (bool, error) {
	res, err := r.DB.Exec(`
        WITH flagged AS (
            UPDATE emails SET first_opened_at=$1, updated_at=NOW()
            WHERE id=$2 AND first_opened_at IS NULL
            RETURNING campaign_id
        )
        UPDATE campaigns SET opened_count=opened_count+1, updated_at=NOW()
        FROM flagged WHERE campaigns.id=flagged.campaign_id
    `, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EmailRepository) SetFirstClicked(id int, at time.Time) (bool, error) {
	res, err := r.DB.Exec(`
        WITH flagged AS (
            UPDATE emails SET first_clicked_at=$1, updated_at=NOW()
            WHERE id=$2 AND first_clicked_at IS NULL
            RETURNING campaign_id
        )
        UPDATE campaigns SET clicked_count=clicked_count+1, updated_at=NOW()
        FROM flagged WHERE campaigns.id=flagged.campaign_id
    `, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *EmailRepository) CountSentSince(campaignID int, since time.Time) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM emails WHERE campaign_id=$1 AND sent_at >= $2`,
		campaignID, since,
	).Scan(&count)
	return count, err
}

// CountUnfinished counts emails the dispatcher still owes work for.
func (r *EmailRepository) CountUnfinished(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM emails WHERE campaign_id=$1 AND status IN ('pending', 'queued')`,
		campaignID,
	).Scan(&count)
	return count, err
}

// CountAwaitingResend counts delivered-but-unopened originals that may still
// spawn a follow-up. The dispatcher keeps the campaign sending while any
// remain.
func (r *EmailRepository) CountAwaitingResend(campaignID int) (int, error) {
	var count int
	err := r.DB.QueryRow(`
        SELECT COUNT(*) FROM emails
        WHERE campaign_id=$1 AND status='delivered' AND is_resend=FALSE AND resend_queued=FALSE
    `, campaignID).Scan(&count)
	return count, err
}

func (r *EmailRepository) StatsByCampaign(campaignID int) (map[string]int, error) {
	rows, err := r.DB.Query(
		`SELECT status, COUNT(*) FROM emails WHERE campaign_id=$1 GROUP BY status`,
		campaignID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{
		"total": 0, "pending": 0, "queued": 0, "sent": 0, "delivered": 0,
		"opened": 0, "clicked": 0, "bounced": 0, "complained": 0, "failed": 0,
	}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		if _, ok := stats[status]; ok {
			stats[status] = count
		}
		stats["total"] += count
	}
	return stats, rows.Err()
}

// ListResendCandidates returns delivered-but-unopened originals older than
// cutoff that have not yet spawned a resend.
func (r *EmailRepository) ListResendCandidates(campaignID int, cutoff time.Time, limit int) ([]*model.Email, error) {
	query := `
        SELECT ` + emailColumns + ` FROM emails
        WHERE campaign_id=$1 AND status='delivered' AND is_resend=FALSE
          AND resend_queued=FALSE AND sent_at < $2
        ORDER BY id
        LIMIT $3
    `
	rows, err := r.DB.Query(query, campaignID, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []*model.Email{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

func (r *EmailRepository) MarkResendQueued(id int) (bool, error) {
	res, err := r.DB.Exec(
		`UPDATE emails SET resend_queued=TRUE, updated_at=NOW() WHERE id=$1 AND resend_queued=FALSE`,
		id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

var _ EmailRepositoryInterface = (*EmailRepository)(nil)
