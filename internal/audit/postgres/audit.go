package postgres

import (
	"context"

	"github.com/frahmantamala/digital-notary/internal/audit"
	auditDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
	"github.com/jmoiron/sqlx"
)

const selectColumns = `SELECT id, timestamp, action, details, user_id, company_id FROM audit_logs`

// AuditRepository writes through sqlx; queries are rebound so the same SQL
// runs on postgres and on the sqlite demo store.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(ctx context.Context, l *auditDatamodel.Log) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO audit_logs (id, timestamp, action, details, user_id, company_id)
		 VALUES (:id, :timestamp, :action, :details, :user_id, :company_id)`, l)
	return err
}

func (r *AuditRepository) ListByCompany(ctx context.Context, companyID string) ([]*auditDatamodel.Log, error) {
	logs := []*auditDatamodel.Log{}
	query := r.db.Rebind(selectColumns + ` WHERE company_id = ? ORDER BY timestamp DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &logs, query, companyID); err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *AuditRepository) ListByUser(ctx context.Context, userID string) ([]*auditDatamodel.Log, error) {
	logs := []*auditDatamodel.Log{}
	query := r.db.Rebind(selectColumns + ` WHERE user_id = ? ORDER BY timestamp DESC, id DESC`)
	if err := r.db.SelectContext(ctx, &logs, query, userID); err != nil {
		return nil, err
	}
	return logs, nil
}
