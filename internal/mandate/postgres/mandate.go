package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/digital-notary/internal/core/database"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"gorm.io/gorm"
)

type MandateRepository struct {
	db *gorm.DB
}

func NewMandateRepository(db *gorm.DB) mandate.Repository {
	return &MandateRepository{db: db}
}

func (r *MandateRepository) Create(ctx context.Context, m *mandateDatamodel.Mandate) error {
	return database.Translate(r.db.WithContext(ctx).Create(m).Error)
}

func (r *MandateRepository) GetByID(ctx context.Context, id string) (*mandateDatamodel.Mandate, error) {
	var m mandateDatamodel.Mandate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &m, nil
}

func (r *MandateRepository) GetByUserAndCompany(ctx context.Context, userID, companyID string) (*mandateDatamodel.Mandate, error) {
	var m mandateDatamodel.Mandate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error
	if err != nil {
		return nil, database.Translate(err)
	}
	return &m, nil
}

func (r *MandateRepository) ListByUser(ctx context.Context, userID string) ([]*mandateDatamodel.Mandate, error) {
	var mandates []*mandateDatamodel.Mandate
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&mandates).Error
	return mandates, database.Translate(err)
}

func (r *MandateRepository) ListByCompany(ctx context.Context, companyID string) ([]*mandateDatamodel.Mandate, error) {
	var mandates []*mandateDatamodel.Mandate
	err := r.db.WithContext(ctx).Where("company_id = ?", companyID).Order("created_at ASC").Find(&mandates).Error
	return mandates, database.Translate(err)
}

func (r *MandateRepository) TransitionStatus(ctx context.Context, id, from, to string) (*mandateDatamodel.Mandate, error) {
	res := r.db.WithContext(ctx).Model(&mandateDatamodel.Mandate{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, database.Translate(res.Error)
	}

	m, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected == 0 {
		return nil, mandate.ErrStatusChanged
	}
	return m, nil
}

func (r *MandateRepository) ListOverdue(ctx context.Context, now time.Time) ([]*mandateDatamodel.Mandate, error) {
	var mandates []*mandateDatamodel.Mandate
	err := r.db.WithContext(ctx).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until <= ?", mandate.StatusActive, now).
		Order("valid_until ASC").
		Find(&mandates).Error
	return mandates, database.Translate(err)
}
