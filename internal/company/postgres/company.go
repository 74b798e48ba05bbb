package postgres

import (
	"context"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/company"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	mandateDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"gorm.io/gorm"
)

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) company.Repository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) CreateWithMandate(ctx context.Context, c *companyDatamodel.Company, m *mandateDatamodel.Mandate) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return err
		}
		return tx.Create(m).Error
	})
	return database.Translate(err)
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*companyDatamodel.Company, error) {
	var c companyDatamodel.Company
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &c, nil
}

func (r *CompanyRepository) GetByICO(ctx context.Context, ico string) (*companyDatamodel.Company, error) {
	var c companyDatamodel.Company
	if err := r.db.WithContext(ctx).Where("ico = ?", ico).First(&c).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &c, nil
}

func (r *CompanyRepository) ListByIDs(ctx context.Context, ids []string) ([]*companyDatamodel.Company, error) {
	var companies []*companyDatamodel.Company
	if len(ids) == 0 {
		return companies, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&companies).Error
	return companies, database.Translate(err)
}

func (r *CompanyRepository) UpdateSecurity(ctx context.Context, id string, enforceTwoFactorAuth bool) (*companyDatamodel.Company, error) {
	res := r.db.WithContext(ctx).Model(&companyDatamodel.Company{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"enforce_two_factor_auth": enforceTwoFactorAuth,
			"updated_at":              time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, database.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, internal.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
