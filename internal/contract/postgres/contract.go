package postgres

import (
	"context"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/contract"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	"gorm.io/gorm"
)

type ContractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) contract.Repository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, c *contractDatamodel.Contract) error {
	return database.Translate(r.db.WithContext(ctx).Create(c).Error)
}

func (r *ContractRepository) GetByID(ctx context.Context, id string) (*contractDatamodel.Contract, error) {
	var c contractDatamodel.Contract
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &c, nil
}

func (r *ContractRepository) ListByOwner(ctx context.Context, ownerEmail string) ([]*contractDatamodel.Contract, error) {
	var contracts []*contractDatamodel.Contract
	err := r.db.WithContext(ctx).
		Where("owner_email = ?", ownerEmail).
		Order("created_at DESC").
		Find(&contracts).Error
	return contracts, database.Translate(err)
}

func (r *ContractRepository) ListByIDs(ctx context.Context, ids []string) ([]*contractDatamodel.Contract, error) {
	var contracts []*contractDatamodel.Contract
	if len(ids) == 0 {
		return contracts, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&contracts).Error
	return contracts, database.Translate(err)
}

func (r *ContractRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*contractDatamodel.Contract, error) {
	updates = database.StripImmutable(updates)
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	res := r.db.WithContext(ctx).Model(&contractDatamodel.Contract{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, database.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, internal.ErrNotFound
	}
	return r.GetByID(ctx, id)
}
