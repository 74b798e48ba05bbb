package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/contract"
	"github.com/frahmantamala/digital-notary/internal/core/database"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	officeDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	"github.com/frahmantamala/digital-notary/internal/office"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OfficeRepository struct {
	db *gorm.DB
}

func NewOfficeRepository(db *gorm.DB) office.Repository {
	return &OfficeRepository{db: db}
}

func (r *OfficeRepository) CreateWithCreator(ctx context.Context, o *officeDatamodel.VirtualOffice, creator *officeDatamodel.Participant) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return err
		}
		return tx.Create(creator).Error
	})
	return database.Translate(err)
}

func (r *OfficeRepository) GetByID(ctx context.Context, id string) (*officeDatamodel.VirtualOffice, error) {
	var o officeDatamodel.VirtualOffice
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &o, nil
}

func (r *OfficeRepository) ListByIDs(ctx context.Context, ids []string) ([]*officeDatamodel.VirtualOffice, error) {
	var offices []*officeDatamodel.VirtualOffice
	if len(ids) == 0 {
		return offices, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&offices).Error
	return offices, database.Translate(err)
}

func (r *OfficeRepository) ListForUser(ctx context.Context, userID string) ([]*officeDatamodel.VirtualOffice, error) {
	var offices []*officeDatamodel.VirtualOffice
	err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&officeDatamodel.Participant{}).
			Select("office_id").
			Where("user_id = ? AND status = ?", userID, office.ParticipantAccepted)).
		Order("created_at DESC").
		Find(&offices).Error
	return offices, database.Translate(err)
}

func (r *OfficeRepository) Update(ctx context.Context, id string, updates map[string]interface{}) (*officeDatamodel.VirtualOffice, error) {
	updates = database.StripImmutable(updates)
	if len(updates) == 0 {
		return r.GetByID(ctx, id)
	}

	res := r.db.WithContext(ctx).Model(&officeDatamodel.VirtualOffice{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, database.Translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, internal.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *OfficeRepository) CreateParticipant(ctx context.Context, p *officeDatamodel.Participant) error {
	return database.Translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *OfficeRepository) GetParticipant(ctx context.Context, id string) (*officeDatamodel.Participant, error) {
	var p officeDatamodel.Participant
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &p, nil
}

func (r *OfficeRepository) GetParticipantByUser(ctx context.Context, officeID, userID string) (*officeDatamodel.Participant, error) {
	var p officeDatamodel.Participant
	err := r.db.WithContext(ctx).
		Where("office_id = ? AND user_id = ?", officeID, userID).
		First(&p).Error
	if err != nil {
		return nil, database.Translate(err)
	}
	return &p, nil
}

func (r *OfficeRepository) ListParticipants(ctx context.Context, officeID string) ([]*officeDatamodel.Participant, error) {
	var participants []*officeDatamodel.Participant
	err := r.db.WithContext(ctx).
		Where("office_id = ?", officeID).
		Order("invited_at ASC, id ASC").
		Find(&participants).Error
	return participants, database.Translate(err)
}

func (r *OfficeRepository) ListInvitations(ctx context.Context, userID string) ([]*officeDatamodel.Participant, error) {
	var participants []*officeDatamodel.Participant
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, office.ParticipantInvited).
		Order("invited_at DESC").
		Find(&participants).Error
	return participants, database.Translate(err)
}

func (r *OfficeRepository) RespondToInvitation(ctx context.Context, participantID, status string, respondedAt time.Time) (*officeDatamodel.Participant, bool, error) {
	var (
		updated   officeDatamodel.Participant
		completed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&officeDatamodel.Participant{}).
			Where("id = ? AND status = ?", participantID, office.ParticipantInvited).
			Updates(map[string]interface{}{"status": status, "responded_at": respondedAt})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("id = ?", participantID).First(&updated).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return office.ErrStatusChanged
		}
		if status != office.ParticipantAccepted {
			var err error
			completed, err = completeIfReady(tx, updated.OfficeID, respondedAt)
			return err
		}

		// a late joiner has to sign everything already attached
		var documents []*officeDatamodel.Document
		if err := tx.Where("office_id = ?", updated.OfficeID).Find(&documents).Error; err != nil {
			return err
		}
		for _, d := range documents {
			sig := &officeDatamodel.Signature{
				ID:            uuid.NewString(),
				DocumentID:    d.ID,
				ParticipantID: updated.ID,
				Status:        office.SignaturePending,
				CreatedAt:     respondedAt,
			}
			if err := tx.Create(sig).Error; err != nil {
				return err
			}
		}
		if len(documents) > 0 {
			return tx.Model(&officeDatamodel.Document{}).
				Where("office_id = ?", updated.OfficeID).
				Update("status", office.DocumentPending).Error
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, office.ErrStatusChanged) {
			return nil, false, err
		}
		return nil, false, database.Translate(err)
	}
	return &updated, completed, nil
}

func (r *OfficeRepository) AttachContract(ctx context.Context, doc *officeDatamodel.Document, officeName string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}

		var accepted []*officeDatamodel.Participant
		if err := tx.Where("office_id = ? AND status = ?", doc.OfficeID, office.ParticipantAccepted).
			Find(&accepted).Error; err != nil {
			return err
		}
		for _, p := range accepted {
			sig := &officeDatamodel.Signature{
				ID:            uuid.NewString(),
				DocumentID:    doc.ID,
				ParticipantID: p.ID,
				Status:        office.SignaturePending,
				CreatedAt:     doc.CreatedAt,
			}
			if err := tx.Create(sig).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&officeDatamodel.VirtualOffice{}).
			Where("id = ?", doc.OfficeID).
			Updates(map[string]interface{}{"name": officeName, "updated_at": doc.CreatedAt}).Error; err != nil {
			return err
		}
		return tx.Model(&contractDatamodel.Contract{}).
			Where("id = ? AND status = ?", doc.ContractID, contract.StatusDraft).
			Updates(map[string]interface{}{"status": contract.StatusPending, "updated_at": doc.CreatedAt}).Error
	})
	return database.Translate(err)
}

func (r *OfficeRepository) GetDocument(ctx context.Context, id string) (*officeDatamodel.Document, error) {
	var d officeDatamodel.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, database.Translate(err)
	}
	return &d, nil
}

func (r *OfficeRepository) ListDocuments(ctx context.Context, officeID string) ([]*officeDatamodel.Document, error) {
	var documents []*officeDatamodel.Document
	err := r.db.WithContext(ctx).
		Where("office_id = ?", officeID).
		Order("created_at ASC, id ASC").
		Find(&documents).Error
	return documents, database.Translate(err)
}

func (r *OfficeRepository) ListSignatures(ctx context.Context, officeID string) ([]*officeDatamodel.Signature, error) {
	var signatures []*officeDatamodel.Signature
	err := r.db.WithContext(ctx).
		Where("document_id IN (?)", r.db.Model(&officeDatamodel.Document{}).
			Select("id").
			Where("office_id = ?", officeID)).
		Order("created_at ASC, id ASC").
		Find(&signatures).Error
	return signatures, database.Translate(err)
}

func (r *OfficeRepository) Sign(ctx context.Context, documentID, participantID, digest string, signedAt time.Time) (*officeDatamodel.Signature, bool, error) {
	var (
		sig       officeDatamodel.Signature
		completed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&officeDatamodel.Signature{}).
			Where("document_id = ? AND participant_id = ? AND status = ?", documentID, participantID, office.SignaturePending).
			Updates(map[string]interface{}{
				"status":         office.SignatureSigned,
				"signed_at":      signedAt,
				"signature_data": digest,
			})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.Where("document_id = ? AND participant_id = ?", documentID, participantID).
			First(&sig).Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return office.ErrAlreadySigned
		}

		var doc officeDatamodel.Document
		if err := tx.Where("id = ?", documentID).First(&doc).Error; err != nil {
			return err
		}
		var unsigned int64
		if err := tx.Model(&officeDatamodel.Signature{}).
			Where("document_id = ? AND status <> ?", documentID, office.SignatureSigned).
			Count(&unsigned).Error; err != nil {
			return err
		}
		if unsigned == 0 {
			if err := tx.Model(&officeDatamodel.Document{}).
				Where("id = ?", documentID).
				Update("status", office.DocumentSigned).Error; err != nil {
				return err
			}
		}

		var err error
		completed, err = completeIfReady(tx, doc.OfficeID, signedAt)
		return err
	})
	if err != nil {
		if errors.Is(err, office.ErrAlreadySigned) {
			return nil, false, err
		}
		return nil, false, database.Translate(err)
	}
	return &sig, completed, nil
}

func (r *OfficeRepository) Complete(ctx context.Context, officeID string, completedAt time.Time) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		completed, err := completeIfReady(tx, officeID, completedAt)
		if err != nil {
			return err
		}
		if !completed {
			return office.ErrNotReady
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, office.ErrNotReady) {
			return err
		}
		return database.Translate(err)
	}
	return nil
}

// completeIfReady closes the office when it has at least one document, every
// signature is given and nobody is still invited. It reports whether this call
// completed the office.
func completeIfReady(tx *gorm.DB, officeID string, now time.Time) (bool, error) {
	var documents int64
	if err := tx.Model(&officeDatamodel.Document{}).Where("office_id = ?", officeID).Count(&documents).Error; err != nil {
		return false, err
	}
	if documents == 0 {
		return false, nil
	}

	var invited int64
	if err := tx.Model(&officeDatamodel.Participant{}).
		Where("office_id = ? AND status = ?", officeID, office.ParticipantInvited).
		Count(&invited).Error; err != nil {
		return false, err
	}
	if invited > 0 {
		return false, nil
	}

	docIDs := tx.Model(&officeDatamodel.Document{}).Select("id").Where("office_id = ?", officeID)
	var unsigned int64
	if err := tx.Model(&officeDatamodel.Signature{}).
		Where("document_id IN (?) AND status <> ?", docIDs, office.SignatureSigned).
		Count(&unsigned).Error; err != nil {
		return false, err
	}
	if unsigned > 0 {
		return false, nil
	}

	res := tx.Model(&officeDatamodel.VirtualOffice{}).
		Where("id = ? AND status = ?", officeID, office.StatusActive).
		Updates(map[string]interface{}{
			"status":       office.StatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := tx.Model(&officeDatamodel.Document{}).
		Where("office_id = ?", officeID).
		Update("status", office.DocumentSigned).Error; err != nil {
		return false, err
	}
	contractIDs := tx.Model(&officeDatamodel.Document{}).Select("contract_id").Where("office_id = ?", officeID)
	if err := tx.Model(&contractDatamodel.Contract{}).
		Where("id IN (?)", contractIDs).
		Updates(map[string]interface{}{"status": contract.StatusCompleted, "updated_at": now}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *OfficeRepository) HasContractAccess(ctx context.Context, userID, contractID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&officeDatamodel.Document{}).
		Joins("JOIN virtual_office_participants p ON p.office_id = virtual_office_documents.office_id").
		Where("virtual_office_documents.contract_id = ? AND p.user_id = ? AND p.status = ?",
			contractID, userID, office.ParticipantAccepted).
		Count(&count).Error
	if err != nil {
		return false, database.Translate(err)
	}
	return count > 0, nil
}
