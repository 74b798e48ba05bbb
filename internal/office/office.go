package office

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/frahmantamala/digital-notary/internal/contract"
	officeDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	"github.com/frahmantamala/digital-notary/internal/user"
	"golang.org/x/crypto/blake2b"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"

	ParticipantInvited  = "INVITED"
	ParticipantAccepted = "ACCEPTED"
	ParticipantRejected = "REJECTED"

	DocumentPending = "pending"
	DocumentSigned  = "signed"

	SignaturePending = "PENDING"
	SignatureSigned  = "SIGNED"
)

var (
	// ErrStatusChanged is returned when a conditional update finds the row in
	// another status than expected.
	ErrStatusChanged = errors.New("status changed concurrently")
	ErrAlreadySigned = errors.New("signature already given")
	// ErrNotReady means the office still has unsigned documents or open
	// invitations.
	ErrNotReady = errors.New("office is not ready to be completed")
)

type Office struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	CreatedByID    string     `json:"createdById"`
	OwnerCompanyID *string    `json:"ownerCompanyId,omitempty"`
	ProcessType    *string    `json:"processType,omitempty"`
	Status         string     `json:"status"`
	CompletedAt    *time.Time `json:"completedAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type Participant struct {
	ID                 string     `json:"id"`
	OfficeID           string     `json:"officeId"`
	UserID             string     `json:"userId"`
	Status             string     `json:"status"`
	RequiredRole       *string    `json:"requiredRole,omitempty"`
	RequiredCompanyICO *string    `json:"requiredCompanyIco,omitempty"`
	InvitedByID        *string    `json:"invitedById,omitempty"`
	InvitedAt          time.Time  `json:"invitedAt"`
	RespondedAt        *time.Time `json:"respondedAt,omitempty"`
}

type Document struct {
	ID         string    `json:"id"`
	OfficeID   string    `json:"officeId"`
	ContractID string    `json:"contractId"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

type Signature struct {
	ID            string     `json:"id"`
	DocumentID    string     `json:"documentId"`
	ParticipantID string     `json:"participantId"`
	Status        string     `json:"status"`
	SignedAt      *time.Time `json:"signedAt,omitempty"`
	SignatureData *string    `json:"signatureData,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type ParticipantView struct {
	*Participant
	User *user.User `json:"user"`
}

type DocumentView struct {
	*Document
	Contract   *contract.Contract `json:"contract"`
	Signatures []*Signature       `json:"signatures"`
}

type View struct {
	*Office
	Participants []*ParticipantView `json:"participants"`
	Documents    []*DocumentView    `json:"documents"`
}

// InvitationView is a pending invitation together with the office it is for.
type InvitationView struct {
	*Participant
	Office *Office `json:"office"`
}

// SignatureDigest is the opaque payload stored with a signature: a BLAKE2b-256
// hash over the contract content and the signing participant.
func SignatureDigest(content []byte, participantID string) string {
	h, _ := blake2b.New256(nil)
	h.Write(content)
	h.Write([]byte{0})
	h.Write([]byte(participantID))
	return hex.EncodeToString(h.Sum(nil))
}

func FromDataModel(o *officeDatamodel.VirtualOffice) *Office {
	return &Office{
		ID:             o.ID,
		Name:           o.Name,
		CreatedByID:    o.CreatedByID,
		OwnerCompanyID: o.OwnerCompanyID,
		ProcessType:    o.ProcessType,
		Status:         o.Status,
		CompletedAt:    o.CompletedAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ToDataModel(o *Office) *officeDatamodel.VirtualOffice {
	return &officeDatamodel.VirtualOffice{
		ID:             o.ID,
		Name:           o.Name,
		CreatedByID:    o.CreatedByID,
		OwnerCompanyID: o.OwnerCompanyID,
		ProcessType:    o.ProcessType,
		Status:         o.Status,
		CompletedAt:    o.CompletedAt,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func ParticipantFromDataModel(p *officeDatamodel.Participant) *Participant {
	return &Participant{
		ID:                 p.ID,
		OfficeID:           p.OfficeID,
		UserID:             p.UserID,
		Status:             p.Status,
		RequiredRole:       p.RequiredRole,
		RequiredCompanyICO: p.RequiredCompanyICO,
		InvitedByID:        p.InvitedByID,
		InvitedAt:          p.InvitedAt,
		RespondedAt:        p.RespondedAt,
	}
}

func ParticipantToDataModel(p *Participant) *officeDatamodel.Participant {
	return &officeDatamodel.Participant{
		ID:                 p.ID,
		OfficeID:           p.OfficeID,
		UserID:             p.UserID,
		Status:             p.Status,
		RequiredRole:       p.RequiredRole,
		RequiredCompanyICO: p.RequiredCompanyICO,
		InvitedByID:        p.InvitedByID,
		InvitedAt:          p.InvitedAt,
		RespondedAt:        p.RespondedAt,
	}
}

func DocumentFromDataModel(d *officeDatamodel.Document) *Document {
	return &Document{
		ID:         d.ID,
		OfficeID:   d.OfficeID,
		ContractID: d.ContractID,
		Status:     d.Status,
		CreatedAt:  d.CreatedAt,
	}
}

func SignatureFromDataModel(s *officeDatamodel.Signature) *Signature {
	return &Signature{
		ID:            s.ID,
		DocumentID:    s.DocumentID,
		ParticipantID: s.ParticipantID,
		Status:        s.Status,
		SignedAt:      s.SignedAt,
		SignatureData: s.SignatureData,
		CreatedAt:     s.CreatedAt,
	}
}
