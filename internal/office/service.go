package office

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/contract"
	companyDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	officeDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	"github.com/frahmantamala/digital-notary/internal/core/events"
	"github.com/frahmantamala/digital-notary/internal/mandate"
	"github.com/frahmantamala/digital-notary/internal/user"
	"github.com/google/uuid"
)

type Repository interface {
	// CreateWithCreator stores the office and its creator as an accepted
	// participant in one transaction.
	CreateWithCreator(ctx context.Context, o *officeDatamodel.VirtualOffice, creator *officeDatamodel.Participant) error
	GetByID(ctx context.Context, id string) (*officeDatamodel.VirtualOffice, error)
	ListByIDs(ctx context.Context, ids []string) ([]*officeDatamodel.VirtualOffice, error)
	ListForUser(ctx context.Context, userID string) ([]*officeDatamodel.VirtualOffice, error)
	Update(ctx context.Context, id string, updates map[string]interface{}) (*officeDatamodel.VirtualOffice, error)

	CreateParticipant(ctx context.Context, p *officeDatamodel.Participant) error
	GetParticipant(ctx context.Context, id string) (*officeDatamodel.Participant, error)
	GetParticipantByUser(ctx context.Context, officeID, userID string) (*officeDatamodel.Participant, error)
	ListParticipants(ctx context.Context, officeID string) ([]*officeDatamodel.Participant, error)
	ListInvitations(ctx context.Context, userID string) ([]*officeDatamodel.Participant, error)
	// RespondToInvitation moves an INVITED participant to status and, on
	// acceptance, adds their pending signatures. A rejection may leave the
	// office with nothing outstanding; the bool reports that it completed.
	// ErrStatusChanged when the participant was no longer invited.
	RespondToInvitation(ctx context.Context, participantID, status string, respondedAt time.Time) (*officeDatamodel.Participant, bool, error)

	// AttachContract stores the document with one pending signature per
	// accepted participant, renames the office and moves the contract out of
	// draft.
	AttachContract(ctx context.Context, doc *officeDatamodel.Document, officeName string) error
	GetDocument(ctx context.Context, id string) (*officeDatamodel.Document, error)
	ListDocuments(ctx context.Context, officeID string) ([]*officeDatamodel.Document, error)
	ListSignatures(ctx context.Context, officeID string) ([]*officeDatamodel.Signature, error)
	// Sign records the signature and completes the office when it was the
	// last one missing. The bool reports that completion.
	Sign(ctx context.Context, documentID, participantID, digest string, signedAt time.Time) (*officeDatamodel.Signature, bool, error)
	// Complete closes the office or returns ErrNotReady.
	Complete(ctx context.Context, officeID string, completedAt time.Time) error

	HasContractAccess(ctx context.Context, userID, contractID string) (bool, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	ListByIDs(ctx context.Context, ids []string) (map[string]*user.User, error)
}

type ContractLookup interface {
	GetByID(ctx context.Context, id string) (*contractDatamodel.Contract, error)
	ListByIDs(ctx context.Context, ids []string) ([]*contractDatamodel.Contract, error)
}

type CompanyLookup interface {
	GetByICO(ctx context.Context, ico string) (*companyDatamodel.Company, error)
}

type MandateChecker interface {
	GetActiveMandate(ctx context.Context, userID, ico string) (*mandate.Mandate, error)
	RequireMandate(ctx context.Context, userID, ico string) error
}

type EventPublisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type Service struct {
	repo      Repository
	users     UserLookup
	contracts ContractLookup
	companies CompanyLookup
	mandates  MandateChecker
	bus       EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewService(repo Repository, users UserLookup, contracts ContractLookup, companies CompanyLookup, mandates MandateChecker, bus EventPublisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		contracts: contracts,
		companies: companies,
		mandates:  mandates,
		bus:       bus,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func officeNotFound() *internal.AppError {
	return internal.NewNotFoundError("Virtual office not found", internal.ErrCodeOfficeNotFound)
}

func notParticipant() *internal.AppError {
	return internal.NewForbiddenError("You are not a participant of this virtual office", internal.ErrCodeNotParticipant)
}

// requireAccepted loads the office and checks the actor is an accepted
// participant. Offices the actor cannot see are reported as forbidden only
// after they are known to exist.
func (s *Service) requireAccepted(ctx context.Context, actorID, officeID string) (*officeDatamodel.VirtualOffice, *officeDatamodel.Participant, error) {
	o, err := s.repo.GetByID(ctx, officeID)
	if err != nil {
		return nil, nil, internal.FromStore(err, officeNotFound())
	}
	p, err := s.repo.GetParticipantByUser(ctx, officeID, actorID)
	if err != nil {
		return nil, nil, internal.FromStore(err, notParticipant())
	}
	if p.Status != ParticipantAccepted {
		return nil, nil, notParticipant()
	}
	return o, p, nil
}

func requireActive(o *officeDatamodel.VirtualOffice) error {
	if o.Status == StatusCompleted {
		return internal.NewConflictError("Virtual office is already completed", internal.ErrCodeOfficeCompleted)
	}
	return nil
}

func (s *Service) CreateOffice(ctx context.Context, actorID string, dto CreateDTO) (*View, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	var ownerCompanyID *string
	if dto.OwnerCompanyICO != nil {
		ico := *dto.OwnerCompanyICO
		c, err := s.companies.GetByICO(ctx, ico)
		if err != nil {
			return nil, internal.FromStore(err, internal.NewNotFoundError("Company not found", internal.ErrCodeCompanyNotFound))
		}
		if err := s.mandates.RequireMandate(ctx, actorID, ico); err != nil {
			return nil, err
		}
		ownerCompanyID = &c.ID
	}

	now := s.now()
	o := &officeDatamodel.VirtualOffice{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(dto.Name),
		CreatedByID:    actorID,
		OwnerCompanyID: ownerCompanyID,
		ProcessType:    dto.ProcessType,
		Status:         StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	creator := &officeDatamodel.Participant{
		ID:          uuid.NewString(),
		OfficeID:    o.ID,
		UserID:      actorID,
		Status:      ParticipantAccepted,
		InvitedByID: &actorID,
		InvitedAt:   now,
		RespondedAt: &now,
	}
	if err := s.repo.CreateWithCreator(ctx, o, creator); err != nil {
		s.logger.Error("failed to create virtual office", "user_id", actorID, "error", err)
		return nil, internal.FromStore(err, nil)
	}

	s.logger.Info("virtual office created", "office_id", o.ID, "user_id", actorID)
	return s.view(ctx, o)
}

func (s *Service) GetOffice(ctx context.Context, actorID, officeID string) (*View, error) {
	o, _, err := s.requireAccepted(ctx, actorID, officeID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, o)
}

// ListOffices returns the offices the actor has joined, newest first.
func (s *Service) ListOffices(ctx context.Context, actorID string) ([]*View, error) {
	offices, err := s.repo.ListForUser(ctx, actorID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}
	views := make([]*View, 0, len(offices))
	for _, o := range offices {
		v, err := s.view(ctx, o)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// ListInvitations returns the actor's open invitations.
func (s *Service) ListInvitations(ctx context.Context, actorID string) ([]*InvitationView, error) {
	rows, err := s.repo.ListInvitations(ctx, actorID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}

	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.OfficeID)
	}
	offices, err := s.repo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}
	byID := make(map[string]*Office, len(offices))
	for _, o := range offices {
		byID[o.ID] = FromDataModel(o)
	}

	views := make([]*InvitationView, 0, len(rows))
	for _, p := range rows {
		o, ok := byID[p.OfficeID]
		if !ok {
			return nil, dangling("participant", p.ID, "office", p.OfficeID)
		}
		views = append(views, &InvitationView{Participant: ParticipantFromDataModel(p), Office: o})
	}
	return views, nil
}

func (s *Service) InviteParticipant(ctx context.Context, actorID, officeID string, dto InviteDTO) (*ParticipantView, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	o, _, err := s.requireAccepted(ctx, actorID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(o); err != nil {
		return nil, err
	}

	invitee, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		return nil, err
	}

	p := &officeDatamodel.Participant{
		ID:                 uuid.NewString(),
		OfficeID:           officeID,
		UserID:             invitee.ID,
		Status:             ParticipantInvited,
		RequiredRole:       dto.RequiredRole,
		RequiredCompanyICO: dto.RequiredCompanyICO,
		InvitedByID:        &actorID,
		InvitedAt:          s.now(),
	}
	if err := s.repo.CreateParticipant(ctx, p); err != nil {
		if errors.Is(err, internal.ErrDuplicate) {
			return nil, internal.NewConflictError("User is already a participant of this office", internal.ErrCodeDuplicateInvite)
		}
		return nil, internal.FromStore(err, nil)
	}

	s.logger.Info("participant invited", "office_id", officeID, "participant_id", p.ID, "invited_by", actorID)
	s.publish(ctx, events.NewParticipantInvitedEvent(actorID, officeID, p.ID, o.OwnerCompanyID))

	return &ParticipantView{Participant: ParticipantFromDataModel(p), User: invitee}, nil
}

// RespondToInvitation lets the invited user accept or reject. An invitation
// bound to a company needs an active mandate there, with the required role
// when one is set.
func (s *Service) RespondToInvitation(ctx context.Context, actorID, officeID, participantID string, dto RespondDTO) (*Participant, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Participant not found", internal.ErrCodeParticipantMissing))
	}
	if p.OfficeID != officeID {
		return nil, internal.NewNotFoundError("Participant not found", internal.ErrCodeParticipantMissing)
	}
	if p.UserID != actorID {
		return nil, internal.NewForbiddenError("Only the invited user can answer this invitation", internal.ErrCodeNotInvitee)
	}
	if p.Status != ParticipantInvited {
		return nil, internal.NewValidationError(
			fmt.Sprintf("Invitation was already answered with %s", p.Status), internal.ErrCodeInvalidTransition)
	}
	if dto.Status == ParticipantAccepted {
		if err := s.checkRequirements(ctx, actorID, p); err != nil {
			return nil, err
		}
	}

	updated, completed, err := s.repo.RespondToInvitation(ctx, participantID, dto.Status, s.now())
	if err != nil {
		if errors.Is(err, ErrStatusChanged) {
			return nil, internal.NewConflictError("Invitation was answered concurrently", internal.ErrCodeInvalidTransition)
		}
		return nil, internal.FromStore(err, nil)
	}

	o, err := s.repo.GetByID(ctx, officeID)
	if err != nil {
		return nil, internal.FromStore(err, officeNotFound())
	}
	s.logger.Info("invitation answered", "office_id", officeID, "participant_id", participantID, "status", updated.Status)
	s.publish(ctx, events.NewParticipantRespondedEvent(actorID, officeID, participantID, updated.Status, o.OwnerCompanyID))
	if completed {
		s.logger.Info("virtual office completed", "office_id", officeID)
		s.publish(ctx, events.NewOfficeCompletedEvent(actorID, officeID, o.Name, o.OwnerCompanyID))
	}

	return ParticipantFromDataModel(updated), nil
}

func (s *Service) checkRequirements(ctx context.Context, actorID string, p *officeDatamodel.Participant) error {
	if p.RequiredCompanyICO == nil {
		return nil
	}
	m, err := s.mandates.GetActiveMandate(ctx, actorID, *p.RequiredCompanyICO)
	if err != nil {
		return err
	}
	if m == nil {
		return internal.NewForbiddenError(
			fmt.Sprintf("This invitation requires an active mandate for company %s", *p.RequiredCompanyICO),
			internal.ErrCodeMandateRequired)
	}
	if p.RequiredRole != nil && *p.RequiredRole != m.Role {
		return internal.NewForbiddenError(
			fmt.Sprintf("This invitation requires the role %s, your role is %s", *p.RequiredRole, m.Role),
			internal.ErrCodeRoleNotAllowed)
	}
	return nil
}

// AttachContract adds a contract the actor can see to the office.
func (s *Service) AttachContract(ctx context.Context, actorID, officeID, contractID string) (*View, error) {
	o, _, err := s.requireAccepted(ctx, actorID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(o); err != nil {
		return nil, err
	}

	c, err := s.contracts.GetByID(ctx, contractID)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Contract not found", internal.ErrCodeContractNotFound))
	}
	if err := s.requireContractAccess(ctx, actorID, c); err != nil {
		return nil, err
	}

	doc := &officeDatamodel.Document{
		ID:         uuid.NewString(),
		OfficeID:   officeID,
		ContractID: contractID,
		Status:     DocumentPending,
		CreatedAt:  s.now(),
	}
	if err := s.repo.AttachContract(ctx, doc, c.Title); err != nil {
		if errors.Is(err, internal.ErrDuplicate) {
			return nil, internal.NewConflictError("Contract is already attached to this office", internal.ErrCodeDuplicateDocument)
		}
		return nil, internal.FromStore(err, nil)
	}

	s.logger.Info("contract attached", "office_id", officeID, "contract_id", contractID, "user_id", actorID)
	return s.GetOffice(ctx, actorID, officeID)
}

func (s *Service) requireContractAccess(ctx context.Context, actorID string, c *contractDatamodel.Contract) error {
	actor, err := s.users.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if c.OwnerEmail == user.NormalizeEmail(actor.Email) {
		return nil
	}
	ok, err := s.HasContractAccess(ctx, actorID, c.ID)
	if err != nil {
		return err
	}
	if !ok {
		return internal.NewForbiddenError("You do not have access to this contract", internal.ErrCodeNotContractOwner)
	}
	return nil
}

// SignDocument signs the actor's pending signature on the document. The office
// completes itself when this was the last missing signature.
func (s *Service) SignDocument(ctx context.Context, actorID, officeID, documentID string) (*SignResponse, error) {
	o, p, err := s.requireAccepted(ctx, actorID, officeID)
	if err != nil {
		return nil, err
	}
	if err := requireActive(o); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetDocument(ctx, documentID)
	if err != nil {
		return nil, internal.FromStore(err, internal.NewNotFoundError("Document not found", internal.ErrCodeDocumentNotFound))
	}
	if doc.OfficeID != officeID {
		return nil, internal.NewNotFoundError("Document not found", internal.ErrCodeDocumentNotFound)
	}
	c, err := s.contracts.GetByID(ctx, doc.ContractID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, dangling("document", doc.ID, "contract", doc.ContractID)
		}
		return nil, internal.FromStore(err, nil)
	}

	digest := SignatureDigest(c.Content, p.ID)
	sig, completed, err := s.repo.Sign(ctx, documentID, p.ID, digest, s.now())
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadySigned):
			return nil, internal.NewConflictError("You have already signed this document", internal.ErrCodeInvalidTransition)
		case errors.Is(err, internal.ErrNotFound):
			return nil, internal.NewNotFoundError("No signature is expected from you on this document", internal.ErrCodeDocumentNotFound)
		}
		return nil, internal.FromStore(err, nil)
	}

	s.logger.Info("document signed", "office_id", officeID, "document_id", documentID, "participant_id", p.ID)
	s.publish(ctx, events.NewDocumentSignedEvent(actorID, officeID, documentID, o.OwnerCompanyID))

	status := StatusActive
	if completed {
		status = StatusCompleted
		s.logger.Info("virtual office completed", "office_id", officeID)
		s.publish(ctx, events.NewOfficeCompletedEvent(actorID, officeID, o.Name, o.OwnerCompanyID))
	}
	return &SignResponse{Signature: SignatureFromDataModel(sig), OfficeStatus: status}, nil
}

// UpdateOffice applies a partial update. A contractId attaches the contract;
// status can only be set to completed, and only once every signature is in.
func (s *Service) UpdateOffice(ctx context.Context, actorID, officeID string, dto UpdateDTO) (*View, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	o, _, err := s.requireAccepted(ctx, actorID, officeID)
	if err != nil {
		return nil, err
	}

	if dto.ContractID != nil {
		if _, err := s.AttachContract(ctx, actorID, officeID, *dto.ContractID); err != nil {
			return nil, err
		}
	}

	if dto.Name != nil {
		if err := requireActive(o); err != nil {
			return nil, err
		}
		_, err := s.repo.Update(ctx, officeID, map[string]interface{}{
			"name":       strings.TrimSpace(*dto.Name),
			"updated_at": s.now(),
		})
		if err != nil {
			return nil, internal.FromStore(err, officeNotFound())
		}
	}

	if dto.Status != nil && o.Status != StatusCompleted {
		if err := s.repo.Complete(ctx, officeID, s.now()); err != nil {
			if errors.Is(err, ErrNotReady) {
				return nil, internal.NewConflictError(
					"Virtual office still has pending signatures or open invitations", internal.ErrCodeOfficeNotReady)
			}
			return nil, internal.FromStore(err, nil)
		}
		s.logger.Info("virtual office completed", "office_id", officeID, "user_id", actorID)
		s.publish(ctx, events.NewOfficeCompletedEvent(actorID, officeID, o.Name, o.OwnerCompanyID))
	}

	return s.GetOffice(ctx, actorID, officeID)
}

// ListParticipants joins the office's participants with their users.
func (s *Service) ListParticipants(ctx context.Context, actorID, officeID string) ([]*ParticipantView, error) {
	if _, _, err := s.requireAccepted(ctx, actorID, officeID); err != nil {
		return nil, err
	}
	return s.participants(ctx, officeID)
}

// ListDocuments joins the office's documents with their contracts and
// signatures.
func (s *Service) ListDocuments(ctx context.Context, actorID, officeID string) ([]*DocumentView, error) {
	if _, _, err := s.requireAccepted(ctx, actorID, officeID); err != nil {
		return nil, err
	}
	return s.documents(ctx, officeID)
}

func (s *Service) HasContractAccess(ctx context.Context, userID, contractID string) (bool, error) {
	ok, err := s.repo.HasContractAccess(ctx, userID, contractID)
	if err != nil {
		return false, internal.FromStore(err, nil)
	}
	return ok, nil
}

func (s *Service) view(ctx context.Context, o *officeDatamodel.VirtualOffice) (*View, error) {
	participants, err := s.participants(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	documents, err := s.documents(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return &View{Office: FromDataModel(o), Participants: participants, Documents: documents}, nil
}

func (s *Service) participants(ctx context.Context, officeID string) ([]*ParticipantView, error) {
	rows, err := s.repo.ListParticipants(ctx, officeID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}

	ids := make([]string, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.UserID)
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]*ParticipantView, 0, len(rows))
	for _, p := range rows {
		u, ok := users[p.UserID]
		if !ok {
			return nil, dangling("participant", p.ID, "user", p.UserID)
		}
		views = append(views, &ParticipantView{Participant: ParticipantFromDataModel(p), User: u})
	}
	return views, nil
}

func (s *Service) documents(ctx context.Context, officeID string) ([]*DocumentView, error) {
	rows, err := s.repo.ListDocuments(ctx, officeID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}
	signatures, err := s.repo.ListSignatures(ctx, officeID)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}

	ids := make([]string, 0, len(rows))
	for _, d := range rows {
		ids = append(ids, d.ContractID)
	}
	contracts, err := s.contracts.ListByIDs(ctx, ids)
	if err != nil {
		return nil, internal.FromStore(err, nil)
	}
	byID := make(map[string]*contract.Contract, len(contracts))
	for _, c := range contracts {
		byID[c.ID] = contract.FromDataModel(c)
	}
	byDocument := make(map[string][]*Signature)
	for _, sig := range signatures {
		byDocument[sig.DocumentID] = append(byDocument[sig.DocumentID], SignatureFromDataModel(sig))
	}

	views := make([]*DocumentView, 0, len(rows))
	for _, d := range rows {
		c, ok := byID[d.ContractID]
		if !ok {
			return nil, dangling("document", d.ID, "contract", d.ContractID)
		}
		sigs := byDocument[d.ID]
		if sigs == nil {
			sigs = []*Signature{}
		}
		views = append(views, &DocumentView{Document: DocumentFromDataModel(d), Contract: c, Signatures: sigs})
	}
	return views, nil
}

// dangling reports a row pointing at a record that does not exist, which
// means the store is inconsistent.
func dangling(kind, id, refKind, refID string) error {
	err := internal.NewInternalError(
		fmt.Sprintf("%s references a missing %s", kind, refKind),
		fmt.Errorf("%s %s: %s %s", kind, id, refKind, refID))
	err.Code = internal.ErrCodeDanglingRef
	return err
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
