package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeCompanyConnected    = "company.connected"
	EventTypeSecurityUpdated     = "company.security_updated"
	EventTypeMandateInvited      = "mandate.invited"
	EventTypeMandateResponded    = "mandate.responded"
	EventTypeContractCreated     = "contract.created"
	EventTypeParticipantInvited  = "office.participant_invited"
	EventTypeParticipantResponse = "office.participant_responded"
	EventTypeDocumentSigned      = "office.document_signed"
	EventTypeOfficeCompleted     = "office.completed"
)

// AuditableEvent carries what the audit log needs to record an action.
type AuditableEvent interface {
	Event
	ActorID() string
	CompanyID() *string
	Describe() string
}

// NotaryEvent is the common shape of every domain event in this service.
type NotaryEvent struct {
	BaseEvent
	Actor   string  `json:"actor_id"`
	Company *string `json:"company_id,omitempty"`
	Summary string  `json:"summary"`
}

func (e *NotaryEvent) ActorID() string    { return e.Actor }
func (e *NotaryEvent) CompanyID() *string { return e.Company }
func (e *NotaryEvent) Describe() string   { return e.Summary }

func newNotaryEvent(eventType, actorID string, companyID *string, summary string, data map[string]interface{}) *NotaryEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["actor_id"] = actorID
	if companyID != nil {
		data["company_id"] = *companyID
	}
	return &NotaryEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		Actor:   actorID,
		Company: companyID,
		Summary: summary,
	}
}

func NewCompanyConnectedEvent(actorID, companyID, ico, name string) *NotaryEvent {
	return newNotaryEvent(EventTypeCompanyConnected, actorID, &companyID,
		"Company "+name+" ("+ico+") connected via EUDI",
		map[string]interface{}{"ico": ico, "name": name})
}

func NewSecurityUpdatedEvent(actorID, companyID string, enforceTwoFactorAuth bool) *NotaryEvent {
	summary := "Two-factor authentication disabled"
	if enforceTwoFactorAuth {
		summary = "Two-factor authentication enforced"
	}
	return newNotaryEvent(EventTypeSecurityUpdated, actorID, &companyID, summary,
		map[string]interface{}{"enforce_two_factor_auth": enforceTwoFactorAuth})
}

func NewMandateInvitedEvent(actorID, companyID, mandateID, email, role string) *NotaryEvent {
	return newNotaryEvent(EventTypeMandateInvited, actorID, &companyID,
		"Mandate invitation sent to "+email+" as "+role,
		map[string]interface{}{"mandate_id": mandateID, "email": email, "role": role})
}

func NewMandateRespondedEvent(actorID, companyID, mandateID, status string) *NotaryEvent {
	return newNotaryEvent(EventTypeMandateResponded, actorID, &companyID,
		"Mandate "+mandateID+" set to "+status,
		map[string]interface{}{"mandate_id": mandateID, "status": status})
}

func NewContractCreatedEvent(actorID, contractID, contractType, title string) *NotaryEvent {
	return newNotaryEvent(EventTypeContractCreated, actorID, nil,
		"Contract "+title+" created",
		map[string]interface{}{"contract_id": contractID, "type": contractType})
}

func NewParticipantInvitedEvent(actorID, officeID, participantID string, ownerCompanyID *string) *NotaryEvent {
	return newNotaryEvent(EventTypeParticipantInvited, actorID, ownerCompanyID,
		"Participant invited to office "+officeID,
		map[string]interface{}{"office_id": officeID, "participant_id": participantID})
}

func NewParticipantRespondedEvent(actorID, officeID, participantID, status string, ownerCompanyID *string) *NotaryEvent {
	return newNotaryEvent(EventTypeParticipantResponse, actorID, ownerCompanyID,
		"Invitation to office "+officeID+" "+status,
		map[string]interface{}{"office_id": officeID, "participant_id": participantID, "status": status})
}

func NewDocumentSignedEvent(actorID, officeID, documentID string, ownerCompanyID *string) *NotaryEvent {
	return newNotaryEvent(EventTypeDocumentSigned, actorID, ownerCompanyID,
		"Document "+documentID+" signed",
		map[string]interface{}{"office_id": officeID, "document_id": documentID})
}

func NewOfficeCompletedEvent(actorID, officeID, name string, ownerCompanyID *string) *NotaryEvent {
	return newNotaryEvent(EventTypeOfficeCompleted, actorID, ownerCompanyID,
		"Virtual office "+name+" completed",
		map[string]interface{}{"office_id": officeID})
}

// AuditedEventTypes lists the events persisted to the audit log.
func AuditedEventTypes() []string {
	return []string{
		EventTypeCompanyConnected,
		EventTypeSecurityUpdated,
		EventTypeMandateInvited,
		EventTypeMandateResponded,
		EventTypeContractCreated,
		EventTypeParticipantInvited,
		EventTypeParticipantResponse,
		EventTypeDocumentSigned,
		EventTypeOfficeCompleted,
	}
}
