package audit

import (
	"time"

	auditDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
)

type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	UserID    string    `json:"userId"`
	CompanyID *string   `json:"companyId,omitempty"`
}

func FromDataModel(l *auditDatamodel.Log) *Entry {
	return &Entry{
		ID:        l.ID,
		Timestamp: l.Timestamp,
		Action:    l.Action,
		Details:   l.Details,
		UserID:    l.UserID,
		CompanyID: l.CompanyID,
	}
}

func FromDataModelSlice(logs []*auditDatamodel.Log) []*Entry {
	result := make([]*Entry, len(logs))
	for i, l := range logs {
		result[i] = FromDataModel(l)
	}
	return result
}
