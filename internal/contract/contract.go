package contract

import (
	"bytes"
	"encoding/json"
	"time"

	contractDatamodel "github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	"gorm.io/datatypes"
)

const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Contract struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Type       string          `json:"type"`
	Content    Serialized `json:"content"`
	OwnerEmail string     `json:"ownerEmail"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Serialized is contract content byte for byte as the client sent it. It is
// read from either a JSON object or a string holding serialized JSON and is
// always written back as that string, so whitespace and key order survive.
type Serialized []byte

func (s *Serialized) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*s = Serialized(text)
		return nil
	}
	*s = append(Serialized(nil), data...)
	return nil
}

func (s Serialized) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(string(s)); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func ToDataModel(c *Contract) *contractDatamodel.Contract {
	return &contractDatamodel.Contract{
		ID:         c.ID,
		Title:      c.Title,
		Type:       c.Type,
		Content:    datatypes.JSON(c.Content),
		OwnerEmail: c.OwnerEmail,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func FromDataModel(c *contractDatamodel.Contract) *Contract {
	return &Contract{
		ID:         c.ID,
		Title:      c.Title,
		Type:       c.Type,
		Content:    Serialized(c.Content),
		OwnerEmail: c.OwnerEmail,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func FromDataModelSlice(contracts []*contractDatamodel.Contract) []*Contract {
	result := make([]*Contract, len(contracts))
	for i, c := range contracts {
		result[i] = FromDataModel(c)
	}
	return result
}
