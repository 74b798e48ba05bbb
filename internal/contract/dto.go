package contract

import (
	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
)

type CreateDTO struct {
	Title   string     `json:"title"`
	Type    string     `json:"type"`
	Content Serialized `json:"content"`
}

func (d CreateDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	v.Field("type", d.Type).Required().OneOf(Types...)
	v.Field("content", string(d.Content)).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// UpdateDTO renames a draft contract. Content never changes after creation.
type UpdateDTO struct {
	Title string `json:"title"`
}

func (d UpdateDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("title", d.Title).Required().MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type ListResponse struct {
	Contracts []*Contract `json:"contracts"`
}

type TypesResponse struct {
	Types []TypeInfo `json:"types"`
}
