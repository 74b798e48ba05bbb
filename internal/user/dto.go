package user

import (
	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
)

// FindOrCreateDTO is what a login hands over to resolve the caller.
type FindOrCreateDTO struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (d FindOrCreateDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required().MaxLength(254).Email()
	v.Field("name", d.Name).MaxLength(200)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
