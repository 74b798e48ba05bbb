package company

import (
	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/audit"
	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
)

type ConnectDTO struct {
	ICO string `json:"ico"`
}

func (d ConnectDTO) Validate() error {
	if err := validation.ValidateICO(d.ICO); err != nil {
		return err
	}
	return nil
}

type SecuritySettingsDTO struct {
	EnforceTwoFactorAuth *bool `json:"enforceTwoFactorAuth"`
}

func (d SecuritySettingsDTO) Validate() error {
	if d.EnforceTwoFactorAuth == nil {
		return internal.NewValidationFieldError("enforceTwoFactorAuth", "enforceTwoFactorAuth is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ConnectResponse struct {
	Company *Company        `json:"company"`
	Record  *RegistryRecord `json:"registryRecord"`
}

type AuditLogResponse struct {
	Entries []*audit.Entry `json:"entries"`
}
