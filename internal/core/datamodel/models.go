package datamodel

import (
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/audit"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/company"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/contract"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/mandate"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/office"
	"github.com/frahmantamala/digital-notary/internal/core/datamodel/user"
)

// All lists every table model. The order is parent first, which is also the
// insert order used by the seeder; deletes walk it backwards.
func All() []interface{} {
	return []interface{}{
		&user.User{},
		&company.Company{},
		&mandate.Mandate{},
		&contract.Contract{},
		&office.VirtualOffice{},
		&office.Participant{},
		&office.Document{},
		&office.Signature{},
		&audit.Log{},
	}
}
