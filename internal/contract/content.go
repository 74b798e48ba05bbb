package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/core/common/validation"
)

const (
	TypeVehicle         = "vehicle"
	TypeRental          = "rental"
	TypePowerOfAttorney = "power_of_attorney"
	TypeEmployment      = "employment"
	TypeCustom          = "custom"
)

var Types = []string{TypeVehicle, TypeRental, TypePowerOfAttorney, TypeEmployment, TypeCustom}

// TypeInfo describes a contract type for clients building the create form.
type TypeInfo struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	RequiredFields []string `json:"requiredFields"`
}

// Catalog lists every contract type in the order of Types.
func Catalog() []TypeInfo {
	return []TypeInfo{
		{
			Type: TypeVehicle, Name: "Kúpna zmluva na vozidlo",
			Description:    "Sale of a registered motor vehicle between two parties",
			RequiredFields: []string{"seller", "buyer", "vehicle", "price"},
		},
		{
			Type: TypeRental, Name: "Nájomná zmluva",
			Description:    "Lease of a property for a monthly rent",
			RequiredFields: []string{"landlord", "tenant", "propertyAddress", "monthlyRent", "startDate"},
		},
		{
			Type: TypePowerOfAttorney, Name: "Plná moc",
			Description:    "Authorization of an agent to act for the principal",
			RequiredFields: []string{"principal", "agent", "scope"},
		},
		{
			Type: TypeEmployment, Name: "Pracovná zmluva",
			Description:    "Employment of an employee by an employer",
			RequiredFields: []string{"employer", "employee", "position", "salary", "startDate"},
		},
		{
			Type: TypeCustom, Name: "Vlastná zmluva",
			Description:    "Free-form contract text",
			RequiredFields: []string{"body"},
		},
	}
}

// Content is the typed body of a contract. Each contract type has exactly one
// implementation.
type Content interface {
	ContractType() string
	Validate() error
}

type Party struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	// IDNumber is a birth number for people or an IČO for companies.
	IDNumber string `json:"idNumber,omitempty"`
}

func (p Party) validate(v *validation.ValidationBuilder, field string) {
	v.Field(field+".name", p.Name).Required().MaxLength(200)
	v.Field(field+".address", p.Address).MaxLength(500)
}

type Vehicle struct {
	Make         string `json:"make"`
	Model        string `json:"model"`
	VIN          string `json:"vin"`
	Year         int    `json:"year,omitempty"`
	LicensePlate string `json:"licensePlate,omitempty"`
	Mileage      int    `json:"mileage,omitempty"`
}

type VehicleSale struct {
	Seller   Party   `json:"seller"`
	Buyer    Party   `json:"buyer"`
	Vehicle  Vehicle `json:"vehicle"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
}

func (VehicleSale) ContractType() string { return TypeVehicle }

func (c VehicleSale) Validate() error {
	v := validation.NewValidator()
	c.Seller.validate(v, "seller")
	c.Buyer.validate(v, "buyer")
	v.Field("vehicle.make", c.Vehicle.Make).Required()
	v.Field("vehicle.model", c.Vehicle.Model).Required()
	v.Field("vehicle.vin", c.Vehicle.VIN).Required().MinLength(11).MaxLength(17)
	v.Field("price", c.Price).Custom(positive("price"))
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type Rental struct {
	Landlord        Party   `json:"landlord"`
	Tenant          Party   `json:"tenant"`
	PropertyAddress string  `json:"propertyAddress"`
	MonthlyRent     float64 `json:"monthlyRent"`
	Deposit         float64 `json:"deposit,omitempty"`
	StartDate       string  `json:"startDate"`
	EndDate         string  `json:"endDate,omitempty"`
}

func (Rental) ContractType() string { return TypeRental }

func (c Rental) Validate() error {
	v := validation.NewValidator()
	c.Landlord.validate(v, "landlord")
	c.Tenant.validate(v, "tenant")
	v.Field("propertyAddress", c.PropertyAddress).Required().MaxLength(500)
	v.Field("monthlyRent", c.MonthlyRent).Custom(positive("monthlyRent"))
	v.Field("startDate", c.StartDate).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type PowerOfAttorney struct {
	Principal  Party  `json:"principal"`
	Agent      Party  `json:"agent"`
	Scope      string `json:"scope"`
	ValidUntil string `json:"validUntil,omitempty"`
}

func (PowerOfAttorney) ContractType() string { return TypePowerOfAttorney }

func (c PowerOfAttorney) Validate() error {
	v := validation.NewValidator()
	c.Principal.validate(v, "principal")
	c.Agent.validate(v, "agent")
	v.Field("scope", c.Scope).Required().MaxLength(2000)
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

type Employment struct {
	Employer  Party   `json:"employer"`
	Employee  Party   `json:"employee"`
	Position  string  `json:"position"`
	Salary    float64 `json:"salary"`
	StartDate string  `json:"startDate"`
	WorkPlace string  `json:"workPlace,omitempty"`
}

func (Employment) ContractType() string { return TypeEmployment }

func (c Employment) Validate() error {
	v := validation.NewValidator()
	c.Employer.validate(v, "employer")
	c.Employee.validate(v, "employee")
	v.Field("position", c.Position).Required().MaxLength(200)
	v.Field("salary", c.Salary).Custom(positive("salary"))
	v.Field("startDate", c.StartDate).Required()
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Custom is free text with optional named parties.
type Custom struct {
	Body    string  `json:"body"`
	Parties []Party `json:"parties,omitempty"`
}

func (Custom) ContractType() string { return TypeCustom }

func (c Custom) Validate() error {
	v := validation.NewValidator()
	v.Field("body", c.Body).Required().MaxLength(100000)
	for i, p := range c.Parties {
		p.validate(v, fmt.Sprintf("parties[%d]", i))
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

func positive(field string) validation.ValidatorFunc {
	return func(value interface{}) *internal.AppError {
		if f, ok := value.(float64); ok && f <= 0 {
			return internal.NewValidationFieldError(field, field+" must be greater than zero", internal.ErrCodeValidationFailed)
		}
		return nil
	}
}

func newContent(contractType string) (Content, bool) {
	switch contractType {
	case TypeVehicle:
		return &VehicleSale{}, true
	case TypeRental:
		return &Rental{}, true
	case TypePowerOfAttorney:
		return &PowerOfAttorney{}, true
	case TypeEmployment:
		return &Employment{}, true
	case TypeCustom:
		return &Custom{}, true
	}
	return nil, false
}

// DecodeContent parses raw into the variant for contractType. Unknown fields
// are rejected so a payload of another type cannot pass.
func DecodeContent(contractType string, raw []byte) (Content, error) {
	content, ok := newContent(contractType)
	if !ok {
		return nil, internal.NewValidationFieldError("type",
			fmt.Sprintf("type must be one of: %v", Types), internal.ErrCodeInvalidContent)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(content); err != nil {
		return nil, internal.NewValidationFieldError("content",
			fmt.Sprintf("content is not a valid %s contract: %v", contractType, err), internal.ErrCodeInvalidContent)
	}
	if dec.More() {
		return nil, internal.NewValidationFieldError("content", "content must be a single JSON object", internal.ErrCodeInvalidContent)
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}
	return content, nil
}
