package company

// RegistryRecord is what the business register returns for an IČO.
type RegistryRecord struct {
	ICO              string `json:"ico"`
	Name             string `json:"name"`
	Address          string `json:"address"`
	LegalForm        string `json:"legalForm"`
	StatutoryName    string `json:"statutoryName"`
	StatutoryRole    string `json:"statutoryRole"`
	AuthorizingScope string `json:"authorizingScope"`
}

type Registry interface {
	Lookup(ico string) (*RegistryRecord, bool)
}

// MockRegistry stands in for the ORSR business register.
type MockRegistry struct {
	records map[string]RegistryRecord
}

func NewMockRegistry() *MockRegistry {
	return &MockRegistry{records: map[string]RegistryRecord{
		"12345678": {
			ICO:              "12345678",
			Name:             "Digital Notary s.r.o.",
			Address:          "Hlavná 1, 811 01 Bratislava",
			LegalForm:        "Spoločnosť s ručením obmedzeným",
			StatutoryName:    "Ján Novák",
			StatutoryRole:    RoleKonatel,
			AuthorizingScope: "samostatne",
		},
		"87654321": {
			ICO:              "87654321",
			Name:             "Auto Predaj a.s.",
			Address:          "Mlynská 12, 040 01 Košice",
			LegalForm:        "Akciová spoločnosť",
			StatutoryName:    "Mária Kováčová",
			StatutoryRole:    RoleKonatel,
			AuthorizingScope: "samostatne",
		},
		"11223344": {
			ICO:              "11223344",
			Name:             "Reality Horváth s.r.o.",
			Address:          "Námestie SNP 5, 974 01 Banská Bystrica",
			LegalForm:        "Spoločnosť s ručením obmedzeným",
			StatutoryName:    "Peter Horváth",
			StatutoryRole:    RoleKonatel,
			AuthorizingScope: "samostatne",
		},
		"55667788": {
			ICO:              "55667788",
			Name:             "Stavebniny Tatry s.r.o.",
			Address:          "Štúrova 8, 058 01 Poprad",
			LegalForm:        "Spoločnosť s ručením obmedzeným",
			StatutoryName:    "Eva Tóthová",
			StatutoryRole:    RoleKonatel,
			AuthorizingScope: "spolocne_s_inym",
		},
	}}
}

func (r *MockRegistry) Lookup(ico string) (*RegistryRecord, bool) {
	rec, ok := r.records[ico]
	if !ok {
		return nil, false
	}
	return &rec, true
}
