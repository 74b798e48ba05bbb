package contract_test

import (
	"github.com/frahmantamala/digital-notary/internal"
	"github.com/frahmantamala/digital-notary/internal/contract"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const vehicleContent = `{"seller":{"name":"Ján Novák"},"buyer":{"name":"Mária Kováčová"},"vehicle":{"make":"Škoda","model":"Octavia","vin":"TMBJJ7NE8L0123456","year":2020},"price":15900,"currency":"EUR"}`

var _ = Describe("Contract content", func() {
	DescribeTable("accepts well formed content",
		func(contractType, raw string) {
			content, err := contract.DecodeContent(contractType, []byte(raw))
			Expect(err).NotTo(HaveOccurred())
			Expect(content.ContractType()).To(Equal(contractType))
		},
		Entry("vehicle", contract.TypeVehicle, vehicleContent),
		Entry("rental", contract.TypeRental, `{"landlord":{"name":"A"},"tenant":{"name":"B"},"propertyAddress":"Hlavná 1, Košice","monthlyRent":650,"startDate":"2025-01-01"}`),
		Entry("power of attorney", contract.TypePowerOfAttorney, `{"principal":{"name":"A"},"agent":{"name":"B"},"scope":"Prevzatie zásielok"}`),
		Entry("employment", contract.TypeEmployment, `{"employer":{"name":"Firma s.r.o.","idNumber":"12345678"},"employee":{"name":"B"},"position":"Účtovník","salary":1800,"startDate":"2025-02-01"}`),
		Entry("custom", contract.TypeCustom, `{"body":"Zmluva o pôžičke","parties":[{"name":"A"}]}`),
	)

	DescribeTable("rejects content of the wrong shape",
		func(contractType, raw string) {
			_, err := contract.DecodeContent(contractType, []byte(raw))
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(400))
		},
		Entry("rental content sent as vehicle", contract.TypeVehicle, `{"landlord":{"name":"A"},"tenant":{"name":"B"},"propertyAddress":"x","monthlyRent":1,"startDate":"2025-01-01"}`),
		Entry("missing buyer", contract.TypeVehicle, `{"seller":{"name":"A"},"vehicle":{"make":"Škoda","model":"Fabia","vin":"TMBJJ7NE8L0123456"},"price":100}`),
		Entry("negative salary", contract.TypeEmployment, `{"employer":{"name":"A"},"employee":{"name":"B"},"position":"x","salary":-5,"startDate":"2025-02-01"}`),
		Entry("empty custom body", contract.TypeCustom, `{"body":""}`),
		Entry("not an object", contract.TypeCustom, `[1,2]`),
		Entry("unknown type", "lease", `{}`),
	)
})

var _ = Describe("Catalog", func() {
	It("describes every contract type once", func() {
		var types []string
		for _, info := range contract.Catalog() {
			types = append(types, info.Type)
			Expect(info.RequiredFields).NotTo(BeEmpty())
		}
		Expect(types).To(Equal(contract.Types))
	})
})
