package receipt

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Amount", func() {
	Describe("MarshalJSON", func() {
		It("should write raw amounts as strings", func() {
			out, err := json.Marshal(RawAmount("250.00"))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(Equal(`"250.00"`))
		})

		It("should write parsed amounts as numbers", func() {
			out, err := json.Marshal(ZeroAmount())
			Expect(err).NotTo(HaveOccurred())
			Expect(string(out)).To(Equal(`0`))
		})
	})

	Describe("UnmarshalJSON", func() {
		It("should read strings as raw", func() {
			var a Amount
			Expect(json.Unmarshal([]byte(`"$12.00"`), &a)).To(Succeed())
			text, ok := a.Raw()
			Expect(ok).To(BeTrue())
			Expect(text).To(Equal("$12.00"))
		})

		It("should read numbers as parsed", func() {
			var a Amount
			Expect(json.Unmarshal([]byte(`12.5`), &a)).To(Succeed())
			v, ok := a.Parsed()
			Expect(ok).To(BeTrue())
			Expect(v.Equal(decimal.RequireFromString("12.5"))).To(BeTrue())
		})

		It("returns the error for other JSON", func() {
			var a Amount
			Expect(json.Unmarshal([]byte(`true`), &a)).NotTo(Succeed())
		})
	})

	Describe("Decimal", func() {
		It("should read formatted raw text", func() {
			v, ok := RawAmount("$1,250.75").Decimal()
			Expect(ok).To(BeTrue())
			Expect(v.String()).To(Equal("1250.75"))
		})

		It("should report text that is not a number", func() {
			_, ok := RawAmount("see attached").Decimal()
			Expect(ok).To(BeFalse())
		})
	})

	It("should treat the zero value as a parsed zero", func() {
		var a Amount
		Expect(a.Kind()).To(Equal(AmountParsed))
		Expect(a.String()).To(Equal("0"))
	})
})

var _ = Describe("DateResolution", func() {
	It("should marshal absent dates as null", func() {
		out, err := json.Marshal(Absent())
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal("null"))
	})

	It("should marshal resolved dates as YYYY-MM-DD", func() {
		out, err := json.Marshal(Resolved(day(2024, 5, 1)))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`"2024-05-01"`))
	})

	It("should marshal unparsed dates as their text", func() {
		Expect(Unparsed("May 1st").String()).To(Equal("May 1st"))
	})
})
