package compliance

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("DecodeResponse", func() {
	var (
		body      string
		itemCount int
		resp      *Response
		err       error
	)

	BeforeEach(func() {
		itemCount = 2
	})

	JustBeforeEach(func() {
		resp, err = DecodeResponse(body, itemCount)
	})

	When("the response matches the schema", func() {
		BeforeEach(func() {
			body = `{"line_items": [
				{"line_item_no": 1, "policy_violations": "Nightly rate exceeds the 200 USD cap", "suggestion": "Attach a manager approval"},
				{"line_item_no": 2, "policy_violations": "None"}
			]}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the findings in order", func() {
			Expect(resp.LineItems).To(Equal([]Finding{
				{LineItemNo: 1, PolicyViolations: "Nightly rate exceeds the 200 USD cap", Suggestion: "Attach a manager approval"},
				{LineItemNo: 2, PolicyViolations: NoViolation},
			}))
			Expect(resp.Violations()).To(Equal(1))
		})
	})

	When("the reviewer uses null and a None suggestion for compliant items", func() {
		BeforeEach(func() {
			body = `{"line_items": [
				{"line_item_no": 2, "policy_violations": null, "suggestion": "none"},
				{"line_item_no": 1, "policy_violations": "NONE"}
			]}`
		})

		It("should read them as no violation", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.LineItems[0]).To(Equal(Finding{LineItemNo: 2, PolicyViolations: NoViolation}))
			Expect(resp.LineItems[1].HasViolation()).To(BeFalse())
		})
	})

	DescribeTable("rejecting schema violations",
		func(input string, reason string) {
			_, decodeErr := DecodeResponse(input, 2)
			Expect(decodeErr).To(MatchError(ErrInvalidResponse))
			var respErr *ResponseError
			Expect(errors.As(decodeErr, &respErr)).To(BeTrue())
			Expect(respErr.Reason).To(ContainSubstring(reason))
			Expect(respErr.Body).To(Equal(input))
		},
		Entry("prose", `Everything looks fine!`, "not a JSON object"),
		Entry("missing collection", `{"results": []}`, "missing line_items"),
		Entry("missing number", `{"line_items": [{"policy_violations": "None"}, {"line_item_no": 2, "policy_violations": "None"}]}`, "no line_item_no"),
		Entry("number out of range", `{"line_items": [{"line_item_no": 3, "policy_violations": "None"}]}`, "out of range"),
		Entry("duplicate number", `{"line_items": [{"line_item_no": 1, "policy_violations": "None"}, {"line_item_no": 1, "policy_violations": "None"}]}`, "more than once"),
		Entry("violation without suggestion", `{"line_items": [{"line_item_no": 1, "policy_violations": "Over cap"}, {"line_item_no": 2, "policy_violations": "None"}]}`, "without a suggestion"),
		Entry("suggestion without violation", `{"line_items": [{"line_item_no": 1, "policy_violations": "None", "suggestion": "Book cheaper"}, {"line_item_no": 2, "policy_violations": "None"}]}`, "no violation"),
		Entry("missing violation", `{"line_items": [{"line_item_no": 1}, {"line_item_no": 2, "policy_violations": "None"}]}`, "has no policy_violations"),
		Entry("blank violation", `{"line_items": [{"line_item_no": 1, "policy_violations": "  "}, {"line_item_no": 2, "policy_violations": "None"}]}`, "empty policy_violations"),
		Entry("violation that is not text", `{"line_items": [{"line_item_no": 1, "policy_violations": false}, {"line_item_no": 2, "policy_violations": "None"}]}`, "not text"),
		Entry("missing line item", `{"line_items": [{"line_item_no": 1, "policy_violations": "None"}]}`, "reviewed 1 of 2"),
	)
})
