package compliance

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var _ = Describe("OpenAIReviewer", func() {
	var (
		server   *ghttp.Server
		reviewer *OpenAIReviewer
		req      *Request
		resp     *Response
		err      error
	)

	completion := func(content string) openai.ChatCompletionResponse {
		return openai.ChatCompletionResponse{
			Model: "gpt-4o",
			Choices: []openai.ChatCompletionChoice{{
				Index:   0,
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content},
			}},
		}
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		reviewer, err = NewOpenAIReviewer("test-key", "", server.URL()+"/v1", zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		req = &Request{
			Segments: []Segment{
				{Role: RoleSystem, Content: "policy"},
				{Role: RoleSystem, Content: "items"},
			},
			ItemCount: 1,
		}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		resp, err = reviewer.Review(context.Background(), req)
	})

	When("the service answers with a valid review", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				func(w http.ResponseWriter, r *http.Request) {
					var body openai.ChatCompletionRequest
					Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
					Expect(body.Model).To(Equal(openai.GPT4o))
					Expect(body.Messages).To(HaveLen(2))
					Expect(body.Messages[0].Role).To(Equal(openai.ChatMessageRoleSystem))
					Expect(body.ResponseFormat).NotTo(BeNil())
					Expect(body.ResponseFormat.Type).To(Equal(openai.ChatCompletionResponseFormatTypeJSONObject))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, completion(`{"line_items": [{"line_item_no": 1, "policy_violations": "None"}]}`)),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the findings", func() {
			Expect(resp.LineItems).To(Equal([]Finding{{LineItemNo: 1, PolicyViolations: NoViolation}}))
		})
	})

	When("the service answers off schema", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, completion(`{"verdict": "ok"}`)))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ErrInvalidResponse))
		})
	})

	When("the service fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, `{"error": {"message": "overloaded", "type": "server_error"}}`))
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(ErrInvalidResponse))
		})
	})
})

var _ = Describe("NewOpenAIReviewer", func() {
	It("requires an API key", func() {
		_, err := NewOpenAIReviewer("", "", "", zap.NewNop())
		Expect(err).To(HaveOccurred())
	})

	It("should review without a logger", func() {
		server := ghttp.NewServer()
		defer server.Close()
		server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: `{"line_items": []}`},
			}},
		}))

		reviewer, err := NewOpenAIReviewer("test-key", "", server.URL()+"/v1", nil)
		Expect(err).NotTo(HaveOccurred())
		resp, err := reviewer.Review(context.Background(), &Request{Segments: []Segment{{Role: RoleSystem, Content: "policy"}}})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.LineItems).To(BeEmpty())
	})
})
