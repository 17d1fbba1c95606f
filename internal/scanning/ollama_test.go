package scanning

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"go.uber.org/zap"
)

var _ = Describe("Ollama", func() {
	var (
		server   *ghttp.Server
		analyzer *Ollama
		result   *Result
		err      error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		analyzer, err = NewOllama(server.URL(), "llava", zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		result, err = analyzer.Analyze(context.Background(), []byte("png bytes"), "image/png")
	})

	When("the model answers with an analysis", func() {
		BeforeEach(func() {
			content, _ := json.Marshal(map[string]any{
				"content":   "CAFE\nTotal 12.50",
				"documents": []map[string]any{{"merchant_name": "Cafe", "total": "12.50"}},
			})
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				ghttp.VerifyContentType("application/json"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
					Expect(req.Model).To(Equal("llava"))
					Expect(req.Messages).To(HaveLen(2))
					Expect(req.Messages[1].Images).To(HaveLen(1))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
					Message: ollamaMessage{Role: "assistant", Content: string(content)},
					Done:    true,
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should parse the document", func() {
			doc, ok := result.FirstDocument()
			Expect(ok).To(BeTrue())
			Expect(doc.Fields.MerchantName.Value).To(Equal("Cafe"))
			Expect(result.Content).To(Equal("CAFE\nTotal 12.50"))
		})
	})

	When("the server fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("status 500")))
		})
	})

	When("the model answers with prose", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
				Message: ollamaMessage{Role: "assistant", Content: "I cannot read this"},
			}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("no JSON object")))
		})
	})
})

var _ = Describe("NewOllama", func() {
	It("should analyze without a logger", func() {
		server := ghttp.NewServer()
		defer server.Close()
		server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: `{"content": "CAFE", "documents": []}`},
			Done:    true,
		}))

		analyzer, err := NewOllama(server.URL(), "", nil)
		Expect(err).NotTo(HaveOccurred())
		result, err := analyzer.Analyze(context.Background(), []byte("png bytes"), "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Content).To(Equal("CAFE"))
	})
})
