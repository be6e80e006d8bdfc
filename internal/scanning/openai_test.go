package scanning

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

func chatCompletion(content string) map[string]any {
	return map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	}
}

var _ = Describe("OpenAI", func() {
	var (
		server    *ghttp.Server
		extractor *OpenAI
		text      string
		data      *FieldData
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		text = "Отправка № 14520766 BU8183503"

		var newErr error
		extractor, newErr = NewOpenAI(OpenAIConfig{
			APIKey:  "test-key",
			BaseURL: server.URL() + "/v1",
		})
		Expect(newErr).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		data, err = extractor.ExtractFields(context.Background(), text)
	})

	When("the API answers with a JSON object", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/chat/completions"),
				ghttp.VerifyHeaderKV("Authorization", "Bearer test-key"),
				ghttp.VerifyContentType("application/json"),
				ghttp.VerifyJSONRepresenting(openAIChatRequest{
					Model:       "gpt-4o",
					Messages:    []chatMessage{{Role: "user", Content: BuildFieldPrompt(text)}},
					Temperature: 0.3,
				}),
				ghttp.RespondWithJSONEncoded(http.StatusOK, chatCompletion(
					`{"invoice_number": "14520766", "container_number": "BU8183503", "forwarder_name": "ФОРВАРДЕР X"}`,
				)),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should send exactly one request", func() {
			Expect(server.ReceivedRequests()).To(HaveLen(1))
		})

		It("should return the parsed fields", func() {
			Expect(data.InvoiceNumber).To(HaveValue(Equal("14520766")))
			Expect(data.ContainerNumber).To(HaveValue(Equal("BU8183503")))
			Expect(data.ForwarderName).To(HaveValue(Equal("ФОРВАРДЕР X")))
		})
	})

	When("the API answers with an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusUnauthorized,
				`{"error": {"message": "Incorrect API key provided"}}`))
		})

		It("returns an error carrying the error payload", func() {
			Expect(err).To(MatchError(ContainSubstring("status 401")))
			Expect(err).To(MatchError(ContainSubstring("Incorrect API key provided")))
			Expect(data).To(BeNil())
		})
	})

	When("the model reply is not JSON", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK,
				chatCompletion("I could not find these fields.")))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("parsing field data")))
			Expect(data).To(BeNil())
		})
	})

	When("the response has no choices", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{"choices": []any{}}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("no choices")))
		})
	})
})

var _ = Describe("NewOpenAI", func() {
	It("requires an API key", func() {
		_, err := NewOpenAI(OpenAIConfig{})
		Expect(err).To(MatchError(ContainSubstring("api key is required")))
	})

	It("applies defaults", func() {
		o, err := NewOpenAI(OpenAIConfig{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(o.cfg.Model).To(Equal("gpt-4o"))
		Expect(o.cfg.BaseURL).To(Equal("https://api.openai.com/v1"))
		Expect(o.cfg.Temperature).To(Equal(float32(0.3)))
	})
})
