package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"google.golang.org/api/option"
)

var _ = Describe("Vision", func() {
	var (
		server    *ghttp.Server
		extractor *Vision
		imagePath string
		text      string
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()

		imagePath = filepath.Join(GinkgoT().TempDir(), "doc1.jpg")
		Expect(os.WriteFile(imagePath, []byte("fake image data"), 0644)).To(Succeed())

		var newErr error
		extractor, newErr = NewVision(context.Background(),
			option.WithEndpoint(server.URL()+"/"),
			option.WithoutAuthentication(),
		)
		Expect(newErr).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = extractor.ExtractText(context.Background(), imagePath)
	})

	When("text is detected", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/v1/images:annotate"),
				func(w http.ResponseWriter, r *http.Request) {
					defer GinkgoRecover()
					body, readErr := io.ReadAll(r.Body)
					Expect(readErr).NotTo(HaveOccurred())

					var req struct {
						Requests []struct {
							Image struct {
								Content string `json:"content"`
							} `json:"image"`
							Features []struct {
								Type string `json:"type"`
							} `json:"features"`
						} `json:"requests"`
					}
					Expect(json.Unmarshal(body, &req)).To(Succeed())
					Expect(req.Requests).To(HaveLen(1))
					Expect(req.Requests[0].Image.Content).To(Equal(base64.StdEncoding.EncodeToString([]byte("fake image data"))))
					Expect(req.Requests[0].Features[0].Type).To(Equal("TEXT_DETECTION"))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"responses": []map[string]any{
						{"fullTextAnnotation": map[string]any{"text": "Отправка № 14520766\n"}},
					},
				}),
			))
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return the full text annotation", func() {
			Expect(text).To(Equal("Отправка № 14520766\n"))
		})
	})

	When("no text is found", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"responses": []map[string]any{{}},
			}))
		})

		It("should return empty text without an error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(BeEmpty())
		})
	})

	When("the image response carries an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
				"responses": []map[string]any{
					{"error": map[string]any{"code": 3, "message": "Bad image data."}},
				},
			}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("Bad image data.")))
		})
	})

	When("the API rejects the credentials", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWithJSONEncoded(http.StatusForbidden, map[string]any{
				"error": map[string]any{"code": 403, "message": "permission denied", "status": "PERMISSION_DENIED"},
			}))
		})

		It("returns the error", func() {
			Expect(err).To(MatchError(ContainSubstring("calling vision API")))
		})
	})

	When("the image file is missing", func() {
		BeforeEach(func() {
			imagePath = filepath.Join(GinkgoT().TempDir(), "missing.jpg")
		})

		It("returns the error without calling the API", func() {
			Expect(err).To(MatchError(ContainSubstring("reading image")))
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})
