package scanning

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server    *ghttp.Server
		ollama    *Ollama
		imagePath string
		opts      Options
		text      string
		err       error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		var newErr error
		ollama, newErr = NewOllama(server.URL(), "llava")
		Expect(newErr).NotTo(HaveOccurred())

		imagePath = filepath.Join(GinkgoT().TempDir(), "comprovante.jpg")
		Expect(os.WriteFile(imagePath, []byte("image bytes"), 0600)).To(Succeed())
		opts = Options{Language: "por", Whitelist: "0123456789R$abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ,.: /-"}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = ollama.Recognize(context.Background(), imagePath, opts)
	})

	When("the model transcribes the image", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/api/chat"),
				func(w http.ResponseWriter, r *http.Request) {
					var req ollamaChatRequest
					Expect(decodeJSON(r, &req)).To(Succeed())
					Expect(req.Model).To(Equal("llava"))
					Expect(req.Stream).To(BeFalse())
					Expect(req.Messages).To(HaveLen(1))
					Expect(req.Messages[0].Content).To(ContainSubstring("(por)"))
					Expect(req.Messages[0].Images).To(ConsistOf(base64.StdEncoding.EncodeToString([]byte("image bytes"))))
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]string{
						"role":    "assistant",
						"content": "```\nPix recebido!\nR$ 23,75\n```",
					},
					"done": true,
				}),
			))
		})

		It("should return the cleaned transcript", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("Pix recebido\nR$ 23,75"))
		})
	})

	When("the API fails", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "model not loaded"))
		})

		It("should return an error with the body", func() {
			Expect(err).To(MatchError(ContainSubstring("model not loaded")))
		})
	})

	When("the image is missing", func() {
		BeforeEach(func() {
			imagePath = filepath.Join(GinkgoT().TempDir(), "missing.jpg")
		})

		It("should fail without calling the API", func() {
			Expect(err).To(HaveOccurred())
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})
})

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
