package finance

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Client", func() {
	var (
		backend *ghttp.Server
		client  *Client
		ctx     context.Context
	)

	BeforeEach(func() {
		backend = ghttp.NewServer()
		endpoints := DefaultEndpoints()
		endpoints.BaseURL = backend.URL() + "/webhook/"
		client = NewClient(endpoints, WithTimeout(time.Second))
		ctx = context.Background()
	})

	AfterEach(func() {
		backend.Close()
	})

	Describe("Insert", func() {
		var (
			event Event
			err   error
		)

		BeforeEach(func() {
			event = Event{
				Kind:      KindExpense,
				Amount:    decimal.RequireFromString("10.5"),
				Label:     "lunch",
				Timestamp: time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC),
				Author:    "Ana",
				Source:    "120363000000000000@g.us",
			}
		})

		JustBeforeEach(func() {
			err = client.Insert(ctx, event)
		})

		When("the backend accepts the event", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodPost, "/webhook/financas"),
					ghttp.VerifyContentType("application/json"),
					ghttp.VerifyJSON(`{
						"tipo": "gasto",
						"valor": 10.50,
						"descricao": "lunch",
						"data": "2024-01-15T12:30:00.000Z",
						"autor": "Ana",
						"wa_from": "120363000000000000@g.us"
					}`),
					ghttp.RespondWith(http.StatusOK, `{"ok":true}`),
				))
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(backend.ReceivedRequests()).To(HaveLen(1))
			})
		})

		When("the event is income", func() {
			BeforeEach(func() {
				event.Kind = KindIncome
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodPost, "/webhook/financas"),
					ghttp.VerifyJSONRepresenting(map[string]any{
						"tipo":      "ganho",
						"valor":     10.5,
						"descricao": "lunch",
						"data":      "2024-01-15T12:30:00.000Z",
						"autor":     "Ana",
						"wa_from":   "120363000000000000@g.us",
					}),
					ghttp.RespondWith(http.StatusOK, ""),
				))
			})

			It("should send the income wire type", func() {
				Expect(err).NotTo(HaveOccurred())
			})
		})

		When("the backend answers with an error status", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, "boom"))
			})

			It("should return ErrUnexpectedStatus", func() {
				Expect(err).To(MatchError(ErrUnexpectedStatus))
			})
		})

		When("the backend is unreachable", func() {
			BeforeEach(func() {
				backend.Close()
			})

			It("should return a transport error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err).NotTo(MatchError(ErrUnexpectedStatus))
			})
		})
	})

	Describe("Balance", func() {
		var (
			balance decimal.Decimal
			err     error
		)

		JustBeforeEach(func() {
			balance, err = client.Balance(ctx)
		})

		When("the backend returns a number", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodGet, "/webhook/saldo"),
					ghttp.RespondWith(http.StatusOK, `{"saldo": 1234.5}`),
				))
			})

			It("should parse it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(balance.Equal(decimal.RequireFromString("1234.5"))).To(BeTrue())
			})
		})

		When("the backend returns a string", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"saldo": "-20.75"}`))
			})

			It("should parse it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(balance.Equal(decimal.RequireFromString("-20.75"))).To(BeTrue())
			})
		})

		When("the balance is missing", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{}`))
			})

			It("should return zero", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(balance.IsZero()).To(BeTrue())
			})
		})

		When("the body is not JSON", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusOK, `<html>`))
			})

			It("should return an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("List", func() {
		var (
			records []Record
			err     error
		)

		JustBeforeEach(func() {
			records, err = client.List(ctx)
		})

		When("the backend returns records", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodGet, "/webhook/listar"),
					ghttp.RespondWith(http.StatusOK, `[
						{"id": 7, "tipo": "gasto", "valor": "10.50", "descricao": "lunch", "data": "2024-01-15T12:30:00.000Z", "autor": "Ana"},
						{"id": "8", "tipo": "ganho", "valor": 25, "descricao": "(entrada)", "data": "2024-01-16", "autor": "Bia"}
					]`),
				))
			})

			It("should decode ids and amounts of either JSON type", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(2))
				Expect(records[0].ID).To(Equal("7"))
				Expect(records[0].Amount.Equal(decimal.RequireFromString("10.5"))).To(BeTrue())
				Expect(records[0].Kind()).To(Equal(KindExpense))
				Expect(records[1].ID).To(Equal("8"))
				Expect(records[1].Amount.Equal(decimal.NewFromInt(25))).To(BeTrue())
				Expect(records[1].Kind()).To(Equal(KindIncome))
			})

			It("should parse the dates", func() {
				Expect(records[0].Date).To(BeTemporally("==", time.Date(2024, 1, 15, 12, 30, 0, 0, time.UTC)))
				Expect(records[1].Date.Day()).To(Equal(16))
			})
		})

		When("the backend returns an object instead of a list", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"message": "Workflow was started"}`))
			})

			It("should return an empty list", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(BeEmpty())
			})
		})

		When("the backend fails", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, ""))
			})

			It("should return ErrUnexpectedStatus", func() {
				Expect(err).To(MatchError(ErrUnexpectedStatus))
			})
		})
	})

	Describe("Remove", func() {
		var (
			ok  bool
			err error
		)

		JustBeforeEach(func() {
			ok, err = client.Remove(ctx, 5)
		})

		When("the backend confirms", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.CombineHandlers(
					ghttp.VerifyRequest(http.MethodPost, "/webhook/remover"),
					ghttp.VerifyJSON(`{"id": 5}`),
					ghttp.RespondWith(http.StatusOK, `{"sucesso": true}`),
				))
			})

			It("should report success", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeTrue())
			})
		})

		When("the backend declines", func() {
			BeforeEach(func() {
				backend.AppendHandlers(ghttp.RespondWith(http.StatusOK, `{"sucesso": false}`))
			})

			It("should report failure without an error", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(ok).To(BeFalse())
			})
		})
	})

	Describe("Edit", func() {
		var (
			ok  bool
			err error
		)

		BeforeEach(func() {
			backend.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest(http.MethodPost, "/webhook/editar"),
				ghttp.VerifyJSON(`{"id": 5, "valor": 20.00, "descricao": "snack"}`),
				ghttp.RespondWith(http.StatusOK, `{"sucesso": true}`),
			))
		})

		JustBeforeEach(func() {
			ok, err = client.Edit(ctx, 5, decimal.NewFromInt(20), "snack")
		})

		It("should send the new amount and label", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
		})
	})

	Describe("Endpoints", func() {
		It("should keep absolute paths untouched", func() {
			e := Endpoints{BaseURL: "http://localhost:5678/webhook", Insert: "https://example.com/hook"}
			Expect(e.url(e.Insert)).To(Equal("https://example.com/hook"))
		})

		It("should join relative paths to the base URL", func() {
			e := DefaultEndpoints()
			Expect(e.url(e.Balance)).To(Equal("http://localhost:5678/webhook/saldo"))
		})
	})
})
