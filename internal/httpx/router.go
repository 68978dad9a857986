package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(handler *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", handler.GetCart)
		r.Delete("/", handler.DestroyCart)
		r.Post("/items", handler.AddCartItem)
		r.Patch("/items/{key}", handler.UpdateCartItem)
		r.Delete("/items/{key}", handler.RemoveCartItem)
	})

	r.Route("/stripe/checkout", func(r chi.Router) {
		r.Get("/", handler.HostedCheckout)
		r.Post("/embedded", handler.EmbeddedCheckout)
		r.Post("/webhook", handler.Webhook)
	})

	return r
}
