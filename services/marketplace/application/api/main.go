package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/ghuser/nftmarket/pkg/app"
	"github.com/ghuser/nftmarket/pkg/auth"
	"github.com/ghuser/nftmarket/services/marketplace/application/handlers"
	appsvcs "github.com/ghuser/nftmarket/services/marketplace/application/services"
)

// MarketRoutes registers marketplace endpoints on the provided chi router.
// Reads are public; operations acting for a caller require an identity
// resolved by auth.RequireCaller. With a session store, /market/session signs
// a resolved caller in to a cookie and back out.
func MarketRoutes(r chi.Router, a *app.Application, svcs *appsvcs.Services) {
	requireCaller := auth.RequireCaller(a.SessionStore, a.Config.TrustCallerHeader, a.Logger)

	r.Route("/market", func(r chi.Router) {
		r.Get("/", handlers.NewGetSummaryHandler(svcs).Execute)
		r.Get("/listing-fee", handlers.NewGetListingFeeHandler(svcs).Execute)
		r.Get("/items", handlers.NewGetMarketItemsHandler(svcs).Execute)
		r.Get("/tokens/{id}", handlers.NewGetTokenHandler(svcs).Execute)
		r.Get("/accounts/{address}", handlers.NewGetAccountHandler(svcs).Execute)
		if a.SessionStore != nil {
			session := handlers.NewSessionHandler(a.SessionStore)
			r.With(requireCaller).Post("/session", session.SignIn)
			r.Delete("/session", session.SignOut)
		}

		r.Group(func(r chi.Router) {
			r.Use(requireCaller)
			r.Put("/listing-fee", handlers.NewPutListingFeeHandler(svcs).Execute)
			r.Post("/tokens", handlers.NewPostTokenHandler(svcs).Execute)
			r.Post("/tokens/{id}/purchase", handlers.NewPostPurchaseHandler(svcs).Execute)
			r.Post("/tokens/{id}/resale", handlers.NewPostResaleHandler(svcs).Execute)
			r.Get("/items/mine", handlers.NewGetMyItemsHandler(svcs).Execute)
			r.Get("/items/listed", handlers.NewGetListedItemsHandler(svcs).Execute)
			r.Post("/withdrawals", handlers.NewPostWithdrawalHandler(svcs).Execute)
			r.Get("/withdrawals/{id}", handlers.NewGetWithdrawalHandler(svcs).Execute)
		})
	})
}
