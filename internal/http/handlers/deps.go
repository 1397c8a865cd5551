package handlers

import (
	"github.com/jmoiron/sqlx"

	"partforge/internal/config"
	"partforge/internal/payment"
	"partforge/internal/repos"
	"partforge/internal/services"
)

type Deps struct {
	CatalogHandler     *CatalogHandler
	BuilderHandler     *BuilderHandler
	BuildHandler       *BuildHandler
	CartHandler        *CartHandler
	OrderHandler       *OrderHandler
	WebhookHandler     *WebhookHandler
	FulfillmentHandler *FulfillmentHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, gw payment.Gateway) *Deps {
	compRepo := repos.NewComponentRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	buildRepo := repos.NewBuildRepo(db)
	selRepo := repos.NewSelectionRepo(db)

	catalogSvc := services.NewCatalogService(compRepo)
	cartSvc := services.NewCartService(cartRepo, buildRepo, catalogSvc)
	builderSvc := services.NewBuilderService(selRepo, catalogSvc)
	buildSvc := services.NewBuildService(buildRepo, catalogSvc)
	checkoutSvc := services.NewCheckoutService(cartRepo, orderRepo, buildRepo, gw,
		cfg.Currency,
		cfg.PublicBaseURL+"/payment/success",
		cfg.PublicBaseURL+"/payment/cancel")
	reconcileSvc := services.NewReconcileService(orderRepo, cartRepo)

	return &Deps{
		CatalogHandler:     &CatalogHandler{Catalog: catalogSvc},
		BuilderHandler:     &BuilderHandler{Builder: builderSvc, Builds: buildSvc},
		BuildHandler:       &BuildHandler{Builds: buildSvc, Builder: builderSvc},
		CartHandler:        &CartHandler{Cart: cartSvc, Builder: builderSvc},
		OrderHandler:       &OrderHandler{Cart: cartSvc, Checkout: checkoutSvc, Reconcile: reconcileSvc},
		WebhookHandler:     &WebhookHandler{Gateway: gw, Reconcile: reconcileSvc},
		FulfillmentHandler: &FulfillmentHandler{Checkout: checkoutSvc, Orders: orderRepo},
	}
}
