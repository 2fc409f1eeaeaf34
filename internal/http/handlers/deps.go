package handlers

import (
	"farmfresh/internal/config"
	"farmfresh/internal/repos"
	"farmfresh/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Auth *services.AuthService

	AuthHandler      *AuthHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	SearchHandler    *SearchHandler
	CartHandler      *CartHandler
	OrderHandler     *OrderHandler
}

// NewDeps wires repos, services and handlers. idem may be nil, which turns
// the order idempotency guard off.
func NewDeps(db *sqlx.DB, cfg config.Config, auth *services.AuthService, images services.ImageStore, idem services.IdempotencyStore) *Deps {
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	cartRepo := repos.NewCartRepo(db)
	orderRepo := repos.NewOrderRepo(db)

	catalogSvc := services.NewCatalogService(prodRepo, images, auth.Clock)
	invSvc := services.NewInventoryService(invRepo)
	cartSvc := services.NewCartService(cartRepo, auth.Clock)
	orderSvc := services.NewOrderService(orderRepo, prodRepo, cartRepo, auth.Clock)
	orderSvc.Strict = cfg.StrictTransitions
	orderSvc.Idem = idem

	return &Deps{
		Auth:             auth,
		AuthHandler:      &AuthHandler{Auth: auth},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: invSvc},
		SearchHandler:    &SearchHandler{Catalog: catalogSvc},
		CartHandler:      &CartHandler{Cart: cartSvc},
		OrderHandler:     &OrderHandler{Order: orderSvc},
	}
}

// Mount registers the JSON API on r (normally the /api group). loginGuards
// run in front of the login handler, typically a rate limiter.
func (d *Deps) Mount(r fiber.Router, loginGuards ...fiber.Handler) {
	authed := RequireAuth(d.Auth)

	user := r.Group("/user")
	user.Post("/register", d.AuthHandler.Register)
	user.Post("/login", append(loginGuards, d.AuthHandler.Login)...)
	user.Get("/profile", authed, d.AuthHandler.Profile)
	user.Put("/profile", authed, d.AuthHandler.UpdateProfile)

	product := r.Group("/product")
	product.Get("/list", d.ProductHandler.List)
	product.Get("/search", d.SearchHandler.Search)
	product.Get("/farmer-products", authed, d.ProductHandler.FarmerProducts)
	product.Post("/add", authed, d.ProductHandler.Add)
	product.Get("/:id/availability", d.InventoryHandler.Check)
	product.Get("/:id", d.ProductHandler.Detail)
	product.Put("/:id", authed, d.ProductHandler.Update)
	product.Delete("/:id", authed, d.ProductHandler.Remove)

	cart := r.Group("/cart", authed)
	cart.Post("/add", d.CartHandler.Add)
	cart.Post("/remove", d.CartHandler.Remove)
	cart.Get("/get", d.CartHandler.Get)
	cart.Post("/update-item", d.CartHandler.UpdateItem)
	cart.Post("/clear", d.CartHandler.Clear)

	order := r.Group("/order", authed)
	order.Post("/create", d.OrderHandler.Create)
	order.Post("/checkout", d.OrderHandler.Checkout)
	order.Get("/customer", d.OrderHandler.Customer)
	order.Get("/farmer", d.OrderHandler.Farmer)
	order.Get("/details/:orderId", d.OrderHandler.Details)
	order.Post("/update-status", d.OrderHandler.UpdateStatus)
	order.Post("/cancel", d.OrderHandler.Cancel)
	order.Post("/payment", d.OrderHandler.Payment)
	order.Get("/stats", d.OrderHandler.Stats)
	order.Post("/delete", d.OrderHandler.Delete)
}
