package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	authcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/auth"
	cartcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/orders"
	productcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/products"
	rolecontrollers "github.com/angelmondragon/storefront-backend/api/controllers/roles"
	usercontrollers "github.com/angelmondragon/storefront-backend/api/controllers/users"
	wishlistcontrollers "github.com/angelmondragon/storefront-backend/api/controllers/wishlist"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/cart"
	"github.com/angelmondragon/storefront-backend/internal/inventory"
	"github.com/angelmondragon/storefront-backend/internal/orders"
	product "github.com/angelmondragon/storefront-backend/internal/products"
	"github.com/angelmondragon/storefront-backend/internal/roles"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/auth/session"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// RedisStore is the subset of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	pkgredis.Pinger
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

type availabilityReconciler interface {
	ReconcileAvailability(ctx context.Context, now time.Time, dryRun bool) (*inventory.Report, error)
}

// Dependencies collects everything the router mounts. Nil services still
// mount their routes and answer with an internal error.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker

	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth       auth.Service
	Users      users.Service
	Roles      roles.Service
	Products   product.Service
	Cart       cart.Service
	Wishlist   wishlist.Service
	Orders     orders.Service
	Reconciler availabilityReconciler
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	// rate limiting and idempotency are skipped when redis is not wired
	var idempotencyStore pkgredis.IdempotencyStore
	readyDeps := map[string]pkgredis.Pinger{}
	if deps.DB != nil {
		readyDeps["db"] = deps.DB
	}
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		readyDeps["redis"] = deps.Redis
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	loginLimit := func(next http.Handler) http.Handler { return next }
	registerLimit := loginLimit
	if deps.Redis != nil {
		loginLimit = middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)
		registerLimit = middleware.AuthRateLimit(registerPolicy, deps.Redis, logg)
	}

	requireAuth := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	requireAdmin := middleware.RequireRole(logg, enums.RoleAdmin)
	requireSeller := middleware.RequireRole(logg, enums.RoleSeller, enums.RoleAdmin)
	idempotent := middleware.Idempotency(idempotencyStore, cfg.Orders.IdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readyDeps, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(registerLimit).Post("/register", authcontrollers.Register(deps.Auth, logg))
		r.With(loginLimit).Post("/login", authcontrollers.Login(deps.Auth, logg))
		r.Post("/logout", authcontrollers.Logout(deps.Auth, logg))
		r.Post("/refresh", authcontrollers.Refresh(deps.Auth, logg))
		r.Post("/forgot-password", authcontrollers.ForgotPassword(deps.Auth, logg))
		r.Post("/reset-password/{token}", authcontrollers.ResetPassword(deps.Auth, logg))
		r.Get("/verify/{token}", authcontrollers.VerifyAccount(deps.Auth, logg))
		r.Post("/resend-verification", authcontrollers.ResendVerification(deps.Auth, logg))
		r.With(requireAuth).Post("/update-password", authcontrollers.UpdatePassword(deps.Auth, logg))
	})

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", usercontrollers.Me(deps.Users, logg))
		r.Patch("/me", usercontrollers.UpdateMe(deps.Users, logg))
	})

	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(requireAuth, requireAdmin)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", usercontrollers.List(deps.Users, logg))
			r.Get("/role/{roleName}", usercontrollers.ListByRole(deps.Users, logg))
			r.Get("/{userId}", usercontrollers.Get(deps.Users, logg))
			r.Delete("/{userId}", usercontrollers.Delete(deps.Users, logg))
			r.Patch("/{userId}/role", usercontrollers.ChangeRole(deps.Users, logg))
			r.Patch("/{userId}/status", usercontrollers.UpdateStatus(deps.Users, logg))
		})

		r.Route("/roles", func(r chi.Router) {
			r.Post("/", rolecontrollers.CreateRole(deps.Roles, logg))
			r.Get("/", rolecontrollers.ListRoles(deps.Roles, logg))
			r.Put("/{roleId}", rolecontrollers.UpdateRole(deps.Roles, logg))
			r.Delete("/{roleId}", rolecontrollers.DeleteRole(deps.Roles, logg))
		})

		r.Route("/permissions", func(r chi.Router) {
			r.Post("/", rolecontrollers.CreatePermission(deps.Roles, logg))
			r.Get("/", rolecontrollers.ListPermissions(deps.Roles, logg))
			r.Put("/{permissionId}", rolecontrollers.UpdatePermission(deps.Roles, logg))
			r.Delete("/{permissionId}", rolecontrollers.DeletePermission(deps.Roles, logg))
		})

		r.Post("/inventory/reconcile", controllers.AdminReconcileInventory(deps.Reconciler, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", productcontrollers.List(deps.Products, logg))
		r.Get("/{productId}", productcontrollers.Get(deps.Products, logg))
		r.Get("/{productId}/sizes", productcontrollers.ListSizes(deps.Products, logg))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/{productId}/reviews", productcontrollers.AddReview(deps.Products, logg))

			r.Group(func(r chi.Router) {
				r.Use(requireSeller)
				r.Post("/", productcontrollers.Create(deps.Products, logg))
				r.Patch("/{productId}", productcontrollers.Update(deps.Products, logg))
				r.Delete("/{productId}", productcontrollers.Delete(deps.Products, logg))
				r.Patch("/{productId}/sizes/{sizeId}", productcontrollers.UpdateSize(deps.Products, logg))
				r.Patch("/{productId}/sizes/{sizeId}/unavailable", productcontrollers.MarkSizeUnavailable(deps.Products, logg))
				r.Patch("/{productId}/sizes/{sizeId}/available", productcontrollers.MarkSizeAvailable(deps.Products, logg))
			})
		})
	})

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", cartcontrollers.Fetch(deps.Cart, logg))
		r.Post("/", cartcontrollers.AddItem(deps.Cart, logg))
		r.Delete("/", cartcontrollers.Clear(deps.Cart, logg))
		r.Get("/check-inventory", cartcontrollers.CheckInventory(deps.Cart, logg))
		r.Patch("/items/{itemId}", cartcontrollers.UpdateItem(deps.Cart, logg))
		r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(deps.Cart, logg))
		r.Post("/items/{itemId}/move-to-wishlist", cartcontrollers.MoveToWishlist(deps.Cart, logg))
	})

	r.Route("/api/v1/wishlist", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", wishlistcontrollers.Get(deps.Wishlist, logg))
		r.Post("/", wishlistcontrollers.AddItem(deps.Wishlist, logg))
		r.Delete("/{productId}", wishlistcontrollers.RemoveItem(deps.Wishlist, logg))
	})

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(requireAuth)
		r.With(idempotent).Post("/", ordercontrollers.Create(deps.Orders, logg))
		r.With(requireAdmin).Get("/admin", ordercontrollers.ListAll(deps.Orders, cfg.Orders, logg))
		r.Get("/my-orders", ordercontrollers.ListMine(deps.Orders, cfg.Orders, logg))
		r.Get("/{orderId}", ordercontrollers.Get(deps.Orders, logg))
		r.With(requireAdmin).Patch("/{orderId}/status", ordercontrollers.UpdateStatus(deps.Orders, logg))
		r.With(idempotent).Patch("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
		r.Get("/{orderId}/track", ordercontrollers.Track(deps.Orders, logg))
	})

	return r
}
