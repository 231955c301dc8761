package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kubitskyi/contacts-api/api/controllers"
	"github.com/kubitskyi/contacts-api/api/middleware"
	"github.com/kubitskyi/contacts-api/internal/auth"
	"github.com/kubitskyi/contacts-api/internal/contacts"
	"github.com/kubitskyi/contacts-api/internal/users"
	"github.com/kubitskyi/contacts-api/pkg/config"
	"github.com/kubitskyi/contacts-api/pkg/logger"
	"github.com/kubitskyi/contacts-api/pkg/metrics"
	"github.com/kubitskyi/contacts-api/pkg/redis"
)

// NewRouter assembles the HTTP surface. Every collaborator is built by the caller.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	identity middleware.IdentityStore,
	authService auth.Service,
	usersService users.Service,
	contactsService contacts.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer(logg))
	if cfg.App.TrustProxyHeaders {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(
		chimiddleware.StripSlashes,
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if httpMetrics != nil {
		r.Use(middleware.Metrics(httpMetrics))
	}

	deps := map[string]controllers.Pinger{}
	if dbP != nil {
		deps["db"] = dbP
	}
	if redisClient != nil {
		deps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps, logg))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Auth(cfg.JWT, identity, logg)
	contactsPolicy := middleware.NewRateLimitPolicy("contacts", cfg.RateLimit)
	authPolicy := middleware.NewRateLimitPolicy("auth", cfg.RateLimit)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit(authPolicy, redisClient, logg))
			r.Post("/signup", controllers.AuthSignup(authService, logg))
			r.Post("/login", controllers.AuthLogin(authService, logg))
			r.Post("/refresh_token", controllers.AuthRefresh(authService, logg))
			r.Post("/confirm_email", controllers.AuthConfirmEmail(authService, logg))
			r.Post("/request_email", controllers.AuthRequestEmail(authService, logg))
		})
		r.With(authenticate).Post("/logout", controllers.AuthLogout(authService, logg))
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(authenticate)
		r.Get("/me", controllers.UserMe(usersService, logg))
		r.Patch("/avatar", controllers.UserUpdateAvatar(usersService, logg))
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(authenticate)
		r.Use(rateLimit(contactsPolicy, redisClient, logg))

		r.Get("/", controllers.ContactList(contactsService, logg))
		r.Post("/", controllers.ContactCreate(contactsService, logg))
		r.Get("/search", controllers.ContactSearch(contactsService, logg))
		r.Get("/birthday", controllers.ContactBirthdays(contactsService, logg))
		r.Get("/{contactID}", controllers.ContactGet(contactsService, logg))
		r.Put("/{contactID}", controllers.ContactUpdate(contactsService, logg))
		r.Delete("/{contactID}", controllers.ContactDelete(contactsService, logg))
	})

	return r
}

// rateLimit keeps a nil client from reaching the middleware as a typed nil.
func rateLimit(policy middleware.RateLimitPolicy, client *redis.Client, logg *logger.Logger) func(http.Handler) http.Handler {
	if client == nil {
		return middleware.RateLimit(policy, nil, logg)
	}
	return middleware.RateLimit(policy, client, logg)
}
