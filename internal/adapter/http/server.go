package adapthttp

import (
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"hyperlocal/internal/app"
	"hyperlocal/internal/domain"
	"hyperlocal/internal/security"
)

// TokenVerifier checks bearer tokens.
type TokenVerifier interface {
	Verify(token string) (security.Claims, error)
}

// Services are the application services the adapter drives.
type Services struct {
	Auth      *app.AuthService
	Catalog   *app.CatalogService
	Shop      *app.ShopService
	Payouts   *app.PayoutService
	Dashboard *app.DashboardService
}

// SSOConfig enables admin sign-in through an OpenID Connect provider.
type SSOConfig struct {
	Provider     *oidc.Provider
	OAuth2Config *oauth2.Config
	// PostLoginURL receives the issued token in its fragment.
	PostLoginURL string
}

// Options configures the adapter.
type Options struct {
	Tokens    TokenVerifier
	Log       *logrus.Logger
	PublicDir string
	Pool      PoolStats
	SSO       *SSOConfig
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	auth      *app.AuthService
	catalog   *app.CatalogService
	shop      *app.ShopService
	payouts   *app.PayoutService
	dashboard *app.DashboardService

	tokens    TokenVerifier
	log       *logrus.Logger
	publicDir string
	sso       *SSOConfig
	metrics   *metrics
}

// New creates a Server wired to the given application services.
func New(svc Services, opts Options) *Server {
	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Server{
		auth:      svc.Auth,
		catalog:   svc.Catalog,
		shop:      svc.Shop,
		payouts:   svc.Payouts,
		dashboard: svc.Dashboard,
		tokens:    opts.Tokens,
		log:       log,
		publicDir: opts.PublicDir,
		sso:       opts.SSO,
		metrics:   newMetrics(opts.Pool),
	}
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	root := s.router()

	root.HandleFunc("/health", query(s, s.handleHealth)).Methods(http.MethodGet)
	root.Handle("/metrics", s.metrics.handler()).Methods(http.MethodGet)

	// Admin routes that do not go through the protected tree.
	root.HandleFunc("/api/admin/login", command(s, s.handleAdminLogin)).Methods(http.MethodPost)
	root.HandleFunc("/api/admin/logout", query(s, s.handleLogout)).Methods(http.MethodPost)
	root.Handle("/api/admin/me", s.requireAuth(query(s, s.handleMe))).Methods(http.MethodGet)
	if s.sso != nil {
		root.HandleFunc("/api/admin/sso/login", s.handleSSOLogin).Methods(http.MethodGet)
		root.HandleFunc("/api/admin/sso/callback", s.handleSSOCallback).Methods(http.MethodGet)
	}

	// Every other admin path, known or not, requires an admin token.
	root.PathPrefix("/api/admin/").Handler(s.requireAuth(s.adminOnly(s.adminRoutes())))
	root.PathPrefix("/api/client/").Handler(s.optionalAuth(s.clientRoutes()))

	if s.publicDir != "" {
		root.PathPrefix("/public/").Handler(publicFiles(s.publicDir))
	}

	var h http.Handler = root
	h = recoverer(h)
	h = s.metrics.middleware(h)
	h = cors(h)
	return s.loggingMiddleware(h)
}

func (s *Server) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(tagRoute)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeFailure(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (s *Server) adminRoutes() http.Handler {
	r := s.router()
	a := r.PathPrefix("/api/admin").Subrouter()

	a.HandleFunc("/dashboard/stats", query(s, s.handleDashboardStats)).Methods(http.MethodGet)

	a.HandleFunc("/categories", query(s, s.handleAdminCategories)).Methods(http.MethodGet)
	a.HandleFunc("/categories", command(s, s.handleCreateCategory)).Methods(http.MethodPost)
	a.HandleFunc("/categories/{id:[0-9]+}", query(s, s.handleDeleteCategory)).Methods(http.MethodDelete)

	a.HandleFunc("/products", query(s, s.handleAdminProducts)).Methods(http.MethodGet)
	a.HandleFunc("/products/{id:[0-9]+}/update-status", command(s, s.handleProductStatus)).Methods(http.MethodPost)

	a.HandleFunc("/withdrawals/sellers", query(s, s.handleWithdrawals(domain.WithdrawalSeller))).Methods(http.MethodGet)
	a.HandleFunc("/withdrawals/sellers/{id:[0-9]+}", command(s, s.handleUpdateWithdrawal(domain.WithdrawalSeller))).Methods(http.MethodPatch)
	a.HandleFunc("/withdrawals/delivery-boys", query(s, s.handleWithdrawals(domain.WithdrawalDeliveryBoy))).Methods(http.MethodGet)
	a.HandleFunc("/withdrawals/delivery-boys/{id:[0-9]+}", command(s, s.handleUpdateWithdrawal(domain.WithdrawalDeliveryBoy))).Methods(http.MethodPatch)

	a.HandleFunc("/system-updates", query(s, s.handleSystemUpdates)).Methods(http.MethodGet)
	a.HandleFunc("/system-updates", command(s, s.handleCreateSystemUpdate)).Methods(http.MethodPost)

	a.HandleFunc("/profile", query(s, s.handleMe)).Methods(http.MethodGet)
	a.HandleFunc("/profile", command(s, s.handleUpdateProfile)).Methods(http.MethodPut)
	a.HandleFunc("/profile/password", command(s, s.handleChangePassword)).Methods(http.MethodPost)

	return withNoCache(r)
}

func (s *Server) clientRoutes() http.Handler {
	r := s.router()
	c := r.PathPrefix("/api/client").Subrouter()

	c.HandleFunc("/register", command(s, s.handleRegister)).Methods(http.MethodPost)
	c.HandleFunc("/login", command(s, s.handleClientLogin)).Methods(http.MethodPost)
	c.HandleFunc("/logout", query(s, s.handleLogout)).Methods(http.MethodPost)

	c.HandleFunc("/products", query(s, s.handleClientProducts)).Methods(http.MethodGet)
	c.HandleFunc("/products/{id:[0-9]+}", query(s, s.handleClientProduct)).Methods(http.MethodGet)
	c.HandleFunc("/categories", query(s, s.handleClientCategories)).Methods(http.MethodGet)
	c.HandleFunc("/banners", query(s, s.handleBanners)).Methods(http.MethodGet)

	c.Handle("/me", s.requireAuth(query(s, s.handleMe))).Methods(http.MethodGet)
	c.Handle("/cart", s.requireAuth(query(s, s.handleCart))).Methods(http.MethodGet)
	c.Handle("/cart", s.requireAuth(command(s, s.handleAddToCart))).Methods(http.MethodPost)
	c.Handle("/cart/{id:[0-9]+}", s.requireAuth(query(s, s.handleRemoveFromCart))).Methods(http.MethodDelete)
	c.Handle("/orders", s.requireAuth(query(s, s.handleOrders))).Methods(http.MethodGet)
	c.Handle("/orders", s.requireAuth(query(s, s.handlePlaceOrder))).Methods(http.MethodPost)

	return withNoCache(r)
}

func (s *Server) handleHealth(*http.Request) (result[map[string]string], error) {
	return ok(map[string]string{"status": "ok"}), nil
}
