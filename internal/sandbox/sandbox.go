package sandbox

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/yodlink/yodlink/internal/logging"
)

// Development defaults; override through Config for anything shared.
const (
	defaultCobrandLogin    = "sandbox.cobrand"
	defaultCobrandPassword = "sandbox.secret"
	defaultSessionTTL      = 90 * time.Minute

	sandboxCobrandID = 10003600
)

// Config carries the sandbox behavior knobs. Zero values fall back to the
// development defaults above.
type Config struct {
	CobrandLogin    string
	CobrandPassword string
	SessionTTL      time.Duration
	RateLimitPerMin int
}

// Deps carries the injected collaborators. Nil stores fall back to the
// in-memory implementations; a nil cache disables rate limiting.
type Deps struct {
	Users        UserStore
	SiteAccounts SiteAccountStore
	Cache        *redis.Client
	Logger       *slog.Logger
}

// Server is the sandbox HTTP server.
type Server struct {
	app      *fiber.App
	cfg      Config
	catalog  *Catalog
	sessions *sessionRegistry
	users    UserStore
	accounts SiteAccountStore
	logger   *slog.Logger
}

// New wires the sandbox app: recovery, request ids, access logging, and the
// aggregation endpoints under the exact paths the client posts to.
func New(cfg Config, d Deps) *Server {
	if cfg.CobrandLogin == "" {
		cfg.CobrandLogin = defaultCobrandLogin
	}
	if cfg.CobrandPassword == "" {
		cfg.CobrandPassword = defaultCobrandPassword
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if d.Users == nil {
		d.Users = NewMemoryUserStore()
	}
	if d.SiteAccounts == nil {
		d.SiteAccounts = NewMemorySiteAccountStore()
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}

	app := fiber.New(fiber.Config{
		AppName:      "yodlink-sandbox",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	s := &Server{
		app:      app,
		cfg:      cfg,
		catalog:  NewCatalog(),
		sessions: newSessionRegistry(cfg.SessionTTL),
		users:    d.Users,
		accounts: d.SiteAccounts,
		logger:   d.Logger,
	}

	app.Use(recover.New())
	app.Use(requestID())
	app.Use(accessLog(d.Logger))

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
	})

	app.Post("/authenticate/coblogin", cobloginRateLimit(d.Cache, cfg.RateLimitPerMin), s.handleCobrandLogin)
	app.Post("/authenticate/login", s.handleLogin)
	app.Post("/jsonsdk/UserRegistration/register3", s.handleRegister)
	app.Post("/jsonsdk/SiteTraversal/searchSite", s.handleSearchSite)
	app.Post("/jsonsdk/SiteAccountManagement/getSiteLoginForm", s.handleGetSiteLoginForm)
	app.Post("/jsonsdk/SiteAccountManagement/addSiteAccount1", s.handleAddSiteAccount)

	return s
}

// Listen serves on the given address until Shutdown.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Serve serves on an existing listener. Integration tests use this with an
// ephemeral port.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorDoc renders the upstream error envelope. The client library treats
// these as what they are, responses without the fields a success carries.
func errorDoc(exception, message string) fiber.Map {
	ref := "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fiber.Map{
		"errorOccurred": "true",
		"exceptionType": exception,
		"referenceCode": ref,
		"message":       message,
	}
}
