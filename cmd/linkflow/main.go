package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"

	"github.com/yodlink/yodlink/internal/config"
	"github.com/yodlink/yodlink/internal/infra"
	"github.com/yodlink/yodlink/internal/logging"
	"github.com/yodlink/yodlink/internal/sessioncache"
	"github.com/yodlink/yodlink/yodlee"
)

func main() {
	var (
		user     = flag.String("user", "", "member login name")
		password = flag.String("password", "", "member password")
		register = flag.Bool("register", false, "register the member before logging in")
		email    = flag.String("email", "", "member email address, required with -register")
		search   = flag.String("search", "", "site search string")
		siteID   = flag.Int64("site", 0, "site id to link, default first search match")
		timeout  = flag.Duration("timeout", 30*time.Second, "overall deadline for the flow")
	)
	fields := map[string]string{}
	flag.Func("field", "login form value as NAME=VALUE, repeatable", func(v string) error {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return fmt.Errorf("expected NAME=VALUE, got %q", v)
		}
		fields[name] = value
		return nil
	})
	flag.Parse()

	if *user == "" || *password == "" || *search == "" || (*register && *email == "") {
		fmt.Fprintln(os.Stderr, "usage: linkflow -user NAME -password SECRET -search QUERY [-register -email ADDRESS] [-site ID] [-field NAME=VALUE]...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.RequireCobrand(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel).With("component", "linkflow", "run_id", uuid.NewString())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := yodlee.New(yodlee.Config{BaseURL: cfg.APIBaseURL, Logger: logger})
	if err != nil {
		logger.Error("build client", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	cobrand, err := cobrandSession(ctx, cfg, client, logger)
	if err != nil {
		logger.Error("cobrand login failed", "error", err)
		os.Exit(1)
	}
	logger.Info("cobrand session ready")

	member, err := memberSession(ctx, client, cobrand, *user, *password, *email, *register)
	if err != nil {
		logger.Error("member login failed", "error", err, "register", *register)
		os.Exit(1)
	}
	logger.Info("member session ready", "user", *user)

	sites, err := client.SearchSite(ctx, cobrand, member, *search)
	if err != nil {
		logger.Error("site search failed", "error", err, "query", *search)
		os.Exit(1)
	}
	site, err := pickSite(sites, *siteID)
	if err != nil {
		logger.Error("site selection failed", "error", err, "query", *search)
		os.Exit(1)
	}
	logger.Info("site selected", "site_id", int64(site.ID()), "matches", len(sites))

	form, err := client.GetSiteLoginForm(ctx, cobrand, site.ID())
	if err != nil {
		logger.Error("login form fetch failed", "error", err, "site_id", int64(site.ID()))
		os.Exit(1)
	}

	filled, err := fillForm(form, fields)
	if err != nil {
		logger.Error("login form fill failed", "error", err)
		os.Exit(1)
	}

	account, err := client.AddSiteAccount(ctx, cobrand, member, site.ID(), filled)
	if err != nil {
		logger.Error("site link failed", "error", err, "site_id", int64(site.ID()))
		os.Exit(1)
	}
	if err := linkError(account.Raw()); err != nil {
		logger.Error("site link refused", "error", err, "site_id", int64(site.ID()))
		os.Exit(1)
	}

	logger.Info("site account linked",
		"site_id", int64(site.ID()),
		"site_account_id", renderAt(account.Raw(), "$.siteAccountId"))
}

// cobrandSession obtains the cobrand session, through the Redis cache when
// one is configured so repeated runs reuse the upstream session.
func cobrandSession(ctx context.Context, cfg config.Config, client *yodlee.Client, logger *slog.Logger) (*yodlee.CobrandSession, error) {
	mint := func(ctx context.Context) (*yodlee.CobrandSession, error) {
		cred := yodlee.NewCobrandCredential().
			WithUsername(cfg.CobrandLogin).
			WithPassword(cfg.CobrandPassword)
		return client.CobrandLogin(ctx, cred)
	}

	if cfg.RedisURL == "" {
		return mint(ctx)
	}
	rdb, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Warn("redis unavailable, logging in directly", "error", err)
		return mint(ctx)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("close redis", "error", err)
		}
	}()

	return sessioncache.New(rdb, cfg.SessionTTL, logger).Fetch(ctx, cfg.CobrandLogin, mint)
}

func memberSession(ctx context.Context, client *yodlee.Client, cobrand *yodlee.CobrandSession, login, password, email string, register bool) (*yodlee.UserSession, error) {
	cred := yodlee.NewUserCredential().WithUsername(login).WithPassword(password)
	if register {
		return client.Register(ctx, cobrand, yodlee.NewUserRegistration(cred, email))
	}
	return client.Login(ctx, cobrand, cred)
}

func pickSite(sites []*yodlee.Site, want int64) (*yodlee.Site, error) {
	if len(sites) == 0 {
		return nil, errors.New("no sites matched the search")
	}
	if want == 0 {
		return sites[0], nil
	}
	for _, s := range sites {
		if int64(s.ID()) == want {
			return s, nil
		}
	}
	return nil, fmt.Errorf("site %d not among the %d search results", want, len(sites))
}

// fillForm pairs every login form field with its -field value, matching on
// the field name the server described it with.
func fillForm(components []yodlee.SiteCredentialComponent, values map[string]string) ([]yodlee.SiteCredentialComponent, error) {
	filled := make([]yodlee.SiteCredentialComponent, len(components))
	for i, comp := range components {
		name, err := componentName(comp)
		if err != nil {
			return nil, err
		}
		value, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("no -field value for login form field %q", name)
		}
		filled[i] = comp.WithValue(value)
	}
	return filled, nil
}

func componentName(comp yodlee.SiteCredentialComponent) (string, error) {
	v, err := jsonpath.Get("$.name", comp.Format())
	if err != nil {
		return "", fmt.Errorf("login form field has no name: %w", err)
	}
	name, ok := v.(string)
	if !ok || name == "" {
		return "", fmt.Errorf("login form field name is %T, want string", v)
	}
	return name, nil
}

// linkError surfaces an error envelope the upstream returned in place of a
// linked account. The linking call itself does not inspect the response.
func linkError(raw any) error {
	if renderAt(raw, "$.errorOccurred") != "true" {
		return nil
	}
	msg := renderAt(raw, "$.message")
	if msg == "" {
		msg = "upstream refused the link"
	}
	if exc := renderAt(raw, "$.exceptionType"); exc != "" {
		return fmt.Errorf("%s (%s)", msg, exc)
	}
	return errors.New(msg)
}

// renderAt reads a scalar out of a response document as display text, empty
// when the path is absent.
func renderAt(doc any, path string) string {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	return fmt.Sprint(v)
}
