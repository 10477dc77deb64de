package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/kapu/society-cms-go/internal/adapter"
	"github.com/kapu/society-cms-go/internal/apiclient"
	"github.com/kapu/society-cms-go/internal/command"
	"github.com/kapu/society-cms-go/internal/config"
	"github.com/kapu/society-cms-go/internal/constants"
	"github.com/kapu/society-cms-go/internal/domain"
	"github.com/kapu/society-cms-go/internal/editor"
	"github.com/kapu/society-cms-go/internal/guard"
	"github.com/kapu/society-cms-go/internal/imageflow"
	"github.com/kapu/society-cms-go/internal/navigation"
	"github.com/kapu/society-cms-go/internal/service"
	"github.com/kapu/society-cms-go/internal/session"
	"github.com/kapu/society-cms-go/internal/store"
)

// Container bundles the assembled client: session, transport, stores and the
// command registry built on top of them.
type Container struct {
	Config   *config.Config
	Logger   *zap.Logger
	Registry *command.Registry
	Deps     *command.Dependencies

	closers []func()
}

// Run dispatches one command line.
func (c *Container) Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	if c == nil || c.Registry == nil {
		return fmt.Errorf("container not initialized")
	}
	name := "help"
	if len(args) > 0 {
		name, args = args[0], args[1:]
	}
	return c.Registry.Execute(ctx, name, &command.Invocation{Args: args, In: in, Out: out, Err: errOut})
}

// Close releases backing connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles every component from cfg. The persisted token is read once
// here; nothing else touches the token store directly.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Session
	tokenStore, closeStore, err := newTokenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}
	sess := session.New(tokenStore, logger)
	if err := sess.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	router := navigation.NewRouter(constants.Routes.Home, logger)
	router.OnNavigate(func(path string) {
		logger.Debug("Navigated", zap.String("path", path))
	})

	// Transport and services
	client := apiclient.NewClient(apiclient.Config{
		Endpoint: cfg.API.Endpoint(),
		Timeout:  cfg.API.Timeout,
	}, sess, router, logger)

	articleSvc := service.NewArticleService(client, logger)
	memberSvc := service.NewMemberService(client, logger)
	eventSvc := service.NewEventService(client, logger)
	newsletterSvc := service.NewNewsletterService(client, logger)
	authSvc := service.NewAuthService(client, logger)

	// Stores
	var sender store.NewsletterSender
	if cfg.Newsletter.SendOnPublish {
		sender = newsletterSvc
	}
	articles := store.NewArticleStore(articleSvc, sender, logger)
	members := store.NewMemberStore(memberSvc, logger)
	events := store.NewEventStore(eventSvc, logger)
	newsletter := store.NewNewsletterStore(newsletterSvc, logger)

	// Images
	previews := imageflow.NewPreviewRegistry()
	ledger := imageflow.NewLedger()
	articleImages := imageflow.NewUploader("articles", articleSvc, previews, ledger, cfg.Images.MaxBytes, logger)
	memberImages := imageflow.NewUploader("members", memberSvc, previews, ledger, cfg.Images.MaxBytes, logger)
	eventImages := imageflow.NewUploader("events", eventSvc, previews, ledger, cfg.Images.MaxBytes, logger)

	display := editor.Display{BaseURL: cfg.API.BaseURL, Placeholder: cfg.Images.Placeholder}

	deps := &command.Dependencies{
		Session: sess,
		Guard:   guard.New(sess, authSvc, router, logger),
		Router:  router,

		Articles:   articles,
		Members:    members,
		Events:     events,
		Newsletter: newsletter,

		ArticleService:    articleSvc,
		NewsletterService: newsletterSvc,

		ArticleEditor: editor.New[domain.Article](articles, articleImages, editor.ValidateArticle, display, logger),
		MemberEditor:  editor.New[domain.Member](members, memberImages, editor.ValidateMember, display, logger),
		EventEditor:   editor.New[domain.Event](events, eventImages, editor.ValidateEvent, display, logger),

		ArticleImages: articleImages,
		MemberImages:  memberImages,
		EventImages:   eventImages,

		Formatter: adapter.NewResponseFormatter(constants.AppName, cfg.API.BaseURL, cfg.Images.Placeholder),
		Logger:    logger,
	}

	registry := command.NewRegistry()
	registry.Register(command.NewHelpCommand(deps, registry))
	registry.Register(command.NewLoginCommand(deps))
	registry.Register(command.NewLogoutCommand(deps))
	registry.Register(command.NewWhoamiCommand(deps))
	registry.Register(command.NewDashboardCommand(deps))
	registry.Register(command.NewArticlesCommand(deps))
	registry.Register(command.NewMembersCommand(deps))
	registry.Register(command.NewEventsCommand(deps))
	registry.Register(command.NewNewsletterCommand(deps))

	logger.Debug("Container assembled",
		zap.String("endpoint", cfg.API.Endpoint()),
		zap.String("session_backend", cfg.Session.Backend),
		zap.Int("commands", registry.Count()),
	)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Registry: registry,
		Deps:     deps,
		closers:  closers,
	}, nil
}

func newTokenStore(cfg *config.Config, logger *zap.Logger) (session.TokenStore, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		redisStore, err := session.NewRedisTokenStore(session.RedisConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		return redisStore, func() { _ = redisStore.Close() }, nil
	case config.SessionBackendMemory:
		return session.NewMemoryTokenStore(""), nil, nil
	default:
		return session.NewFileTokenStore(cfg.Session.File), nil, nil
	}
}
