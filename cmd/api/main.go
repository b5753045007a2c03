package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/edmw/wishlist-sub001/internal/di"
	"github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/handlers"
	"github.com/edmw/wishlist-sub001/internal/platform/auth"
	"github.com/edmw/wishlist-sub001/internal/platform/config"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
	"github.com/edmw/wishlist-sub001/internal/platform/idempotency"
	"github.com/edmw/wishlist-sub001/internal/platform/imagestore"
	"github.com/edmw/wishlist-sub001/internal/platform/jobs"
	"github.com/edmw/wishlist-sub001/internal/platform/observability"
	"github.com/edmw/wishlist-sub001/internal/platform/secrets"
	"github.com/edmw/wishlist-sub001/internal/repositories"
	firestoreRepo "github.com/edmw/wishlist-sub001/internal/repositories/firestore"
	"github.com/edmw/wishlist-sub001/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
		config.WithRequiredSecrets("Security.Guest.Secret"),
	)
	if err != nil {
		var missing *config.MissingSecretsError
		if errors.As(err, &missing) {
			logger.Fatal("missing required secrets", zap.Strings("secrets", missing.RedactedNames()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	var notificationProvider services.NotificationProvider
	var emailProvider services.EmailProvider
	var notificationTopic *pubsub.Topic
	if projectID := strings.TrimSpace(cfg.PubSub.ProjectID); projectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, projectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()

		notificationTopic = pubsubClient.Topic(cfg.PubSub.NotificationTopic)
		notifications, err := jobs.NewPubSubNotificationPublisher(notificationTopic)
		if err != nil {
			logger.Fatal("failed to initialise notification publisher", zap.Error(err))
		}
		notificationProvider = notifications

		emails, err := jobs.NewPubSubEmailPublisher(pubsubClient.Topic(cfg.PubSub.EmailTopic))
		if err != nil {
			logger.Fatal("failed to initialise email publisher", zap.Error(err))
		}
		emailProvider = emails
	} else {
		logger.Warn("pubsub project not configured; notifications and invitation emails are disabled")
	}

	var imageStore services.ImageStoreProvider
	if cfg.Features.EnableImageFetch && strings.TrimSpace(cfg.Storage.ImagesBucket) != "" {
		storageClient, err := gcs.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()

		imageFetcher, err := imagestore.NewFetcher(storageClient, cfg.Storage.ImagesBucket)
		if err != nil {
			logger.Fatal("failed to initialise image fetcher", zap.Error(err))
		}
		imageStore = &itemImageStore{fetcher: imageFetcher}
	} else {
		logger.Info("item image fetch disabled")
	}

	var imageURLs handlers.ImageURLResolver
	if imageStore != nil {
		imageURLs = buildImageURLResolver(logger.Named("images"), envValues, cfg)
	}

	healthRepo, err := newHealthRepository(firestoreClient, fetcher, notificationTopic)
	if err != nil {
		logger.Warn("health: dependency checks init failed", zap.Error(err))
	}

	registry, err := firestoreRepo.NewRegistry(firestoreProvider, healthRepo)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	sanitizePolicy := bluemonday.StrictPolicy()
	container, err := di.NewContainer(ctx, cfg, registry, di.Providers{
		Notifications: notificationProvider,
		Email:         emailProvider,
		ImageStore:    imageStore,
		Sanitize:      sanitizePolicy.Sanitize,
		Log:           zapServiceLogger(logger.Named("services")),
		Clock:         time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise services", zap.Error(err))
	}

	guestTokens, err := auth.NewGuestTokens(cfg.Security.Guest)
	if err != nil {
		logger.Fatal("failed to initialise guest tokens", zap.Error(err))
	}

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier, auth.WithUserGetter(firebaseVerifier))

	oidcMiddleware := buildOIDCMiddleware(logger.Named("auth"), cfg)

	idempotencyMiddleware := idempotency.Middleware(
		idempotency.NewFirestoreStore(firestoreClient),
		idempotency.WithLogger(observability.NewPrintfAdapter(logger.Named("idempotency"))),
	)

	resolver := handlers.NewSubjectResolver(registry.Users())
	wishlistHandlers := handlers.NewWishlistHandlers(resolver, container.Services.Wishlists,
		handlers.WithReservationRateLimit(cfg.RateLimits.DefaultPerMinute, time.Minute),
		handlers.WithImageURLs(imageURLs),
	)
	meHandlers := handlers.NewMeHandlers(
		authenticator,
		resolver,
		container.Services.Users,
		container.Services.Lists,
		container.Services.Items,
		container.Services.Favorites,
		container.Services.Invitations,
		handlers.WithMeImageURLs(imageURLs),
	)
	internalHandlers := handlers.NewInternalHandlers(container.Services.System, container.Services.Audit)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthSystemService(container.Services.System),
	)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		guestTokens.IdentificationMiddleware(),
		authenticator.OptionalFirebaseAuth(),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithWishlistRoutes(wishlistHandlers.Routes),
		handlers.WithWishlistMiddlewares(idempotencyMiddleware),
		handlers.WithMeRoutes(meHandlers.Routes),
		handlers.WithInternalRoutes(internalHandlers.Routes),
	}
	if cfg.Features.EnableInvitations {
		invitationHandlers := handlers.NewInvitationHandlers(authenticator, resolver, container.Services.Invitations)
		opts = append(opts, handlers.WithInvitationRoutes(invitationHandlers.Routes))
	}
	if oidcMiddleware != nil {
		opts = append(opts, handlers.WithInternalMiddlewares(oidcMiddleware))
	} else {
		logger.Warn("auth: OIDC not configured; internal routes are unprotected")
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("wishlist api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	if err := container.Close(closeCtx); err != nil {
		logger.Warn("container close error", zap.Error(err))
	}
}

// itemImageStore adapts the imagestore fetcher to the item image contract the
// services expect: object keys are derived from the owning list and item so a
// whole list can be cleaned up by prefix.
type itemImageStore struct {
	fetcher *imagestore.Fetcher
}

func (s *itemImageStore) FetchItemImage(ctx context.Context, ownerID, listID, itemID domain.ID, sourceURL string) (string, error) {
	fileName := imagestore.FileNameFromURL(sourceURL, "image")
	objectPath, err := imagestore.ItemImagePath(ownerID.String(), listID.String(), itemID.String(), fileName)
	if err != nil {
		return "", err
	}
	stored, err := s.fetcher.Fetch(ctx, sourceURL, objectPath)
	if err != nil {
		return "", err
	}
	return stored.Object, nil
}

func (s *itemImageStore) DeleteItemImage(ctx context.Context, objectPath string) error {
	return s.fetcher.Delete(ctx, objectPath)
}

func (s *itemImageStore) DeleteListImages(ctx context.Context, ownerID, listID domain.ID) error {
	prefix, err := imagestore.ListPrefix(ownerID.String(), listID.String())
	if err != nil {
		return err
	}
	return s.fetcher.DeletePrefix(ctx, prefix)
}

// buildImageURLResolver signs download URLs for stored item images using the
// service account credentials file. Items are only handed out after the
// owning list's visibility was checked, so anonymous downloads are allowed.
func buildImageURLResolver(logger *zap.Logger, env map[string]string, cfg config.Config) handlers.ImageURLResolver {
	credentialsFile := ""
	if env != nil {
		credentialsFile = strings.TrimSpace(env["WISHLIST_FIREBASE_CREDENTIALS_FILE"])
	}
	if credentialsFile == "" {
		logger.Info("image url signing disabled; payloads carry object paths")
		return nil
	}
	signer, err := imagestore.NewServiceAccountSignerFromFile(credentialsFile)
	if err != nil {
		logger.Warn("image url signer init failed", zap.Error(err))
		return nil
	}
	urlClient, err := imagestore.NewURLClient(signer)
	if err != nil {
		logger.Warn("image url client init failed", zap.Error(err))
		return nil
	}
	bucket := strings.TrimSpace(cfg.Storage.ImagesBucket)
	return func(ctx context.Context, objectPath string) string {
		result, err := urlClient.DownloadURL(ctx, bucket, objectPath, imagestore.DownloadOptions{AllowAnonymous: true})
		if err != nil {
			return ""
		}
		return result.URL
	}
}

func zapServiceLogger(logger *zap.Logger) services.Logger {
	return func(_ context.Context, msg string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		logger.Info(msg, zFields...)
	}
}

func newHealthRepository(client *firestore.Client, fetcher *secrets.Fetcher, topic *pubsub.Topic) (repositories.HealthRepository, error) {
	checks := make([]repositories.DependencyCheck, 0, 3)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				ok, err := t.Exists(ctx)
				if err != nil {
					return err
				}
				if !ok {
					return errors.New("notification topic does not exist")
				}
				return nil
			},
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secretManager",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	return repositories.NewDependencyHealthRepository(checks)
}

func buildOIDCMiddleware(logger *zap.Logger, cfg config.Config) func(http.Handler) http.Handler {
	if strings.TrimSpace(cfg.Security.OIDC.JWKSURL) == "" {
		return nil
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	adapter := observability.NewPrintfAdapter(logger)
	cache := auth.NewJWKSCache(cfg.Security.OIDC.JWKSURL, auth.WithJWKSLogger(adapter))
	validator := auth.NewOIDCValidator(cache, auth.WithOIDCLogger(adapter))

	audience := strings.TrimSpace(cfg.Security.OIDC.Audience)
	if audience == "" {
		logger.Warn("auth: OIDC audience not configured; internal routes will reject requests")
	}
	issuers := cfg.Security.OIDC.Issuers
	if len(issuers) == 0 {
		logger.Warn("auth: OIDC issuers not configured; internal routes will reject requests")
	}

	return validator.RequireOIDC(audience, issuers)
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Firebase.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		if value, ok := env[key]; ok {
			return strings.TrimSpace(value)
		}
		return ""
	}

	envLabel := strings.ToLower(lookup("WISHLIST_SECURITY_ENVIRONMENT"))
	if envLabel == "" {
		envLabel = "local"
	}
	projectMap := secretProjectMapFromEnv(env)
	defaultProject := lookup("WISHLIST_SECRET_DEFAULT_PROJECT_ID")
	if defaultProject == "" {
		defaultProject = lookup("WISHLIST_FIREBASE_PROJECT_ID")
	}
	fallbackPath := lookup("WISHLIST_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}
	versionPins := secretVersionPinsFromEnv(env)
	credentialsFile := lookup("WISHLIST_FIREBASE_CREDENTIALS_FILE")

	opts := []secrets.Option{
		secrets.WithEnvironment(envLabel),
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if len(projectMap) > 0 {
		opts = append(opts, secrets.WithProjectMap(projectMap))
	}
	if defaultProject != "" {
		opts = append(opts, secrets.WithDefaultProject(defaultProject))
	}
	if len(versionPins) > 0 {
		opts = append(opts, secrets.WithVersionPins(versionPins))
	}
	if credentialsFile != "" {
		opts = append(opts, secrets.WithClientOptions(option.WithCredentialsFile(credentialsFile)))
	}

	return secrets.NewFetcher(ctx, opts...)
}

func secretProjectMapFromEnv(env map[string]string) map[string]string {
	raw := ""
	if env != nil {
		raw = env["WISHLIST_SECRET_PROJECT_IDS"]
	}
	raw = strings.TrimSpace(raw)
	projects := make(map[string]string)
	if raw == "" {
		return projects
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		envLabel := strings.ToLower(strings.TrimSpace(parts[0]))
		project := strings.TrimSpace(parts[1])
		if envLabel == "" || project == "" {
			continue
		}
		projects[envLabel] = project
	}
	return projects
}

func secretVersionPinsFromEnv(env map[string]string) map[string]string {
	raw := ""
	if env != nil {
		raw = env["WISHLIST_SECRET_VERSION_PINS"]
	}
	raw = strings.TrimSpace(raw)
	pins := make(map[string]string)
	if raw == "" {
		return pins
	}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		ref := strings.TrimSpace(parts[0])
		version := strings.TrimSpace(parts[1])
		if ref == "" || version == "" {
			continue
		}
		var prefix string
		if idx := strings.Index(ref, ":"); idx > 0 {
			schemeSplit := strings.Index(ref, "://")
			if schemeSplit == -1 || idx < schemeSplit {
				prefix = strings.ToLower(strings.TrimSpace(ref[:idx])) + ":"
				ref = strings.TrimSpace(ref[idx+1:])
			}
		}
		if strings.HasPrefix(ref, "sm://") {
			ref = "secret://" + strings.TrimPrefix(ref, "sm://")
		} else if !strings.HasPrefix(ref, "secret://") {
			ref = "secret://" + ref
		}
		ref = prefix + ref
		pins[ref] = version
	}
	return pins
}
