package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"WISHLIST_FIREBASE_PROJECT_ID": "wl-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Firestore.ProjectID != "wl-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.PubSub.ProjectID != "wl-dev" {
		t.Errorf("expected pubsub project to default to firebase project, got %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.NotificationTopic != "wishlist-notifications" {
		t.Errorf("unexpected notification topic: %s", cfg.PubSub.NotificationTopic)
	}
	if cfg.RateLimits.DefaultPerMinute != 120 {
		t.Errorf("unexpected default rate limit: %d", cfg.RateLimits.DefaultPerMinute)
	}
	if cfg.Limits.MaxListsPerUser != 1000 {
		t.Errorf("unexpected default list limit: %d", cfg.Limits.MaxListsPerUser)
	}
	if cfg.Limits.MaxItemsPerList != 1000 {
		t.Errorf("unexpected default item limit: %d", cfg.Limits.MaxItemsPerList)
	}
	if cfg.Limits.MaxFavoritesPerUser != 100 {
		t.Errorf("unexpected default favorite limit: %d", cfg.Limits.MaxFavoritesPerUser)
	}
	if cfg.Limits.MaxInvitationsPerUser != 10 {
		t.Errorf("unexpected default invitation limit: %d", cfg.Limits.MaxInvitationsPerUser)
	}
	if cfg.Security.Environment != "local" {
		t.Errorf("expected default security environment local, got %s", cfg.Security.Environment)
	}
	if cfg.Security.OIDC.JWKSURL != defaultOIDCJWKSURL {
		t.Errorf("expected default jwks url %s, got %s", defaultOIDCJWKSURL, cfg.Security.OIDC.JWKSURL)
	}
	if len(cfg.Security.OIDC.Issuers) != 2 {
		t.Errorf("expected default issuers, got %v", cfg.Security.OIDC.Issuers)
	}
	if cfg.Security.Guest.CookieName != defaultGuestCookieName {
		t.Errorf("expected default guest cookie name, got %s", cfg.Security.Guest.CookieName)
	}
	if cfg.Security.Guest.TTL != defaultGuestTokenTTL {
		t.Errorf("unexpected default guest token ttl: %s", cfg.Security.Guest.TTL)
	}
	if !cfg.Features.EnableInvitations {
		t.Errorf("expected invitations enabled by default")
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"WISHLIST_SERVER_PORT":                    "9090",
		"WISHLIST_SERVER_READ_TIMEOUT":            "20s",
		"WISHLIST_SERVER_WRITE_TIMEOUT":           "25s",
		"WISHLIST_SERVER_IDLE_TIMEOUT":            "2m",
		"WISHLIST_FIREBASE_PROJECT_ID":            "wl-prod",
		"WISHLIST_FIRESTORE_PROJECT_ID":           "wl-fire",
		"WISHLIST_STORAGE_IMAGES_BUCKET":          "images-prod",
		"WISHLIST_PUBSUB_PROJECT_ID":              "wl-pubsub",
		"WISHLIST_PUBSUB_NOTIFICATION_TOPIC":      "notify-prod",
		"WISHLIST_PUBSUB_EMAIL_TOPIC":             "email-prod",
		"WISHLIST_LIMITS_MAX_LISTS_PER_USER":      "50",
		"WISHLIST_LIMITS_MAX_ITEMS_PER_LIST":      "200",
		"WISHLIST_LIMITS_MAX_FAVORITES_PER_USER":  "25",
		"WISHLIST_LIMITS_MAX_INVITATIONS_PER_USER": "5",
		"WISHLIST_RATELIMIT_DEFAULT_PER_MIN":      "150",
		"WISHLIST_RATELIMIT_AUTH_PER_MIN":         "300",
		"WISHLIST_FEATURE_INVITATIONS":            "false",
		"WISHLIST_FEATURE_IMAGE_FETCH":            "false",
		"WISHLIST_SECURITY_ENVIRONMENT":           "prod",
		"WISHLIST_SECURITY_OIDC_AUDIENCE":         "https://service.example.com",
		"WISHLIST_SECURITY_OIDC_ISSUERS":          "https://accounts.google.com, https://cloud.google.com/iap",
		"WISHLIST_SECURITY_OIDC_JWKS_URL":         "https://example.com/jwks.json",
		"WISHLIST_SECURITY_GUEST_SECRET":          "secret://guest/signing",
		"WISHLIST_SECURITY_GUEST_COOKIE":          "wl_guest",
		"WISHLIST_SECURITY_GUEST_TTL":             "720h",
	}

	secrets := map[string]string{
		"secret://guest/signing": "guest-signing-key",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Firestore.ProjectID != "wl-fire" {
		t.Errorf("unexpected firestore project %s", cfg.Firestore.ProjectID)
	}
	if cfg.Storage.ImagesBucket != "images-prod" {
		t.Errorf("unexpected images bucket %s", cfg.Storage.ImagesBucket)
	}
	if cfg.PubSub.ProjectID != "wl-pubsub" {
		t.Errorf("unexpected pubsub project %s", cfg.PubSub.ProjectID)
	}
	if cfg.PubSub.EmailTopic != "email-prod" {
		t.Errorf("unexpected email topic %s", cfg.PubSub.EmailTopic)
	}
	if cfg.Limits.MaxListsPerUser != 50 || cfg.Limits.MaxItemsPerList != 200 {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Limits.MaxFavoritesPerUser != 25 || cfg.Limits.MaxInvitationsPerUser != 5 {
		t.Errorf("unexpected limits %+v", cfg.Limits)
	}
	if cfg.Features.EnableInvitations {
		t.Errorf("expected invitations flag disabled")
	}
	if cfg.Features.EnableImageFetch {
		t.Errorf("expected image fetch flag disabled")
	}
	if cfg.Security.Environment != "prod" {
		t.Errorf("expected security environment prod, got %s", cfg.Security.Environment)
	}
	if cfg.Security.OIDC.Audience != "https://service.example.com" {
		t.Errorf("unexpected oidc audience %s", cfg.Security.OIDC.Audience)
	}
	if cfg.Security.OIDC.JWKSURL != "https://example.com/jwks.json" {
		t.Errorf("unexpected jwks url %s", cfg.Security.OIDC.JWKSURL)
	}
	if cfg.Security.Guest.Secret != "guest-signing-key" {
		t.Errorf("expected resolved guest secret, got %s", cfg.Security.Guest.Secret)
	}
	if cfg.Security.Guest.CookieName != "wl_guest" {
		t.Errorf("unexpected guest cookie name %s", cfg.Security.Guest.CookieName)
	}
	if cfg.Security.Guest.TTL != 720*time.Hour {
		t.Errorf("unexpected guest token ttl %s", cfg.Security.Guest.TTL)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "WISHLIST_SERVER_PORT=7070\nWISHLIST_FIREBASE_PROJECT_ID=wl-dot\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Firebase.ProjectID != "wl-dot" {
		t.Errorf("expected firebase project from dotenv, got %s", cfg.Firebase.ProjectID)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	_, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := map[string]string{
		"WISHLIST_FIREBASE_PROJECT_ID":   "wl-dev",
		"WISHLIST_SECURITY_GUEST_SECRET": "secret://missing",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret resolution error, got nil")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "WISHLIST_FIREBASE_PROJECT_ID=dot-project\nWISHLIST_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("WISHLIST_FIREBASE_PROJECT_ID", "os-project")
	t.Setenv("WISHLIST_SECRET_PROJECT_IDS", "prod=project-prod")

	overrides := map[string]string{
		"WISHLIST_FIREBASE_PROJECT_ID": "override-project",
		"WISHLIST_SECRET_VERSION_PINS": "secret://guest/signing=5",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["WISHLIST_FIREBASE_PROJECT_ID"]; got != "override-project" {
		t.Fatalf("expected override project, got %s", got)
	}
	if got := values["WISHLIST_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["WISHLIST_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
	if got := values["WISHLIST_SECRET_VERSION_PINS"]; got != "secret://guest/signing=5" {
		t.Fatalf("expected override version pin, got %s", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	env := map[string]string{
		"WISHLIST_FIREBASE_PROJECT_ID": "wl-dev",
	}

	_, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Security.Guest.Secret"),
	)
	if err == nil {
		t.Fatal("expected missing secrets error, got nil")
	}
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	expectedRedacted := redactSecretName("Security.Guest.Secret")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != expectedRedacted {
		t.Fatalf("unexpected redacted names %v", got)
	}
}

func TestLoadMissingRequiredSecretsPanic(t *testing.T) {
	env := map[string]string{
		"WISHLIST_FIREBASE_PROJECT_ID": "wl-dev",
	}

	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic when required secrets missing")
		}
		missing, ok := rec.(*MissingSecretsError)
		if !ok {
			t.Fatalf("expected MissingSecretsError panic, got %T", rec)
		}
		if len(missing.Names()) != 1 || missing.Names()[0] != "Security.Guest.Secret" {
			t.Fatalf("unexpected missing secrets %v", missing.Names())
		}
	}()

	Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Security.Guest.Secret"),
		WithPanicOnMissingSecrets(),
	)
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := map[string]string{
		"WISHLIST_FIREBASE_PROJECT_ID":   "wl-dev",
		"WISHLIST_SECURITY_GUEST_SECRET": "sm://guest/signing",
	}

	secrets := map[string]string{
		"secret://guest/signing": "legacy-secret",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errors.New("not found")}
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Security.Guest.Secret != "legacy-secret" {
		t.Fatalf("expected legacy secret, got %s", cfg.Security.Guest.Secret)
	}
}
