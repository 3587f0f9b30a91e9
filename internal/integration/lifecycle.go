// Package integration connects and disconnects the store from a Perfit
// account: it issues host credentials, configures the remote side,
// persists the resulting settings and provisions webhooks.
package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wcperfit/internal/lock"
	"wcperfit/internal/logger"
	"wcperfit/internal/metrics"
	"wcperfit/internal/models"
	"wcperfit/internal/options"
	"wcperfit/internal/services/perfit"
	"wcperfit/internal/services/woocommerce"
)

const (
	configurePath = "/integrations/woocommerce/configure"
	cancelPath    = "/integrations/woocommerce/cancel"

	// authMethod tells Perfit to pull data with the issued consumer key pair.
	authMethod = "api-key-de-wooocommerce"

	lockKey = "lifecycle"
	// lockTTL outlives the outbound request timeout so a crashed caller
	// cannot wedge the integration for long.
	lockTTL = 2 * time.Minute
)

const (
	MessageUnauthorized = "Unauthorized"
	MessageUnknown      = "Unknown error"
)

var (
	ErrEmptyAPIKey   = errors.New("integration: api key is required")
	ErrBusy          = errors.New("integration: another activation or deactivation is in progress")
	ErrAlreadyActive = errors.New("integration: already active, deactivate first")
)

// ActivationError is a configure call rejected by Perfit. Message is safe
// to show to the store admin.
type ActivationError struct {
	Message string
	Err     error
}

func (e *ActivationError) Error() string {
	return "integration: activation failed: " + e.Message
}

func (e *ActivationError) Unwrap() error {
	return e.Err
}

type KeyProvisioner interface {
	Provision(ctx context.Context, userID int64) (*woocommerce.ProvisionedKey, error)
	Revoke(ctx context.Context, keyID string) error
}

type WebhookProvisioner interface {
	RegisterAll(ctx context.Context, deliveryURL string, apiVersion int, ownerID int64) ([]models.Webhook, error)
	UnregisterByURL(ctx context.Context, deliveryURL string) (int, error)
}

// Site describes the store as Perfit should see it.
type Site struct {
	HomeURL string
	// AccountRoute is the REST route of the account endpoint, relative to /wp-json/.
	AccountRoute string
	// WCAPIVersions lists the store's REST API versions, oldest first.
	WCAPIVersions []string
}

type Config struct {
	Store    options.ConfigStore
	Keys     KeyProvisioner
	Webhooks WebhookProvisioner
	Locker   lock.Locker
	Perfit   perfit.Settings
	Site     Site
	Logger   *logger.Logger
}

type Lifecycle struct {
	store    options.ConfigStore
	keys     KeyProvisioner
	webhooks WebhookProvisioner
	locker   lock.Locker
	perfit   perfit.Settings
	site     Site
	logger   *logger.Logger
}

func New(cfg Config) *Lifecycle {
	locker := cfg.Locker
	if locker == nil {
		locker = lock.NewMemory()
	}
	return &Lifecycle{
		store:    cfg.Store,
		keys:     cfg.Keys,
		webhooks: cfg.Webhooks,
		locker:   locker,
		perfit:   cfg.Perfit,
		site:     cfg.Site,
		logger:   cfg.Logger.With("integration"),
	}
}

type configureData struct {
	WebhookURL string          `json:"webhook_url"`
	Created    json.RawMessage `json:"created"`
	APIKey     string          `json:"api_key"`
	Account    string          `json:"account"`
}

// Activate connects the store to the Perfit account owning apiKey, acting
// on behalf of the store user userID.
func (l *Lifecycle) Activate(ctx context.Context, apiKey string, userID int64) (err error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ErrEmptyAPIKey
	}

	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.LifecycleTransitions.WithLabelValues("activate", result).Inc()
	}()

	state, err := l.State(ctx)
	if err != nil {
		return err
	}
	if state == StateActive {
		return ErrAlreadyActive
	}
	if err := l.setState(ctx, StateActivating); err != nil {
		return err
	}

	l.logger.Info("activating integration for account %s", perfit.AccountFromAPIKey(apiKey))

	wcVersion := woocommerce.LatestAPIVersion(l.site.WCAPIVersions)
	key, err := l.keys.Provision(ctx, userID)
	if err != nil {
		l.restoreState(ctx, state)
		return fmt.Errorf("integration: failed to issue store credentials: %w", err)
	}

	client := perfit.NewClient(l.perfit, l.logger)
	client.SetAPIKey(apiKey)

	resp, err := client.Post(ctx, configurePath, l.configureParams(wcVersion, key))
	if err != nil {
		l.abandon(ctx, key.KeyID, state)
		return fmt.Errorf("integration: configure request failed: %w", err)
	}

	if !resp.Success {
		l.abandon(ctx, key.KeyID, state)
		actErr := activationError(resp)
		l.logger.Warn("perfit rejected configuration: %v", actErr.Err)
		return actErr
	}

	// Perfit holds the issued key from here on; persist regardless of the caller.
	ctx = context.WithoutCancel(ctx)

	var data configureData
	if err := resp.DecodeData(&data); err != nil || data.WebhookURL == "" {
		l.abandon(ctx, key.KeyID, state)
		if err == nil {
			err = errors.New("configure response has no webhook_url")
		}
		return &ActivationError{Message: MessageUnknown, Err: err}
	}
	if data.APIKey == "" {
		data.APIKey = apiKey
	}
	if data.Account == "" {
		data.Account = perfit.AccountFromAPIKey(data.APIKey)
	}

	err = l.store.SetMany(ctx, map[string]string{
		options.WCAuthKey:  key.KeyID,
		options.Created:    rawString(data.Created),
		options.APIKey:     data.APIKey,
		options.Account:    data.Account,
		options.WebhookURL: data.WebhookURL,
		options.State:      string(StateActive),
	})
	if err != nil {
		l.abandon(ctx, key.KeyID, state)
		return fmt.Errorf("integration: failed to save settings: %w", err)
	}

	if _, err := l.webhooks.RegisterAll(ctx, data.WebhookURL, woocommerce.APIVersionNumber(wcVersion), userID); err != nil {
		l.logger.Error("webhook registration incomplete for %s: %v", data.WebhookURL, err)
		return fmt.Errorf("integration: failed to register webhooks: %w", err)
	}

	l.logger.Info("integration active for account %s", data.Account)
	return nil
}

// Deactivate disconnects the store. Without a stored API key and webhook URL
// there is nothing to undo and no request is made.
func (l *Lifecycle) Deactivate(ctx context.Context) (err error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	apiKey, err := l.store.Get(ctx, options.APIKey, "")
	if err != nil {
		return err
	}
	webhookURL, err := l.store.Get(ctx, options.WebhookURL, "")
	if err != nil {
		return err
	}
	if apiKey == "" || webhookURL == "" {
		return nil
	}

	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.LifecycleTransitions.WithLabelValues("deactivate", result).Inc()
	}()

	if err := l.setState(ctx, StateDeactivating); err != nil {
		return err
	}
	l.logger.Info("deactivating integration for account %s", perfit.AccountFromAPIKey(apiKey))

	client := perfit.NewClient(l.perfit, l.logger)
	client.SetAPIKey(apiKey)
	if _, err := client.Post(ctx, cancelPath, nil); err != nil {
		l.logger.Warn("cancel request failed, continuing: %v", err)
	}

	// Cleanup ignores cancellation from here on.
	ctx = context.WithoutCancel(ctx)

	keyID, err := l.store.Get(ctx, options.WCAuthKey, "")
	if err != nil {
		return err
	}
	err = l.store.DeleteMany(ctx,
		options.WCAuthKey, options.Created, options.APIKey, options.Account, options.WebhookURL)
	if err != nil {
		return fmt.Errorf("integration: failed to clear settings: %w", err)
	}
	if err := l.setState(ctx, StateInactive); err != nil {
		return err
	}

	var errs []error
	if keyID != "" {
		if err := l.keys.Revoke(ctx, keyID); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := l.webhooks.UnregisterByURL(ctx, webhookURL); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("integration: cleanup incomplete: %w", err)
	}

	l.logger.Info("integration deactivated")
	return nil
}

func (l *Lifecycle) configureParams(wcVersion string, key *woocommerce.ProvisionedKey) perfit.Params {
	base := strings.TrimRight(l.site.HomeURL, "/")
	return perfit.Params{
		"wc": perfit.Params{
			"api_version":     wcVersion,
			"consumer_key":    key.ConsumerKey,
			"consumer_secret": key.ConsumerSecret,
		},
		"url":  base,
		"auth": authMethod,
		"urls": perfit.Params{
			"products":  base + "/wp-json/wc/" + wcVersion + "/products",
			"customers": base + "/wp-json/wc/" + wcVersion + "/customers",
			"orders":    base + "/wp-json/wc/" + wcVersion + "/orders",
			"account":   base + "/wp-json/" + strings.Trim(l.site.AccountRoute, "/"),
		},
	}
}

func (l *Lifecycle) acquire(ctx context.Context) (func(), error) {
	ok, err := l.locker.Acquire(ctx, lockKey, lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBusy
	}
	return func() {
		// The caller's context may already be done; the lock must still go.
		if err := l.locker.Release(context.Background(), lockKey); err != nil {
			l.logger.Error("failed to release lifecycle lock: %v", err)
		}
	}, nil
}

// abandon undoes a failed activation: the issued credential is revoked and
// the previous state restored. It ignores cancellation of ctx.
func (l *Lifecycle) abandon(ctx context.Context, keyID string, prev State) {
	ctx = context.WithoutCancel(ctx)
	if err := l.keys.Revoke(ctx, keyID); err != nil {
		l.logger.Error("failed to revoke unused consumer key %s: %v", keyID, err)
	}
	l.restoreState(ctx, prev)
}

func (l *Lifecycle) restoreState(ctx context.Context, prev State) {
	if err := l.setState(context.WithoutCancel(ctx), prev); err != nil {
		l.logger.Error("failed to restore state %s: %v", prev, err)
	}
}

func activationError(resp *perfit.Response) *ActivationError {
	err := resp.Err()
	var appErr *perfit.ApplicationError
	switch {
	case errors.As(err, &appErr) && appErr.IsUnauthorized():
		return &ActivationError{Message: MessageUnauthorized, Err: err}
	case appErr != nil && appErr.UserMessage != "":
		return &ActivationError{Message: appErr.UserMessage, Err: err}
	default:
		return &ActivationError{Message: MessageUnknown, Err: err}
	}
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
