package integration

import (
	"context"
	"strings"

	"wcperfit/internal/options"
)

// State is the persisted position of the integration in its lifecycle:
// inactive -> activating -> active -> deactivating -> inactive.
type State string

const (
	StateInactive     State = "inactive"
	StateActivating   State = "activating"
	StateActive       State = "active"
	StateDeactivating State = "deactivating"
)

// maskLength is the width of the masked API key shown to admins.
const maskLength = 50

// Status is what the settings screen shows about the integration.
type Status struct {
	State      State  `json:"state"`
	Account    string `json:"account,omitempty"`
	APIKeyMask string `json:"apikey_mask,omitempty"`
	WebhookURL string `json:"webhook_url,omitempty"`
	Created    string `json:"created,omitempty"`
}

// State returns the persisted state. Settings written before the state
// was tracked are read as active when an API key is present.
func (l *Lifecycle) State(ctx context.Context) (State, error) {
	s, err := l.store.Get(ctx, options.State, "")
	if err != nil {
		return "", err
	}
	if s != "" {
		return State(s), nil
	}
	apiKey, err := l.store.Get(ctx, options.APIKey, "")
	if err != nil {
		return "", err
	}
	if apiKey != "" {
		return StateActive, nil
	}
	return StateInactive, nil
}

func (l *Lifecycle) setState(ctx context.Context, s State) error {
	return l.store.Set(ctx, options.State, string(s))
}

func (l *Lifecycle) Status(ctx context.Context) (*Status, error) {
	state, err := l.State(ctx)
	if err != nil {
		return nil, err
	}
	st := &Status{State: state}
	if st.Account, err = l.store.Get(ctx, options.Account, ""); err != nil {
		return nil, err
	}
	if st.WebhookURL, err = l.store.Get(ctx, options.WebhookURL, ""); err != nil {
		return nil, err
	}
	if st.Created, err = l.store.Get(ctx, options.Created, ""); err != nil {
		return nil, err
	}
	st.APIKeyMask = MaskAPIKey(st.Account)
	return st, nil
}

// MaskAPIKey renders the account right-padded with '*' so the admin can
// tell which key is in use without seeing it.
func MaskAPIKey(account string) string {
	if account == "" {
		return ""
	}
	if len(account) >= maskLength {
		return account
	}
	return account + strings.Repeat("*", maskLength-len(account))
}
