package perfit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"wcperfit/internal/logger"
)

const (
	SDKVersion        = "1.0.0"
	DefaultURL        = "https://api.myperfit.com"
	DefaultAPIVersion = 2
	DefaultTimeout    = 60 * time.Second
)

// Settings override the client defaults. Zero values keep the default.
type Settings struct {
	URL     string
	Version int
	Timeout time.Duration
}

// Client talks to the Perfit REST API. Credentials live on the client;
// per-call state lives on the Request builders it hands out, so concurrent
// requests never share a request context.
type Client struct {
	baseURL    string
	version    int
	httpClient *http.Client
	logger     *logger.Logger

	mu      sync.RWMutex
	apiKey  string
	account string
	token   string
}

func NewClient(settings Settings, log *logger.Logger) *Client {
	if log == nil {
		log = logger.New("info")
	}
	c := &Client{
		baseURL: DefaultURL,
		version: DefaultAPIVersion,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: log,
	}
	if settings.URL != "" {
		c.baseURL = strings.TrimRight(settings.URL, "/")
	}
	if settings.Version > 0 {
		c.version = settings.Version
	}
	if settings.Timeout > 0 {
		c.httpClient.Timeout = settings.Timeout
	}
	return c
}

// AccountFromAPIKey returns the account an API key was issued for: the part
// before the first "-", or the whole key when it has none.
func AccountFromAPIKey(apiKey string) string {
	account, _, _ := strings.Cut(apiKey, "-")
	return account
}

// SetAPIKey stores the key, derives the account from it and authenticates
// subsequent requests with it. An empty key is ignored so unauthenticated
// calls stay possible.
func (c *Client) SetAPIKey(apiKey string) {
	if apiKey == "" {
		return
	}
	c.mu.Lock()
	c.apiKey = apiKey
	c.account = AccountFromAPIKey(apiKey)
	c.mu.Unlock()
}

func (c *Client) APIKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// SetToken sets the session token sent as X-Auth-Token. Empty is ignored.
func (c *Client) SetToken(token string) {
	if token == "" {
		return
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetAccount overrides the account used in request URLs. Empty is ignored.
func (c *Client) SetAccount(account string) {
	if account == "" {
		return
	}
	c.mu.Lock()
	c.account = account
	c.mu.Unlock()
}

func (c *Client) Account() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// NewRequest returns an empty request builder.
func (c *Client) NewRequest() *Request {
	return &Request{client: c}
}

func (c *Client) WithNamespace(namespace string) *Request {
	return c.NewRequest().WithNamespace(namespace)
}

func (c *Client) Get(ctx context.Context, path string, params Params) (*Response, error) {
	return c.NewRequest().Get(ctx, path, params)
}

func (c *Client) Post(ctx context.Context, path string, params Params) (*Response, error) {
	return c.NewRequest().Post(ctx, path, params)
}

func (c *Client) Execute(ctx context.Context, method, path string, params Params) (*Response, error) {
	return c.NewRequest().Execute(ctx, method, path, params)
}

type loginData struct {
	Token   string `json:"token"`
	Account string `json:"account"`
}

// Login authenticates with user credentials instead of an API key. On
// success the returned token and account are used for later requests.
func (c *Client) Login(ctx context.Context, user, password, account string) (*Response, error) {
	params := Params{"user": user, "password": password}
	if account != "" {
		params["account"] = account
	}
	resp, err := c.Post(ctx, "/login", params)
	if err != nil {
		return nil, err
	}

	if err := resp.Err(); err != nil {
		var appErr *ApplicationError
		if errors.As(err, &appErr) {
			switch appErr.Type {
			case "UNAUTHORIZED":
				return resp, ErrUnauthorizedLogin
			case "ACCOUNT_REQUIRED":
				return resp, ErrAccountRequired
			}
		}
		return resp, fmt.Errorf("perfit: login failed: %w", err)
	}

	var data loginData
	if err := resp.DecodeData(&data); err != nil {
		return resp, err
	}
	c.SetToken(data.Token)
	c.SetAccount(data.Account)
	return resp, nil
}

func (c *Client) setHeaders(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req.Header.Set("User-Agent", "PERFIT-GO-SDK-"+SDKVersion)
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}
}
