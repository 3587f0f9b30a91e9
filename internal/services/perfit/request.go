package perfit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"wcperfit/internal/metrics"
)

// Params are query parameters for GET requests and the JSON body otherwise.
type Params map[string]interface{}

var httpMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// RequestContext is the per-call state a Request accumulates before it is
// executed.
type RequestContext struct {
	Namespace string
	ID        string
	Action    string
	Method    string
	Params    Params
}

func (rc RequestContext) IsZero() bool {
	return rc.Namespace == "" && rc.ID == "" && rc.Action == "" && rc.Method == "" && len(rc.Params) == 0
}

// Request builds a single API call. It is consumed by Execute (or Get/Post)
// and left empty afterwards, whatever the outcome.
type Request struct {
	client *Client
	rc     RequestContext
}

// Context returns a copy of the state accumulated so far.
func (r *Request) Context() RequestContext {
	rc := r.rc
	if r.rc.Params != nil {
		rc.Params = make(Params, len(r.rc.Params))
		for k, v := range r.rc.Params {
			rc.Params[k] = v
		}
	}
	return rc
}

func (r *Request) WithNamespace(namespace string) *Request {
	r.rc.Namespace = strings.Trim(namespace, "/")
	return r
}

// WithID sets the resource id. Nil, empty strings and zero are ignored.
func (r *Request) WithID(id interface{}) *Request {
	switch v := id.(type) {
	case nil:
		return r
	case string:
		r.rc.ID = v
	case int:
		if v != 0 {
			r.rc.ID = fmt.Sprint(v)
		}
	case int64:
		if v != 0 {
			r.rc.ID = fmt.Sprint(v)
		}
	default:
		r.rc.ID = fmt.Sprint(v)
	}
	return r
}

func (r *Request) WithAction(action string) *Request {
	r.rc.Action = strings.Trim(action, "/")
	return r
}

// Method forces the HTTP method of the call. Unsupported methods are ignored.
func (r *Request) Method(method string) *Request {
	method = strings.ToUpper(method)
	if httpMethods[method] {
		r.rc.Method = method
	}
	return r
}

// Params merges params into the request, later keys winning.
func (r *Request) Params(params Params) *Request {
	if len(params) == 0 {
		return r
	}
	if r.rc.Params == nil {
		r.rc.Params = make(Params, len(params))
	}
	for k, v := range params {
		r.rc.Params[k] = v
	}
	return r
}

func (r *Request) Limit(limit int) *Request {
	return r.Params(Params{"limit": limit})
}

func (r *Request) Offset(offset int) *Request {
	return r.Params(Params{"offset": offset})
}

func (r *Request) Sort(sortBy, sortDir string) *Request {
	p := Params{"sortBy": sortBy}
	if sortDir != "" {
		p["sortDir"] = sortDir
	}
	return r.Params(p)
}

func (r *Request) Get(ctx context.Context, path string, params Params) (*Response, error) {
	return r.Execute(ctx, http.MethodGet, path, params)
}

func (r *Request) Post(ctx context.Context, path string, params Params) (*Response, error) {
	return r.Execute(ctx, http.MethodPost, path, params)
}

// Execute performs the call. With an empty path the URL is built from the
// namespace, id and action; otherwise path is appended after the version
// and account. A transport failure returns a *NetworkError.
func (r *Request) Execute(ctx context.Context, method, path string, params Params) (*Response, error) {
	defer r.reset()

	c := r.client
	if r.rc.Method != "" {
		method = r.rc.Method
	}
	method = strings.ToUpper(method)
	r.Params(params)

	var fullURL string
	if path == "" {
		fullURL = c.baseURL + r.buildURL()
	} else {
		fullURL = c.baseURL + r.buildLinkURL(path)
	}

	var body io.Reader
	if method == http.MethodGet {
		if q := encodeQuery(r.rc.Params); q != "" {
			fullURL += "?" + q
		}
	} else if len(r.rc.Params) > 0 {
		payload, err := json.Marshal(r.rc.Params)
		if err != nil {
			return nil, fmt.Errorf("perfit: failed to marshal params: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("perfit: failed to create request: %w", err)
	}
	c.setHeaders(req)

	c.logger.Debug("perfit request %s %s", method, fullURL)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.PerfitRequests.WithLabelValues(method, "network_error").Inc()
		return nil, &NetworkError{Method: method, URL: fullURL, Err: err}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.PerfitRequests.WithLabelValues(method, "network_error").Inc()
		return nil, &NetworkError{Method: method, URL: fullURL, Err: err}
	}

	resp := parseResponse(httpResp.StatusCode, raw)
	if resp.JSON {
		resp.Request = &RequestEcho{
			Host:    c.baseURL,
			Method:  method,
			URL:     fullURL,
			Params:  params,
			Account: c.Account(),
		}
	}
	metrics.PerfitRequests.WithLabelValues(method, outcome(resp)).Inc()

	return resp, nil
}

// buildURL yields /v{version}[/{account}/{namespace}][/{id}][/{action}].
func (r *Request) buildURL() string {
	var b strings.Builder
	if v := r.client.version; v > 0 {
		fmt.Fprintf(&b, "/v%d", v)
	}
	if r.rc.Namespace != "" {
		if account := r.client.Account(); account != "" {
			b.WriteString("/" + account)
		}
		b.WriteString("/" + r.rc.Namespace)
	}
	if r.rc.ID != "" {
		b.WriteString("/" + r.rc.ID)
	}
	if r.rc.Action != "" {
		b.WriteString("/" + r.rc.Action)
	}
	return b.String()
}

// buildLinkURL yields /v{version}[/{account}]{path}.
func (r *Request) buildLinkURL(path string) string {
	var b strings.Builder
	if v := r.client.version; v > 0 {
		fmt.Fprintf(&b, "/v%d", v)
	}
	if account := r.client.Account(); account != "" {
		b.WriteString("/" + account)
	}
	if !strings.HasPrefix(path, "/") {
		b.WriteString("/")
	}
	b.WriteString(path)
	return b.String()
}

func (r *Request) reset() {
	r.rc = RequestContext{}
}

func outcome(resp *Response) string {
	switch {
	case !resp.JSON:
		return "non_json"
	case resp.Success:
		return "ok"
	default:
		return "app_error"
	}
}

// encodeQuery encodes params in bracket notation so nested maps and slices
// survive the trip (a[b]=1&c[]=2), with keys sorted.
func encodeQuery(params Params) string {
	if len(params) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range params {
		addQueryValue(values, k, v)
	}
	return values.Encode()
}

func addQueryValue(values url.Values, key string, v interface{}) {
	switch val := v.(type) {
	case nil:
		values.Add(key, "")
	case Params:
		addQueryMap(values, key, val)
	case map[string]interface{}:
		addQueryMap(values, key, val)
	case []interface{}:
		for i, item := range val {
			addQueryValue(values, fmt.Sprintf("%s[%d]", key, i), item)
		}
	case []string:
		for i, item := range val {
			values.Add(fmt.Sprintf("%s[%d]", key, i), item)
		}
	case bool:
		if val {
			values.Add(key, "1")
		} else {
			values.Add(key, "0")
		}
	default:
		values.Add(key, fmt.Sprint(val))
	}
}

func addQueryMap(values url.Values, key string, m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		addQueryValue(values, key+"["+k+"]", m[k])
	}
}
