package perfit

import (
	"encoding/json"
	"fmt"
)

// Response is the outcome of an executed request. When JSON is false the
// body was not valid JSON and only StatusCode and Raw are set.
type Response struct {
	StatusCode int
	Raw        []byte
	JSON       bool

	Success bool
	Data    json.RawMessage
	Error   *ApplicationError

	// Request echoes what was sent, for diagnostics. Only set on JSON responses.
	Request *RequestEcho
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *ApplicationError `json:"error"`
}

// RequestEcho describes the request that produced a Response.
type RequestEcho struct {
	Host    string `json:"host"`
	Method  string `json:"method"`
	URL     string `json:"url"`
	Params  Params `json:"params"`
	Account string `json:"account"`
}

// Err returns nil for a successful response, ErrInvalidResponse for a
// non-JSON body, and an *ApplicationError otherwise.
func (r *Response) Err() error {
	if !r.JSON {
		return ErrInvalidResponse
	}
	if r.Success {
		return nil
	}
	if r.Error != nil {
		return r.Error
	}
	return &ApplicationError{Status: r.StatusCode, Type: "UNKNOWN"}
}

// DecodeData unmarshals the data member of a JSON response into v.
func (r *Response) DecodeData(v interface{}) error {
	if !r.JSON {
		return ErrInvalidResponse
	}
	if len(r.Data) == 0 {
		return fmt.Errorf("perfit: response has no data")
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("perfit: failed to decode data: %w", err)
	}
	return nil
}

func parseResponse(status int, body []byte) *Response {
	resp := &Response{StatusCode: status, Raw: body}
	if !json.Valid(body) {
		return resp
	}
	resp.JSON = true
	// Bodies that are valid JSON but not an envelope object (arrays,
	// scalars) keep the whole document as Data.
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		resp.Data = json.RawMessage(body)
		return resp
	}
	resp.Success = env.Success
	resp.Data = env.Data
	resp.Error = env.Error
	return resp
}
