package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/redlinedata/redline/pkg/errors"
)

// DecodeResponse decodes a JSON response into the target structure. A
// non-2xx status becomes an APIError carrying the response body and the
// request path.
func DecodeResponse(resp *http.Response, target any) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		endpoint := ""
		if resp.Request != nil && resp.Request.URL != nil {
			endpoint = resp.Request.URL.Path
		}
		return &errors.APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    string(body),
		}
	}

	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}

// Drain discards a response body and closes it, letting the connection be
// reused. Non-2xx statuses still become an APIError.
func Drain(resp *http.Response) error {
	return DecodeResponse(resp, nil)
}
