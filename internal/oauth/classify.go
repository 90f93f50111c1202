package oauth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// Classify routes a provider response to success or failure. A status in
// [200,202] is success and the body is decoded as JSON when the content type
// mentions json, as form values otherwise. Every other status is a
// *ProviderError carrying the raw body.
func Classify(status int, contentType string, body []byte) (map[string]any, error) {
	if status < 200 || status > 202 {
		perr := &ProviderError{
			StatusCode: status,
			Body:       body,
			Message:    fmt.Sprintf("provider returned status %d", status),
		}
		if values, err := decodeBody(contentType, body); err == nil {
			if msg := errorMessage(values); msg != "" {
				perr.Message = msg
			}
		}
		return nil, perr
	}

	values, err := decodeBody(contentType, body)
	if err != nil {
		return nil, malformed(status, body, "%v", err)
	}
	return values, nil
}

func decodeBody(contentType string, body []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]any{}, nil
	}

	if strings.Contains(strings.ToLower(contentType), "json") {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var values map[string]any
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
		if values == nil {
			return nil, fmt.Errorf("decode json: body is not an object")
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, fmt.Errorf("decode json: trailing data after object")
		}
		return values, nil
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("decode form: %w", err)
	}
	values := make(map[string]any, len(form))
	for key, vs := range form {
		if len(vs) == 1 {
			values[key] = vs[0]
		} else {
			values[key] = vs
		}
	}
	return values, nil
}

func errorMessage(values map[string]any) string {
	for _, key := range []string{"error_description", "error", "message"} {
		if s, ok := stringValue(values[key]); ok {
			return s
		}
	}
	return ""
}
