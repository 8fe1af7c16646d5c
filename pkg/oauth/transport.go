package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
)

const (
	maxResponseSize  = 1 << 20
	maxErrorBodySize = 512
)

// response is a fully read provider response.
type response struct {
	contentType string
	body        []byte
}

// get performs a GET request and reads the whole body.
// Non-2xx statuses are reported as ErrRequestFailed.
func get(ctx context.Context, client *http.Client, u *url.URL) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, fmt.Errorf("build request: %w", err))
	}

	// The URL carries secrets (client_secret, access_token); keep it out of errors.
	endpoint := u.Host + u.Path

	resp, err := client.Do(req)
	if err != nil {
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, errors.Join(ErrFetchFailed, fmt.Errorf("get %s: %w", endpoint, err))
	}
	if resp == nil {
		return nil, errors.Join(ErrNilResponse, fmt.Errorf("unexpected nil response from %s", endpoint))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.Join(ErrFetchFailed, fmt.Errorf("read %s: %w", endpoint, err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if len(body) > maxErrorBodySize {
			body = body[:maxErrorBodySize]
		}
		return nil, errors.Join(ErrRequestFailed, fmt.Errorf("%s: status=%d body=%s", endpoint, resp.StatusCode, body))
	}

	return &response{contentType: resp.Header.Get("Content-Type"), body: body}, nil
}

// isJSON reports whether the response body is a JSON document, judging by
// the content type or, failing that, the first non-space byte.
func (r *response) isJSON() bool {
	if mt, _, err := mime.ParseMediaType(r.contentType); err == nil {
		switch mt {
		case "application/json", "text/javascript":
			return true
		}
	}
	trimmed := bytes.TrimSpace(r.body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// accessToken extracts access_token from a token endpoint response, which is
// either form-urlencoded or JSON. An empty token is not an error here.
func (r *response) accessToken() (string, error) {
	var values url.Values
	if r.isJSON() {
		fields, err := decodeFlat(r.body)
		if err != nil {
			return "", err
		}
		values = make(url.Values, len(fields))
		for k, v := range fields {
			values.Set(k, v)
		}
	} else {
		parsed, err := url.ParseQuery(string(bytes.TrimSpace(r.body)))
		if err != nil {
			return "", errors.Join(ErrDecodeFailed, fmt.Errorf("parse token response: %w", err))
		}
		values = parsed
	}

	if code := values.Get("error"); code != "" {
		return "", errors.Join(ErrProviderError, fmt.Errorf("%s: %s", code, values.Get("error_description")))
	}
	return values.Get("access_token"), nil
}

// decodeFlat decodes a JSON object into a Profile. Strings are copied as is,
// numbers keep their literal form and booleans become "true"/"false".
// Empty strings, nulls, arrays and nested objects are dropped.
func decodeFlat(body []byte) (Profile, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Join(ErrDecodeFailed, fmt.Errorf("decode json object: %w", err))
	}

	p := make(Profile, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			p.setIfNotEmpty(k, val)
		case json.Number:
			p[k] = val.String()
		case bool:
			p[k] = strconv.FormatBool(val)
		}
	}
	return p, nil
}

// parseEndpoint parses raw, falling back to def when raw is empty.
// The result must be an absolute URL.
func parseEndpoint(raw, def string) (*url.URL, error) {
	if raw == "" {
		raw = def
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Join(ErrInvalidEndpoint, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, errors.Join(ErrInvalidEndpoint, fmt.Errorf("%q is not absolute", raw))
	}
	return u, nil
}
