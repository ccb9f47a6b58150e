package oidc

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseAuthorizationResponse recovers the authorization code from the raw
// query string of the provider's redirect back to the callback endpoint.
//
// The query string is decoded exactly: pairs are split on "&", a pair lacking
// "=" (or with an empty key) is ignored, keys and values are percent-decoded
// individually, and when a key appears multiple times all values are retained
// in order but only the first is consulted.
//
// When the response carries the standard error shape ("error" plus optional
// "error_description") an *AuthenticationError is returned instead of a code.
// Any decoding failure, and a response with neither code nor error, fails
// with ErrCallbackParse.
func ParseAuthorizationResponse(rawQuery string) (string, error) {
	const op = "oidc.ParseAuthorizationResponse"
	params, err := parseQuery(rawQuery)
	if err != nil {
		return "", fmt.Errorf("%s: %v: %w", op, err, ErrCallbackParse)
	}

	if errCode := first(params, "error"); errCode != "" {
		return "", &AuthenticationError{
			Code:        errCode,
			Description: first(params, "error_description"),
		}
	}

	code := first(params, "code")
	if code == "" {
		return "", fmt.Errorf("%s: no authorization code in callback request: %w", op, ErrCallbackParse)
	}
	return code, nil
}

// parseQuery decodes a raw query string into key/value-list pairs. Unlike
// url.ParseQuery it ignores pairs without "=" and keeps decoding exact: any
// percent-decoding failure aborts the parse.
func parseQuery(rawQuery string) (map[string][]string, error) {
	params := map[string][]string{}
	if rawQuery == "" {
		return params, nil
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		key, err := url.QueryUnescape(pair[:idx])
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(pair[idx+1:])
		if err != nil {
			return nil, err
		}
		params[key] = append(params[key], value)
	}
	return params, nil
}

func first(params map[string][]string, key string) string {
	if values := params[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}
