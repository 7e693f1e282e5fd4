package bbbservice

import (
	"crypto/sha1"
	"encoding/hex"
	"net/url"
	"strings"
)

// Param is a single query parameter of a BBB API call.
type Param struct {
	Key   string
	Value string
}

// Params keeps query parameters in insertion order. BBB validates the
// checksum over the exact query string it receives, so the order in which
// parameters are added is the order in which they are signed and sent.
type Params []Param

func (p Params) Add(key, value string) Params {
	return append(p, Param{Key: key, Value: value})
}

// Get returns the first value stored under key.
func (p Params) Get(key string) string {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Encode serializes the parameters using form encoding (RFC 1866): spaces
// become '+' and ! ' ( ) * are escaped.
func (p Params) Encode() string {
	parts := make([]string, 0, len(p))
	for _, kv := range p {
		parts = append(parts, url.QueryEscape(kv.Key)+"="+url.QueryEscape(kv.Value))
	}
	return strings.Join(parts, "&")
}

// Checksum is the hex encoded SHA-1 of action + query + secret.
func Checksum(action, query, secret string) string {
	sum := sha1.Sum([]byte(action + query + secret))
	return hex.EncodeToString(sum[:])
}

// SignedURL builds endpoint/api/<action>?<query>&checksum=<checksum>.
// endpoint must already be normalized.
func SignedURL(endpoint, action, secret string, params Params) string {
	query := params.Encode()
	checksum := Checksum(action, query, secret)

	if query == "" {
		return endpoint + "api/" + action + "?checksum=" + checksum
	}
	return endpoint + "api/" + action + "?" + query + "&checksum=" + checksum
}

// NormalizeEndpoint makes sure the endpoint ends with a single '/' and does
// not carry trailing api segments.
func NormalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	for {
		trimmed := strings.TrimSuffix(strings.TrimSuffix(endpoint, "/"), "/api")
		if trimmed == endpoint {
			break
		}
		endpoint = trimmed
	}
	return endpoint + "/"
}

// HashMeetingID derives the identifier sent to BBB from the internal id and
// the tenant secret. Internal ids are never sent to the conferencing server.
func HashMeetingID(id, secret string) string {
	sum := sha1.Sum([]byte(id + secret))
	return hex.EncodeToString(sum[:])
}
