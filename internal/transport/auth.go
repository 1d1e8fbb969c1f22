package transport

import (
	"net/http"
	"strings"
)

// Authenticator attaches a credential to an outgoing sheet request.
type Authenticator interface {
	Apply(req *http.Request, token string)
}

// NoAuth leaves requests untouched. Public sheets need nothing else.
type NoAuth struct{}

// Apply does nothing.
func (*NoAuth) Apply(*http.Request, string) {}

// BearerAuth sends the token as an OAuth bearer credential.
type BearerAuth struct{}

// Apply sets the Authorization header.
func (*BearerAuth) Apply(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// HeaderAuth sends the token verbatim in a named header, e.g. x-goog-api-key.
type HeaderAuth struct {
	Header string
}

// Apply sets the configured header.
func (h *HeaderAuth) Apply(req *http.Request, token string) {
	req.Header.Set(h.Header, token)
}

// QueryAuth appends the token as a query parameter, keeping existing ones.
type QueryAuth struct {
	Param string
}

// Apply rewrites the request URL. Requests without a URL are skipped.
func (q *QueryAuth) Apply(req *http.Request, token string) {
	if req.URL == nil {
		return
	}
	values := req.URL.Query()
	values.Set(q.Param, token)
	req.URL.RawQuery = values.Encode()
}

// ParseAuth turns a sheet_auth setting into an Authenticator:
//
//	"" or "none"     no credential
//	"bearer"         Authorization: Bearer <token>
//	"header:<name>"  <name>: <token>
//	"query:<param>"  ?<param>=<token>
//
// ok reports whether scheme was recognized.
func ParseAuth(scheme string) (Authenticator, bool) {
	kind, arg, hasArg := strings.Cut(strings.TrimSpace(scheme), ":")
	kind = strings.ToLower(kind)

	switch {
	case kind == "" || kind == "none":
		return &NoAuth{}, true
	case kind == "bearer":
		return &BearerAuth{}, true
	case !hasArg || arg == "":
		return nil, false
	case kind == "header":
		return &HeaderAuth{Header: arg}, true
	case kind == "query":
		return &QueryAuth{Param: arg}, true
	}
	return nil, false
}
