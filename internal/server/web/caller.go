package web

import (
	"mime"
	"net/http"
	"strings"
)

// CallerKind tells apart API clients, which get JSON, from browsers, which
// get redirects and rendered pages.
type CallerKind int

const (
	Interactive CallerKind = iota
	Programmatic
)

func (k CallerKind) String() string {
	if k == Programmatic {
		return "programmatic"
	}
	return "interactive"
}

// ClassifyCaller looks for an explicit API marker on the request: a
// Postman-Token header, X-Requested-With: XMLHttpRequest, or a JSON body.
// Accept headers are not consulted.
func ClassifyCaller(r *http.Request) CallerKind {
	if r.Header.Get("Postman-Token") != "" {
		return Programmatic
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return Programmatic
	}
	if isJSON(r.Header.Get("Content-Type")) {
		return Programmatic
	}
	return Interactive
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
