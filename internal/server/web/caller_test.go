package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyCaller(t *testing.T) {
	cases := []struct {
		name    string
		headers map[string]string
		want    CallerKind
	}{
		{"browser form", map[string]string{"Content-Type": "application/x-www-form-urlencoded"}, Interactive},
		{"no headers", nil, Interactive},
		{"postman", map[string]string{"Postman-Token": "abc"}, Programmatic},
		{"xhr", map[string]string{"X-Requested-With": "XMLHttpRequest"}, Programmatic},
		{"xhr lowercase", map[string]string{"X-Requested-With": "xmlhttprequest"}, Programmatic},
		{"json", map[string]string{"Content-Type": "application/json"}, Programmatic},
		{"json charset", map[string]string{"Content-Type": "application/json; charset=utf-8"}, Programmatic},
		{"json suffix", map[string]string{"Content-Type": "application/problem+json"}, Programmatic},
		{"accept json only", map[string]string{"Accept": "application/json"}, Interactive},
		{"garbage content type", map[string]string{"Content-Type": ";;;"}, Interactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/register", nil)
			for k, v := range tc.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tc.want, ClassifyCaller(r))
		})
	}
}

func TestCallerKind_String(t *testing.T) {
	assert.Equal(t, "interactive", Interactive.String())
	assert.Equal(t, "programmatic", Programmatic.String())
}
