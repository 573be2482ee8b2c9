package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewPages(t *testing.T) {
	cases := []struct {
		name viewName
		data pageData
		want []string
		not  []string
	}{
		{viewRegister, pageData{Error: "User already exists"},
			[]string{"<title>AuthKeeper - register</title>", `action="/register"`, `role="alert">User already exists</p>`}, nil},
		{viewLogin, pageData{},
			[]string{"<title>AuthKeeper - login</title>", `action="/login"`}, []string{`role="alert"`}},
		{viewHome, pageData{SignedIn: true},
			[]string{"You are signed in.", `action="/logout"`, `action="/delete"`}, []string{`href="/register"`}},
		{viewHome, pageData{},
			[]string{`href="/login"`, `href="/register"`}, []string{"Sign out"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.name), func(t *testing.T) {
			rec := httptest.NewRecorder()
			renderView(rec, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, tc.name, tc.data)

			body := rec.Body.String()
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
			for _, s := range tc.want {
				assert.Contains(t, body, s)
			}
			for _, s := range tc.not {
				assert.NotContains(t, body, s)
			}
		})
	}
}
