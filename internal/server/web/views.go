package web

import (
	"net/http"

	"github.com/a-h/templ"
)

//go:generate templ generate -f views.templ

type viewName string

const (
	viewHome     viewName = "home"
	viewRegister viewName = "register"
	viewLogin    viewName = "login"
)

type pageData struct {
	Error    string
	SignedIn bool
}

func renderView(w http.ResponseWriter, r *http.Request, status int, name viewName, data pageData) {
	templ.Handler(page(name, data), templ.WithStatus(status)).ServeHTTP(w, r)
}

func page(name viewName, data pageData) templ.Component {
	switch name {
	case viewRegister:
		return registerPage(data)
	case viewLogin:
		return loginPage(data)
	default:
		return homePage(data)
	}
}
