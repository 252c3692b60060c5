package web

import (
	"context"
	"errors"
	"strings"

	"github.com/neoblog/neoblog/app/auth"
	"github.com/neoblog/neoblog/app/render"
	"github.com/neoblog/neoblog/app/request"
	"github.com/neoblog/neoblog/app/response"
	"github.com/neoblog/neoblog/app/session"
	"github.com/neoblog/neoblog/app/store"
)

func (h *Handlers) ShowRegister(ctx context.Context, req *request.Request) *response.Response {
	return h.renderRegister(h.auth.CurrentUser(req), "")
}

func (h *Handlers) Register(ctx context.Context, req *request.Request) *response.Response {
	current := h.auth.CurrentUser(req)
	form := req.FormData()
	username := strings.TrimSpace(form["username"])
	password := strings.TrimSpace(form["password"])
	confirm := strings.TrimSpace(form["confirm_password"])
	displayName := strings.TrimSpace(form["display_name"])
	email := strings.TrimSpace(form["email"])

	if username == "" || password == "" {
		return h.renderRegister(current, "Username and password are required.")
	}
	if len(username) < 3 {
		return h.renderRegister(current, "Username must be at least 3 characters.")
	}
	if password != confirm {
		return h.renderRegister(current, "Passwords do not match.")
	}
	if err := h.auth.Register(username, password, displayName, email); err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			return h.renderRegister(current, "That username is already taken.")
		}
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	return response.Redirect("/login")
}

func (h *Handlers) ShowLogin(ctx context.Context, req *request.Request) *response.Response {
	return h.renderLogin(h.auth.CurrentUser(req), "")
}

func (h *Handlers) Login(ctx context.Context, req *request.Request) *response.Response {
	current := h.auth.CurrentUser(req)
	form := req.FormData()
	username := strings.TrimSpace(form["username"])
	password := strings.TrimSpace(form["password"])
	if username == "" || password == "" {
		return h.renderLogin(current, "Please enter a username and password.")
	}

	token, _, err := h.auth.Login(username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return h.renderLogin(current, "Invalid username or password.")
		}
		return response.ServerError("Internal Server Error: " + err.Error())
	}
	resp := response.Redirect("/")
	resp.SetCookie(session.CookieName, token, "/", -1)
	return resp
}

func (h *Handlers) Logout(ctx context.Context, req *request.Request) *response.Response {
	if token := req.Cookie(session.CookieName); token != "" {
		h.auth.Logout(token)
	}
	resp := response.Redirect("/")
	resp.SetCookie(session.CookieName, "", "/", 0)
	return resp
}

func (h *Handlers) renderRegister(user *store.User, message string) *response.Response {
	ctx := render.Context{
		"page_title":       "Sign up",
		"page_description": "Create an account to write, subscribe and message.",
		"message_block":    alertBlock("warning", message),
	}
	return h.render.Render("register.html", mergeContext(ctx, h.layoutContext("", user)))
}

func (h *Handlers) renderLogin(user *store.User, message string) *response.Response {
	ctx := render.Context{
		"page_title":       "Log in",
		"page_description": "Welcome back.",
		"message_block":    alertBlock("danger", message),
	}
	return h.render.Render("login.html", mergeContext(ctx, h.layoutContext("", user)))
}
