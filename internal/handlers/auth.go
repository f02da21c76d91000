package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/database"
	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/web"
)

const (
	msgRegistered      = "Registration successful. Please log in."
	msgUsernameTaken   = "Username already taken."
	msgLoggedIn        = "Logged in successfully."
	msgInvalidLogin    = "Invalid username or password."
	msgLoggedOut       = "You have been logged out."
	msgInvalidFormBody = "Invalid form submission."
)

// RegisterPage shows the sign-up form.
func (h *Handler) RegisterPage(c *gin.Context) {
	if middleware.CurrentUser(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	h.render(c, http.StatusOK, "register.html", gin.H{"Username": ""})
}

// Register handles user registration
func (h *Handler) Register(c *gin.Context) {
	if middleware.CurrentUser(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	var form models.RegistrationForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderRegister(c, http.StatusBadRequest, form, []string{msgInvalidFormBody})
		return
	}
	form.Normalize()

	if errs := form.Validate(); len(errs) > 0 {
		h.renderRegister(c, http.StatusBadRequest, form, errs)
		return
	}

	user := models.User{Username: form.Username}
	if err := user.SetPassword(form.Password); err != nil {
		h.renderServerError(c, "hash password", err)
		return
	}

	if _, err := h.store.CreateUser(c.Request.Context(), user.Username, user.PasswordHash); err != nil {
		if errors.Is(err, database.ErrUsernameTaken) {
			h.renderRegister(c, http.StatusConflict, form, []string{msgUsernameTaken})
			return
		}
		h.renderServerError(c, "create user", err)
		return
	}

	redirectWithFlash(c, "/login", web.FlashSuccess, msgRegistered)
}

func (h *Handler) renderRegister(c *gin.Context, status int, form models.RegistrationForm, errs []string) {
	h.render(c, status, "register.html", gin.H{
		"Username": form.Username,
		"Errors":   errs,
	})
}

// LoginPage shows the sign-in form.
func (h *Handler) LoginPage(c *gin.Context) {
	if middleware.CurrentUser(c).Authenticated() {
		c.Redirect(http.StatusSeeOther, safeNext(c.Query("next")))
		return
	}
	h.render(c, http.StatusOK, "login.html", gin.H{
		"Username": "",
		"Next":     c.Query("next"),
	})
}

// Login handles user login
func (h *Handler) Login(c *gin.Context) {
	var form models.LoginForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderLogin(c, http.StatusBadRequest, form, []string{msgInvalidFormBody})
		return
	}

	user, err := h.store.GetUserByUsername(c.Request.Context(), form.Username)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		h.renderServerError(c, "load user for login", err)
		return
	}
	if err != nil || !user.CheckPassword(form.Password) {
		h.renderLogin(c, http.StatusUnauthorized, form, []string{msgInvalidLogin})
		return
	}

	if err := middleware.StartSession(c, h.signer, user); err != nil {
		h.renderServerError(c, "start session", err)
		return
	}

	redirectWithFlash(c, safeNext(nextTarget(c)), web.FlashSuccess, msgLoggedIn)
}

func (h *Handler) renderLogin(c *gin.Context, status int, form models.LoginForm, errs []string) {
	h.render(c, status, "login.html", gin.H{
		"Username": strings.TrimSpace(form.Username),
		"Next":     nextTarget(c),
		"Errors":   errs,
	})
}

// Logout ends the session; it is harmless for anonymous visitors.
func (h *Handler) Logout(c *gin.Context) {
	middleware.EndSession(c)
	redirectWithFlash(c, "/login", web.FlashInfo, msgLoggedOut)
}

func nextTarget(c *gin.Context) string {
	if next := c.PostForm("next"); next != "" {
		return next
	}
	return c.Query("next")
}

// safeNext only accepts same-site relative paths and falls back to the task list.
func safeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return "/"
	}
	return raw
}
