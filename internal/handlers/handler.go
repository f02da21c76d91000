package handlers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/database"
	"taskmanager/internal/middleware"
	"taskmanager/internal/monitoring"
	"taskmanager/internal/utils"
	"taskmanager/internal/web"
)

const genericErrorMessage = "Something went wrong. Please try again."

// Handler holds the dependencies shared by every route.
type Handler struct {
	store            *database.Store
	signer           *utils.SessionSigner
	monitor          *monitoring.Service
	monitoringAPIKey string
}

// Options configures optional Handler dependencies.
type Options struct {
	Monitor          *monitoring.Service
	MonitoringAPIKey string
}

func New(store *database.Store, signer *utils.SessionSigner, opts Options) *Handler {
	monitor := opts.Monitor
	if monitor == nil {
		monitor = monitoring.NewService(time.Now(), store)
	}
	return &Handler{
		store:            store,
		signer:           signer,
		monitor:          monitor,
		monitoringAPIKey: opts.MonitoringAPIKey,
	}
}

// render fills in the layout values every page needs and writes the page.
func (h *Handler) render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["User"] = middleware.CurrentUser(c)
	data["Flashes"] = web.PopFlashes(c)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = []string(nil)
	}
	c.HTML(status, page, data)
}

func (h *Handler) renderError(c *gin.Context, status int, heading string, message string) {
	h.render(c, status, "error.html", gin.H{
		"Heading": heading,
		"Message": message,
	})
}

func (h *Handler) renderNotFound(c *gin.Context, message string) {
	h.renderError(c, http.StatusNotFound, "Not Found", message)
}

func (h *Handler) renderServerError(c *gin.Context, action string, err error) {
	log.Printf("request_id=%s %s: %v", middleware.RequestIDFromContext(c), action, err)
	h.renderError(c, http.StatusInternalServerError, "Error", genericErrorMessage)
}

// redirectWithFlash answers a successful form post.
func redirectWithFlash(c *gin.Context, location string, category string, message string) {
	web.AddFlash(c, category, message)
	c.Redirect(http.StatusSeeOther, location)
}

// NotFound renders unknown paths with the shared error page.
func (h *Handler) NotFound(c *gin.Context) {
	h.renderNotFound(c, "Page not found.")
}

func parseTaskID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
