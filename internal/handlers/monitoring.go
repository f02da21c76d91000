package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const monitoringKeyHeader = "X-Monitoring-Key"

func (h *Handler) requireMonitoringKey(c *gin.Context) {
	expected := strings.TrimSpace(h.monitoringAPIKey)
	if expected == "" {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Monitoring API is disabled"})
		return
	}

	provided := strings.TrimSpace(c.GetHeader(monitoringKeyHeader))
	if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid monitoring key"})
		return
	}
	c.Next()
}

func (h *Handler) MonitorStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"text": h.monitor.StatusText(c.Request.Context())})
}

func (h *Handler) MonitorStorage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"text": h.monitor.StorageText(c.Request.Context())})
}

func (h *Handler) MonitorConnections(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"text": h.monitor.ConnectionsText()})
}

func (h *Handler) MonitorRuntime(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"text": h.monitor.RuntimeText()})
}

func (h *Handler) MonitorUsers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"text": h.monitor.UsersText(c.Request.Context())})
}

func (h *Handler) MonitorAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"text": h.monitor.AllText(c.Request.Context())})
}

func (h *Handler) MonitorSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Snapshot(c.Request.Context()))
}
