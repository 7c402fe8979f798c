// internal/middleware/logging.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/storelink/storelink-backend/internal/models"
)

// sensitiveFields never make it into the audit trail.
var sensitiveFields = []string{"password", "password_hash", "refresh_token"}

// RequestAuditMiddleware records every mutating request as an audit row and
// logs it. GET requests and health checks are skipped.
func RequestAuditMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		var userUUID, adminUUID *uuid.UUID
		if uid, ok := c.Get("user_id"); ok {
			if s, ok := uid.(string); ok {
				if parsed, err := uuid.Parse(s); err == nil {
					if role, _ := c.Get("user_role"); role == string(models.UserRoleAdmin) {
						adminUUID = &parsed
					} else {
						userUUID = &parsed
					}
				}
			}
		}

		var requestData map[string]interface{}
		if len(requestBody) > 0 {
			if err := json.Unmarshal(requestBody, &requestData); err == nil {
				for _, field := range sensitiveFields {
					delete(requestData, field)
				}
			}
		}

		auditLog := &models.AuditLog{
			ActionType: c.Request.Method + " " + c.Request.URL.Path,
			EntityType: extractEntityType(c.Request.URL.Path),
			UserID:     userUUID,
			AdminID:    adminUUID,
			Metadata:   models.JSONB(requestData),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
		}
		if entityID := extractEntityID(c.Request.URL.Path); entityID != "" {
			if parsed, err := uuid.Parse(entityID); err == nil {
				auditLog.EntityID = &parsed
			}
		}

		go func() {
			if err := db.Create(auditLog).Error; err != nil {
				logrus.WithError(err).Error("Failed to create request audit log")
			}
		}()

		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": duration.Milliseconds(),
			"ip":       c.ClientIP(),
		}).Info("Request processed")
	}
}

func extractEntityType(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "v1" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return "unknown"
}

func extractEntityID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for _, part := range parts {
		if _, err := uuid.Parse(part); err == nil {
			return part
		}
	}
	return ""
}

// RequestLogger silences gin's default logger; RequestAuditMiddleware and
// logrus carry the request logs.
func RequestLogger() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return ""
	})
}
