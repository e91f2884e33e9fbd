/*
 * Copyright 2024-2025 Raamsri Kumar <raam@tinkershack.in>
 * Copyright 2024-2025 The StrataSTOR Authors and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     https://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stratastor/ethman/pkg/errors"
	"github.com/stratastor/logger"
)

// LoggerMiddleware logs every request to the control API with a
// correlation id. Health probes are skipped; the daemon serves a
// single local client, so the attribute set stays small.
func LoggerMiddleware(l logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}

		start := time.Now()

		requestID := c.GetHeader("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
			c.Header("X-Request-Id", requestID)
		}
		c.Set("request_id", requestID)

		c.Next()

		fields := []interface{}{
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"client", c.ClientIP(),
		}

		for _, ginErr := range c.Errors {
			if ee, ok := ginErr.Err.(*errors.EthmanError); ok {
				fields = append(fields,
					"error_code", int(ee.Code),
					"error_message", ee.Message)
				if ee.Details != "" {
					fields = append(fields, "error_details", ee.Details)
				}
			} else {
				fields = append(fields, "error", ginErr.Error())
			}
		}

		switch {
		case c.Writer.Status() >= 500:
			l.Error("Request failed", fields...)
		case c.Writer.Status() >= 400:
			l.Warn("Request rejected", fields...)
		default:
			l.Info("Request", fields...)
		}
	}
}
