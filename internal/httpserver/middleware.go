package httpserver

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sprouting-academy/internal/auth"
)

const (
	headerCartKey = "X-Cart-Key"
	sessionCtxKey = "session"
)

type cartKeyValidator interface {
	Validate(raw string) (string, error)
}

// sessionMiddleware resolves the bearer token and guest cart key of a request.
func sessionMiddleware(keys cartKeyValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := keys.Validate(c.GetHeader(headerCartKey))
		if err != nil {
			writeError(c, err)
			return
		}
		token := auth.TokenFromHeader(c.GetHeader("Authorization"))
		c.Set(sessionCtxKey, auth.NewSession(token, key))
		c.Next()
	}
}

func sessionFrom(c *gin.Context) auth.Session {
	if v, ok := c.Get(sessionCtxKey); ok {
		if sess, ok := v.(auth.Session); ok {
			return sess
		}
	}
	return auth.Session{}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request", fields...)
		case c.Writer.Status() >= 400:
			logger.Info("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}
