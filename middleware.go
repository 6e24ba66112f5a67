package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"biomed-search/models"
	"biomed-search/services"
)

const (
	sessionCookie = "biomed_session"
	csrfHeader    = "X-CSRF-Token"

	ctxSession    = "session"
	ctxUser       = "user"
	ctxAuthMethod = "auth_method"

	authBearer  = "bearer"
	authSession = "session"
)

func apiKeyAuthMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		apiKey := c.GetHeader("X-API-KEY")
		if apiKey != key {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

// sessionMiddleware lädt die Session aus dem Cookie. Unbekannte oder abgelaufene Sessions werden ignoriert.
func sessionMiddleware(sessions *services.SessionManager, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(sessionCookie)
		if err == nil && id != "" {
			s, err := sessions.Get(c.Request.Context(), id)
			if err != nil {
				log.Warn("Session lookup failed", zap.Error(err))
			} else if s != nil {
				c.Set(ctxSession, s)
			}
		}
		c.Next()
	}
}

// authMiddleware ermittelt den aktuellen User aus Bearer-Token oder Session. Ein unbekannter Bearer-Token
// wird sofort abgelehnt. Eine veraltete Session lässt die Anfrage nur anonym.
func authMiddleware(auth authenticator, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if header := c.GetHeader("Authorization"); header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				unauthorized(c, "Invalid authorization header")
				return
			}
			user, err := auth.UserByToken(ctx, strings.TrimSpace(token))
			if err != nil {
				if !errors.Is(err, services.ErrUnauthenticated) {
					log.Error("Token lookup failed", zap.Error(err))
				}
				unauthorized(c, "Invalid or inactive token")
				return
			}
			c.Set(ctxUser, user)
			c.Set(ctxAuthMethod, authBearer)
			c.Next()
			return
		}

		if s := currentSession(c); s.Authenticated() {
			user, err := auth.UserByID(ctx, s.UserID)
			switch {
			case err == nil:
				c.Set(ctxUser, user)
				c.Set(ctxAuthMethod, authSession)
			case errors.Is(err, services.ErrUnauthenticated):
				log.Info("Session user is gone or inactive", zap.Uint("user_id", s.UserID))
			default:
				log.Error("Session user lookup failed", zap.Error(err))
			}
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// requireUser lehnt anonyme Anfragen ab.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			unauthorized(c, "Authentication required")
			return
		}
		c.Next()
	}
}

// csrfMiddleware prüft den X-CSRF-Token-Header bei schreibenden Anfragen, die über das Session-Cookie
// angemeldet sind. Anfragen mit Bearer-Token sind ausgenommen.
func csrfMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if c.GetString(ctxAuthMethod) != authSession {
			c.Next()
			return
		}
		if !services.ValidCSRF(currentSession(c), c.GetHeader(csrfHeader)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "CSRF token missing or invalid"})
			return
		}
		c.Next()
	}
}

// rateLimitMiddleware begrenzt Anfragen mit einem Token-Bucket pro Client-IP.
func rateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	const maxTracked = 10000
	var (
		mu       sync.Mutex
		limiters = map[string]*rate.Limiter{}
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		l, ok := limiters[ip]
		if !ok {
			if len(limiters) >= maxTracked {
				limiters = map[string]*rate.Limiter{}
			}
			l = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[ip] = l
		}
		mu.Unlock()

		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func currentSession(c *gin.Context) *services.Session {
	if v, ok := c.Get(ctxSession); ok {
		if s, ok := v.(*services.Session); ok {
			return s
		}
	}
	return nil
}

func currentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

func userContext(c *gin.Context) services.UserContext {
	u := currentUser(c)
	if u == nil {
		return services.UserContext{}
	}
	return services.UserContext{UserID: u.ID, IsAdmin: u.IsAdmin()}
}

// parseID liest einen positiven numerischen Pfadparameter und antwortet sonst mit 400.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// respondError übersetzt Service-Fehler in Statuscodes. Unerwartete Fehler werden geloggt und nicht herausgegeben.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrUnauthenticated), errors.Is(err, services.ErrEmailNotVerified):
		unauthorized(c, err.Error())
	case errors.Is(err, services.ErrExportUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
