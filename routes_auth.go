package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"biomed-search/services"
)

// safeNext lässt als Ziel nach dem Login nur relative Pfade derselben Seite zu.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n") {
		return "/"
	}
	return next
}

func setSessionCookie(c *gin.Context, app *application, s *services.Session) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, s.ID, int(app.sessions.TTL().Seconds()), "/", "", app.cfg.SessionCookieSecure, true)
}

func clearSessionCookie(c *gin.Context, app *application) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, "", -1, "/", "", app.cfg.SessionCookieSecure, true)
}

// ensureSession liefert die Session der Anfrage und legt bei Bedarf eine neue an.
func ensureSession(c *gin.Context, app *application) (*services.Session, error) {
	if s := currentSession(c); s != nil {
		return s, nil
	}
	s, err := app.sessions.New(c.Request.Context())
	if err != nil {
		return nil, err
	}
	setSessionCookie(c, app, s)
	c.Set(ctxSession, s)
	return s, nil
}

func setupAuthRoutes(router *gin.Engine, api *gin.RouterGroup, app *application) {
	log := app.log

	router.GET("/auth/login", func(c *gin.Context) {
		if !app.auth.Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login is not configured"})
			return
		}
		s, err := ensureSession(c, app)
		if err != nil {
			respondError(c, log, err)
			return
		}
		state, err := services.RandomToken(16)
		if err != nil {
			respondError(c, log, err)
			return
		}
		s.OAuthState = state
		s.Next = safeNext(c.Query("next"))
		if err := app.sessions.Save(c.Request.Context(), s); err != nil {
			respondError(c, log, err)
			return
		}
		target, err := app.auth.AuthCodeURL(c.Request.Context(), state)
		if err != nil {
			log.Error("Identity provider discovery failed", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "identity provider unavailable"})
			return
		}
		c.Redirect(http.StatusFound, target)
	})

	router.GET("/auth/callback", func(c *gin.Context) {
		s := currentSession(c)
		state := c.Query("state")
		if s == nil || s.OAuthState == "" || state != s.OAuthState {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid OAuth state"})
			return
		}
		if e := c.Query("error"); e != "" {
			log.Warn("Identity provider returned an error", zap.String("error", e))
			c.JSON(http.StatusBadRequest, gin.H{"error": "login was cancelled or denied"})
			return
		}
		code := c.Query("code")
		if code == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code"})
			return
		}

		user, err := app.auth.Login(c.Request.Context(), code)
		if err != nil {
			respondError(c, log, err)
			return
		}

		next := safeNext(s.Next)
		s.UserID = user.ID
		s.OAuthState = ""
		s.Next = ""
		rotated, err := app.sessions.Rotate(c.Request.Context(), s)
		if err != nil {
			respondError(c, log, err)
			return
		}
		setSessionCookie(c, app, rotated)
		c.Redirect(http.StatusFound, next)
	})

	router.GET("/auth/logout", func(c *gin.Context) {
		if s := currentSession(c); s != nil {
			if err := app.sessions.Destroy(c.Request.Context(), s.ID); err != nil {
				log.Warn("Failed to destroy session", zap.Error(err))
			}
		}
		clearSessionCookie(c, app)
		c.Redirect(http.StatusFound, "/")
	})

	router.GET("/auth/get-token", requireUser(), func(c *gin.Context) {
		token, err := app.auth.EnsureAPIToken(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token})
	})

	api.GET("/auth/csrf-token", func(c *gin.Context) {
		s, err := ensureSession(c, app)
		if err != nil {
			respondError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"csrf_token": s.CSRFToken})
	})

	api.GET("/auth/me", requireUser(), func(c *gin.Context) {
		u := currentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "username": u.Username, "email": u.Email, "role": u.Role})
	})
}
