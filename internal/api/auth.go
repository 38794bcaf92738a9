package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"gc-distance/internal/config"
	"gc-distance/internal/logger"
)

const (
	sessionName = "gcsession"
	sessionUser = "user"
)

// authRequired redirects to /login unless the session carries a user. When
// no password is configured every request passes.
func authRequired(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.Next()
			return
		}
		if sessions.Default(c).Get(sessionUser) == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

func loginPage() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, "login.html", gin.H{})
	}
}

func login(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.PostForm("username")
		password := c.PostForm("password")

		userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
		passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
		if !cfg.Enabled() || !userOK || !passOK {
			logger.Warn("login failed", "username", username, "client_ip", c.ClientIP())
			c.HTML(http.StatusUnauthorized, "login.html", gin.H{
				"Error": "Hatalı kullanıcı adı veya şifre",
			})
			return
		}

		session := sessions.Default(c)
		session.Set(sessionUser, username)
		if err := session.Save(); err != nil {
			logger.Error(err, "session save failed")
			c.HTML(http.StatusInternalServerError, "login.html", gin.H{"Error": "Oturum açılamadı"})
			return
		}
		c.Redirect(http.StatusFound, "/")
	}
}

func logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		session.Clear()
		_ = session.Save()
		c.Redirect(http.StatusFound, "/login")
	}
}
