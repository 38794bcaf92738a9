package api

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"gc-distance/gc"
	"gc-distance/internal/config"
)

// RegisterRoutes registers the JSON API, the health check and the
// session-protected Excel UI.
func RegisterRoutes(router *gin.Engine, cfg *config.Config, runner *Runner, defaults gc.Options) {
	store := cookie.NewStore([]byte(cfg.AuthConfig.SessionSecret))
	store.Options(sessions.Options{Path: "/", MaxAge: 12 * 3600, HttpOnly: true})
	router.Use(sessions.Sessions(sessionName, store))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "up"})
	})

	v1 := router.Group("/api")
	{
		v1.POST("/great-circle", GreatCircleHandler(defaults))
		v1.POST("/great-distance", GreatDistanceHandler(defaults))
	}

	router.GET("/login", loginPage())
	router.POST("/login", login(cfg.AuthConfig))
	router.GET("/logout", logout())

	authorized := router.Group("/")
	authorized.Use(authRequired(cfg.AuthConfig))
	{
		authorized.GET("/", func(c *gin.Context) {
			c.HTML(http.StatusOK, "index.html", gin.H{})
		})
		authorized.POST("/run", runner.run())
		authorized.GET("/logs", runner.logs())
		authorized.GET("/status", runner.status())
		authorized.POST("/cancel", runner.cancel())
		authorized.GET("/download-result/:filename", runner.download())
	}
}
