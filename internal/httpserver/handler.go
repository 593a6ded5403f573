package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Makepad-fr/tada/pkg/response"
)

func (srv *HTTPServer) mapHandlers() {
	srv.registerMiddlewares()
	srv.registerSystemRoutes()
	srv.registerDomainRoutes()

	srv.gin.NoRoute(func(c *gin.Context) {
		srv.l.Infof(c.Request.Context(), "No handler for %s %s", c.Request.URL, c.Request.Method)
		response.NotFound(c)
	})
}

func (srv *HTTPServer) registerMiddlewares() {
	srv.gin.Use(gin.Recovery())
	srv.gin.Use(srv.requestID())
	srv.gin.Use(srv.accessLog())
	if srv.limiter != nil {
		srv.gin.Use(srv.rateLimit())
	}
	srv.l.Infof(context.Background(), "Environment: %s", srv.environment)
}

func (srv *HTTPServer) registerSystemRoutes() {
	srv.gin.GET("/health", srv.healthCheck)
	srv.gin.GET("/ready", srv.readyCheck)
	srv.gin.GET("/live", srv.liveCheck)
	srv.gin.GET("/metrics", gin.WrapH(promhttp.HandlerFor(srv.registry, promhttp.HandlerOpts{})))
}

func (srv *HTTPServer) registerDomainRoutes() {
	api := srv.gin.Group("/api/todos")
	api.GET("", srv.listTodos)
	api.POST("/create", srv.createTodo)
	api.PATCH("/:id", srv.updateTodo)
	api.DELETE("/:id", srv.deleteTodo)
}

// Handler exposes the router, mainly for tests.
func (srv *HTTPServer) Handler() http.Handler { return srv.gin }
