// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"bmauth/config"
	"bmauth/internal/delivery/http/router/handler"
	"bmauth/internal/delivery/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	UserHandler    *handler.UserHandler
	MetricsHandler *handler.MetricsHandler
	RequestCounter *middleware.RequestCounter
	Config         *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	userHandler    *handler.UserHandler
	metricsHandler *handler.MetricsHandler
	requestCounter *middleware.RequestCounter
	basePath       string
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		userHandler:    params.UserHandler,
		metricsHandler: params.MetricsHandler,
		requestCounter: params.RequestCounter,
		basePath:       params.Config.HTTP.BasePath,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", handler.HealthCheck)

	// Scrapes are not counted as requests.
	e.GET(r.basePath+"/login_metrics", r.metricsHandler.Expose)

	authGroup := e.Group(r.basePath, r.requestCounter.Count)
	{
		authGroup.POST("/registro", r.userHandler.RegisterUser)
		authGroup.GET("/users", r.userHandler.ListUsers)
		authGroup.POST("/create-user", r.userHandler.CreateUser)
		authGroup.POST("/login", r.userHandler.Login)
	}
}
