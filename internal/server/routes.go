package server

import (
	"net/http"

	"github.com/berfenger/sunspec2mqtt/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/status", s.StatusHandler)
	e.GET("/devices", s.DevicesHandler)

	return e
}

func (s *Server) health() (domain.ActorHealthResponse, bool) {
	res, err := s.ask(domain.ActorHealthRequest{}, HEALTHCHECK_TIMEOUT)
	if err != nil {
		return domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER}, false
	}
	response, ok := res.(domain.ActorHealthResponse)
	return response, ok && response.Healthy
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	if _, healthy := s.health(); healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

// StatusHandler reports the health of every checked actor.
func (s *Server) StatusHandler(c echo.Context) error {
	response, healthy := s.health()
	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, response)
	}
	return c.JSON(http.StatusOK, response)
}

// DevicesHandler returns the devices detected on the Modbus link.
func (s *Server) DevicesHandler(c echo.Context) error {
	res, err := s.ask(domain.GetDevicesInfoRequest{}, DEVICES_TIMEOUT)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	response, ok := res.(domain.GetDevicesInfoResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected response")
	}
	if response.HasResponseError() {
		return echo.NewHTTPError(http.StatusServiceUnavailable, response.GetResponseError().Error())
	}
	return c.JSON(http.StatusOK, response.Info)
}
