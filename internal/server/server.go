package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/sunspec2mqtt/internal/config"

	"github.com/asynkron/protoactor-go/actor"
	_ "github.com/joho/godotenv/autoload"
)

const (
	HEALTHCHECK_TIMEOUT = 10 * time.Second
	DEVICES_TIMEOUT     = 5 * time.Second
)

type Server struct {
	port        uint
	httpLog     bool
	rootContext *actor.RootContext
	masterActor *actor.PID
}

func NewServer(cfg config.Config, rootContext *actor.RootContext, masterActor *actor.PID) *http.Server {
	s := &Server{
		port:        cfg.Port,
		httpLog:     cfg.HttpLog,
		rootContext: rootContext,
		masterActor: masterActor,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// ask sends msg to the master actor and waits for the reply.
func (s *Server) ask(msg any, timeout time.Duration) (any, error) {
	return s.rootContext.RequestFuture(s.masterActor, msg, timeout).Result()
}
