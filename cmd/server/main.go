package main

import (
	"github.com/checkmate-live/checkmate/internal/app/server"
	"github.com/checkmate-live/checkmate/pkg/logging"
	"go.uber.org/zap"
)

func main() {
	logging.Fatal("Game server exited: ", zap.Error(
		server.NewServer().Start(),
	))
}
