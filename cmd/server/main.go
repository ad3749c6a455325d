package main

import (
	"github.com/cinegraph/backend/internal/server"
	"github.com/cinegraph/backend/internal/util"
	"github.com/cinegraph/backend/pkg/logger"
	"github.com/cinegraph/backend/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleBackend := console.NewBackend(console.NewBackendParams{
		Debug: debug,
	})
	logger.Init(consoleBackend)

	server.Init()
}
