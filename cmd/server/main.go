package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/callcenter-console/backend/cmd"
)

// @title Call-center Agent Console API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
