package main

import (
	"github.com/rs/zerolog/log"

	"paycalc/internal/app/server"
)

func main() {
	if err := server.Run(); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
