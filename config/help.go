package config

import (
	"flag"
	"fmt"
)

const HelpMessage = `
triplog - live trip tracking with distance reconciliation

Usage:
  triplog -mode=<mode> [-config-path=config.yaml]

Modes:
  tracker    serve the tracking API (HTTP + websocket) and own trip sessions
  resubmit   push trips retained in the pending store to the database and exit

Flags:
  -mode          application mode
  -config-path   path to the config yaml file (default config.yaml)
  -help          show this message

Every yaml key maps to an environment variable: nested keys are joined with
underscores and upper-cased (tracking.cooldown -> TRACKING_COOLDOWN).
Variables already present in the environment override the file.

Main variables:
  TRACKING_SOURCE             websocket | rabbitmq | mqtt (default websocket)
  TRACKING_DISTANCE_PROVIDER  openroute | gmaps | none (default openroute)
  GEOCODE_ORDER               comma separated provider order
  DATABASE_*                  postgres connection
  REDIS_ADDR                  enables the geocode cache
  RABBITMQ_HOST               enables trip.completed events
  STORAGE_PENDING_PATH        bbolt file for unsaved trips
  AUTH_JWT_SECRET             HS256 secret of access tokens (required)
`

func PrintHelp() {
	if HelpMessage != "" {
		fmt.Printf("%s", HelpMessage)
	} else {
		flag.Usage()
	}
}
