package singleinstance

import (
	"log"

	"github.com/caarlos0/env/v6"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49650
)

type portEnv struct {
	Start int `env:"SINGLEINSTANCE_PORT_START"`
	End   int `env:"SINGLEINSTANCE_PORT_END"`
}

// getPortRange returns the configured TCP port range. Environment variables:
// SINGLEINSTANCE_PORT_START and SINGLEINSTANCE_PORT_END (integers, inclusive).
// Falls back to defaults when unset/invalid, and clamps to [1024, 65535].
func getPortRange() (int, int) {
	start := defaultPortStart
	end := defaultPortEnd
	var pe portEnv
	if err := env.Parse(&pe); err != nil {
		log.Printf("singleinstance: ignoring port range from environment: %v", err)
	} else {
		if pe.Start != 0 {
			start = pe.Start
		}
		if pe.End != 0 {
			end = pe.End
		}
	}
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

// GetPortRangeForDebug exposes the current effective port range for logging/debugging.
func GetPortRangeForDebug() (int, int) { return getPortRange() }
