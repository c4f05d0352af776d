package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// HeartbeatMonitor probes every registered connection on a fixed
// interval and reaps the ones that stopped responding. A connection that
// never answers a ping is gone within two intervals: the first tick
// clears its flag and pings, the second finds the flag still cleared.
type HeartbeatMonitor struct {
	hub      *Hub
	interval time.Duration
}

func NewHeartbeatMonitor(hub *Hub, interval time.Duration) *HeartbeatMonitor {
	return &HeartbeatMonitor{hub: hub, interval: interval}
}

func (m *HeartbeatMonitor) Run(ctx context.Context) {
	log.Info().Str("module", "app.heartbeat").Dur("interval", m.interval).Msg("heartbeat monitor started")
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.heartbeat").Msg("heartbeat monitor stopped")
			return
		case <-ticker.C:
			m.tick(ctx)
		}
	}
}

// tick reaps first, then probes the survivors. A failed ping write means
// the transport is already half-open, so it goes down the same path.
func (m *HeartbeatMonitor) tick(ctx context.Context) {
	dead, probe := m.hub.Registry.SweepDead()

	for _, c := range dead {
		log.Warn().Str("module", "app.heartbeat").Str("conn", string(c.ID)).Str("user", c.Username).Msg("found a dead connection, terminating")
		m.hub.Teardown(ctx, c)
	}

	for _, c := range probe {
		if err := c.Transport().Ping(); err != nil {
			log.Warn().Err(err).Str("module", "app.heartbeat").Str("conn", string(c.ID)).Msg("ping failed, terminating")
			m.hub.Teardown(ctx, c)
		}
	}
}
