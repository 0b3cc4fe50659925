// Package app wires one chat session: transport, registry, presence
// machine, dispatcher, notification bus and the optional broker bridge.
package app

import (
	"context"
	"fmt"

	"parley/internal/sweeper"
	"parley/pkg/config"
	"parley/pkg/conversation"
	"parley/pkg/dispatch"
	"parley/pkg/logger"
	"parley/pkg/models"
	"parley/pkg/notify"
	"parley/pkg/notify/bridge"
	"parley/pkg/presence"
	"parley/pkg/privacy"
	"parley/pkg/store"
	"parley/pkg/telemetry"
	"parley/pkg/transport"
	"parley/pkg/transport/ws"
)

// App is a fully wired chat session.
type App struct {
	Cfg        *config.Config
	Registry   *conversation.Registry
	Bus        *notify.Bus
	Privacy    *privacy.List
	Machine    *presence.Machine
	Dispatcher *dispatch.Dispatcher
	Transport  transport.Transport

	br     *bridge.Bridge
	sweep  context.CancelFunc
	wsConn *ws.Conn
}

// Build constructs the session. The store must already be open when a DB
// path is configured.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	self := models.Identity{
		Address:     cfg.Chat.Self,
		DisplayName: cfg.Chat.Nick,
		Role:        models.RoleParticipant,
	}

	reg := conversation.NewRegistry(cfg.Chat.HistoryLimit)
	bus := notify.NewBus(0)
	priv := privacy.New(self.Address)
	machine := presence.NewMachine(reg, bus)

	var tr transport.Transport
	var wsConn *ws.Conn
	if cfg.Transport.URL != "" {
		c, err := ws.Dial(ctx, cfg.Transport.URL)
		if err != nil {
			return nil, fmt.Errorf("dial transport: %w", err)
		}
		wsConn = c
		tr = c
	} else {
		tr = transport.NewMemory()
	}

	var persist dispatch.Persistence
	if store.Ready() {
		persist = store.Threads{}
	}

	d := dispatch.New(tr, reg, machine, bus, priv, dispatch.Options{
		Self:      self,
		Nick:      cfg.Chat.Nick,
		RateRPS:   cfg.Chat.RateLimit.RPS,
		RateBurst: cfg.Chat.RateLimit.Burst,
		Persist:   persist,
	})
	if wsConn != nil {
		wsConn.OnStateChange = d.SetConnState
	}

	app := &App{
		Cfg:        cfg,
		Registry:   reg,
		Bus:        bus,
		Privacy:    priv,
		Machine:    machine,
		Dispatcher: d,
		Transport:  tr,
		wsConn:     wsConn,
	}

	telemetry.RegisterOpenConversations(func() float64 { return float64(reg.Len()) })

	if cfg.Broker.URL != "" {
		exchange := cfg.Broker.Exchange
		if exchange == "" {
			exchange = "parley.events"
		}
		br, err := bridge.New(cfg.Broker.URL, exchange)
		if err != nil {
			return nil, fmt.Errorf("connect broker: %w", err)
		}
		br.Attach(bus)
		app.br = br
		logger.Info("broker_bridge_attached", "exchange", exchange)
	}

	if cfg.Sweeper.Enabled {
		cancel, err := sweeper.Start(ctx, reg, cfg.Sweeper.Cron)
		if err != nil {
			return nil, err
		}
		app.sweep = cancel
	}
	return app, nil
}

// Shutdown stops background work and closes external handles. The bus is
// closed last so in-flight notifications drain first.
func (a *App) Shutdown() {
	if a.sweep != nil {
		a.sweep()
	}
	if a.wsConn != nil {
		_ = a.wsConn.Close()
	}
	if a.br != nil {
		_ = a.br.Close()
	}
	a.Bus.Close()
}
