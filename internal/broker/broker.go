// Package broker runs an optional in-process MQTT broker so the daemon can
// publish without external infrastructure.
package broker

import (
	"context"
	"fmt"
	"sync"

	mqttv2 "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/sirupsen/logrus"
)

// Start serves MQTT on addr until ctx is done. wg is released once the
// broker has closed.
func Start(ctx context.Context, wg *sync.WaitGroup, addr string) (*mqttv2.Server, error) {
	server := mqttv2.New(&mqttv2.Options{
		InlineClient: true,
	})

	// Allow all connections.
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("broker: add auth hook: %w", err)
	}

	tcp := listeners.NewTCP(listeners.Config{ID: "tcp", Address: addr})
	if err := server.AddListener(tcp); err != nil {
		return nil, fmt.Errorf("broker: listen on %s: %w", addr, err)
	}

	if err := server.Serve(); err != nil {
		server.Close()
		return nil, fmt.Errorf("broker: serve: %w", err)
	}
	logrus.Infof("embedded mqtt broker listening on %s", tcp.Address())

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := server.Close(); err != nil {
			logrus.WithError(err).Warn("broker: close")
		}
	}()
	return server, nil
}
