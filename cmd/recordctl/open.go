package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/tarantool/go-tarantool/v2"
	"github.com/tarantool/go-tarantool/v2/pool"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/driver/dummy"
	"github.com/tarantool/go-record/driver/etcd"
	pebbledrv "github.com/tarantool/go-record/driver/pebble"
	"github.com/tarantool/go-record/driver/sqlite"
	"github.com/tarantool/go-record/driver/tkv"
	"github.com/tarantool/go-record/internal/config"
)

func nopClose() error { return nil }

// openDriver connects the driver selected by cfg. The returned function
// releases it.
func openDriver(ctx context.Context, cfg config.Config, logger *slog.Logger) (driver.Driver, func() error, error) {
	logger = logger.With(slog.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverDummy:
		logger.WarnContext(ctx, "Using the in-memory driver, nothing is persisted")
		return dummy.New(), nopClose, nil
	case config.DriverPebble:
		drv, err := pebbledrv.Open(pebbledrv.Options{
			DataDir:       cfg.Pebble.DataDir,
			Sync:          cfg.Pebble.Sync,
			PebbleOptions: nil,
		})
		if err != nil {
			return nil, nil, err
		}

		logger.DebugContext(ctx, "Opened store", "dir", cfg.Pebble.DataDir)

		return drv, drv.Close, nil
	case config.DriverSQLite:
		drv, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}

		logger.DebugContext(ctx, "Opened store", "path", cfg.SQLite.Path)

		return drv, drv.Close, nil
	case config.DriverEtcd:
		client, err := clientv3.New(clientv3.Config{ //nolint:exhaustruct
			Endpoints:   cfg.Etcd.Endpoints,
			DialTimeout: cfg.Etcd.DialTimeout,
			Username:    cfg.Etcd.Username,
			Password:    cfg.Etcd.Password,
			Context:     ctx,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to etcd: %w", err)
		}

		logger.DebugContext(ctx, "Connected", "endpoints", cfg.Etcd.Endpoints)

		return etcd.New(client), client.Close, nil
	case config.DriverTKV:
		return openTarantool(ctx, cfg.Tarantool, logger)
	default:
		return nil, nil, fmt.Errorf("%w %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

func openTarantool(ctx context.Context, cfg config.Tarantool, logger *slog.Logger) (driver.Driver, func() error, error) {
	instances := make([]pool.Instance, 0, len(cfg.Addresses))

	for i, addr := range cfg.Addresses {
		instances = append(instances, pool.Instance{
			Name: "instance-" + strconv.Itoa(i),
			Dialer: &tarantool.NetDialer{ //nolint:exhaustruct
				Address:  addr,
				User:     cfg.User,
				Password: cfg.Password,
			},
			Opts: tarantool.Opts{ //nolint:exhaustruct
				Timeout: cfg.Timeout,
			},
		})
	}

	conn, err := pool.Connect(ctx, instances)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to tarantool: %w", err)
	}

	logger.DebugContext(ctx, "Connected", "addresses", cfg.Addresses)

	closeFn := func() error {
		return errors.Join(conn.Close()...)
	}

	return tkv.New(pool.NewConnectorAdapter(conn, pool.RW)), closeFn, nil
}
