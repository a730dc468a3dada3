package tkv_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tarantool/go-tarantool/v2"
	"github.com/tarantool/go-tarantool/v2/pool"

	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/driver/tkv"
	"github.com/tarantool/go-record/internal/drivertest"
	"github.com/tarantool/go-record/operation"
)

// openPool connects to the instances listed in TARANTOOL_ADDR.
func openPool(t *testing.T) *pool.ConnectionPool {
	t.Helper()

	addr := os.Getenv("TARANTOOL_ADDR")
	if addr == "" {
		t.Skip("Skipping test: TARANTOOL_ADDR environment variable not set")
	}

	var instances []pool.Instance

	for i, a := range strings.Split(addr, ",") {
		instances = append(instances, pool.Instance{
			Name: string(rune('a' + i)),
			Dialer: &tarantool.NetDialer{ //nolint:exhaustruct
				Address:  strings.TrimSpace(a),
				User:     "client",
				Password: "secret",
			},
			Opts: tarantool.Opts{}, //nolint:exhaustruct
		})
	}

	conn, err := pool.Connect(context.Background(), instances)
	require.NoError(t, err, "Failed to connect to Tarantool pool")

	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestIntegration_Driver(t *testing.T) {
	conn := openPool(t)

	drivertest.Run(t, func(t *testing.T) driver.Driver {
		t.Helper()

		drv := tkv.New(pool.NewConnectorAdapter(conn, pool.RW))

		t.Cleanup(func() {
			_, _ = drv.Execute(context.Background(), nil, []operation.Operation{
				operation.Delete([]byte("/drivertest/")),
			}, nil)
		})

		return drv
	})
}
