package api_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/ignite/voucher-console/internal/api"
	"github.com/ignite/voucher-console/internal/app"
	"github.com/ignite/voucher-console/internal/auth"
	"github.com/ignite/voucher-console/internal/config"
	"github.com/ignite/voucher-console/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	db := memory.New()
	require.NoError(t, memory.Seed(db, time.Now()))
	m := auth.NewManager("test-secret", time.Hour)
	svc := app.NewServices(app.MemoryRepos(db), app.Options{Tokens: m})
	srv := api.NewServer(config.ServerConfig{}, svc.Handlers(m, nil, nil))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health/live")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.True(t, errors.Is(<-errc, http.ErrServerClosed))
}
