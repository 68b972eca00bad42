package server_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/taskflow/core/server"
)

func testHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "OK")
	})
}

func getFreePort(t *testing.T) int {
	t.Helper()
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	return port
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("missing address", func(t *testing.T) {
		t.Parallel()

		srv, err := server.New("")
		require.ErrorIs(t, err, server.ErrMissingAddress)
		assert.Nil(t, srv)
	})

	t.Run("valid address", func(t *testing.T) {
		t.Parallel()

		srv, err := server.New(":0")
		require.NoError(t, err)
		assert.NotNil(t, srv)
		assert.False(t, srv.IsRunning())
	})
}

func TestServerServesRequests(t *testing.T) {
	t.Parallel()

	port := getFreePort(t)
	srv, err := server.New(fmt.Sprintf(":%d", port))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var startErr error
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		startErr = srv.Start(ctx, testHandler())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://localhost:%d", port))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "OK", string(body))
	assert.True(t, srv.IsRunning())

	cancel()
	wg.Wait()
	require.ErrorIs(t, startErr, context.Canceled)
	require.NoError(t, srv.Stop())
	assert.False(t, srv.IsRunning())
}

func TestServerAlreadyRunning(t *testing.T) {
	t.Parallel()

	port := getFreePort(t)
	srv, err := server.New(fmt.Sprintf(":%d", port))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = srv.Start(ctx, testHandler())
	}()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)

	err = srv.Start(ctx, testHandler())
	require.ErrorIs(t, err, server.ErrAlreadyRunning)

	cancel()
	wg.Wait()
	require.NoError(t, srv.Stop())
}

func TestServerPortConflict(t *testing.T) {
	t.Parallel()

	port := getFreePort(t)
	addr := fmt.Sprintf(":%d", port)

	first, err := server.New(addr)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = first.Start(ctx, testHandler())
	}()

	require.Eventually(t, first.IsRunning, 2*time.Second, 10*time.Millisecond)

	second, err := server.New(addr)
	require.NoError(t, err)

	err = second.Start(context.Background(), testHandler())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address already in use")

	cancel()
	wg.Wait()
	require.NoError(t, first.Stop())
}

func TestServerStopWithoutStart(t *testing.T) {
	t.Parallel()

	srv, err := server.New(":0")
	require.NoError(t, err)
	require.NoError(t, srv.Stop())
}

func TestServerShutdownTimeout(t *testing.T) {
	t.Parallel()

	port := getFreePort(t)
	srv, err := server.New(
		fmt.Sprintf(":%d", port),
		server.WithShutdownTimeout(20*time.Millisecond),
	)
	require.NoError(t, err)

	release := make(chan struct{})
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = srv.Start(ctx, slow)
	}()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)

	requestStarted := make(chan struct{})
	go func() {
		close(requestStarted)
		_, _ = http.Get(fmt.Sprintf("http://localhost:%d", port))
	}()
	<-requestStarted
	time.Sleep(50 * time.Millisecond)

	err = srv.Stop()
	require.Error(t, err)

	close(release)
	cancel()
	wg.Wait()
}

func TestServerRunAdapter(t *testing.T) {
	t.Parallel()

	port := getFreePort(t)
	srv, err := server.New(fmt.Sprintf(":%d", port))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(srv.Run(egCtx, testHandler()))

	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%d", port))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, eg.Wait())
	assert.False(t, srv.IsRunning())
}
