package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/custodia-labs/signpost-sync/internal/config"
	"github.com/custodia-labs/signpost-sync/internal/core/domain"
)

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func contentAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/services":
			w.Write([]byte(`{"data":[{"id":1,"date_updated":100,"status":"published"},{"id":2,"date_updated":200,"status":"published"}]}`))
		default:
			w.Write([]byte(`{"data":[]}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHashPasswordCmd(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	t.Run("argument", func(t *testing.T) {
		out, err := execute(t, "", "hash-password", "s3cret")
		require.NoError(t, err)
		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("stdin", func(t *testing.T) {
		out, err := execute(t, "from-stdin\n", "hash-password")
		require.NoError(t, err)
		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("from-stdin")))
	})

	t.Run("empty", func(t *testing.T) {
		_, err := execute(t, "\n", "hash-password")
		assert.Error(t, err)
	})
}

func TestSyncCmd(t *testing.T) {
	api := contentAPI(t)
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "cache.db"))
	t.Setenv("REMOTE_URL", api.URL)
	t.Setenv("SYNC_KINDS", "services")

	out, err := execute(t, "", "sync")
	require.NoError(t, err)

	var results []domain.SyncResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, domain.KindService, results[0].Kind)
	assert.True(t, results[0].Success)
	assert.Equal(t, 2, results[0].Stats.Fetched)

	// A second process sees what the first one cached.
	out, err = execute(t, "", "show")
	require.NoError(t, err)
	assert.Regexp(t, `service\s+2\s+completed`, out)
}

func TestSyncCmd_UnknownKind(t *testing.T) {
	api := contentAPI(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REMOTE_URL", api.URL)

	_, err := execute(t, "", "sync", "nope")
	assert.ErrorIs(t, err, domain.ErrUnknownKind)
}

func TestSyncCmd_RequiresRemote(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("REMOTE_URL", "")

	_, err := execute(t, "", "sync")
	assert.Error(t, err)
}

func TestShowCmd_EmptyCache(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SYNC_KINDS", "services,providers")

	out, err := execute(t, "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "KIND")
	assert.Regexp(t, `service\s+0\s+-`, out)
	assert.Regexp(t, `provider\s+0\s+-`, out)
}

func TestShowCmd_UnreachableStore(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sqlite")
	// A directory cannot be opened as a database file.
	t.Setenv("SQLITE_PATH", t.TempDir())
	t.Setenv("SYNC_KINDS", "services")

	out, err := execute(t, "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "local store unavailable")
}

func TestInvalidConfig(t *testing.T) {
	t.Setenv("STORE_BACKEND", "cassandra")

	_, err := execute(t, "", "show")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	cfg := &config.Config{LogLevel: "debug", LogFormat: "json"}
	logger, err := newLogger(cfg, &buf)
	require.NoError(t, err)

	logger.Debug("hello", "k", "v")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "signpost-sync", line["service"])

	_, err = newLogger(&config.Config{LogLevel: "info", LogFormat: "xml"}, &buf)
	assert.Error(t, err)
}
