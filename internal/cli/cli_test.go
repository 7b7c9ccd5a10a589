package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goLSKd/internal/config"
)

// run executes the root command with args and returns its output
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rpcURL = ""
		configFile = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lskd version 0.1.0-dev")
}

func TestExampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lskd.toml")
	_, err := run(t, "example-config", path)
	require.NoError(t, err)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.History.Enabled())
}

func TestRPCClient(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		if got["method"] == "tx" {
			_, _ = w.Write([]byte(`{"result":{"status":"error","error":"txnNotFound","error_message":"Transaction not found."}}`))
			return
		}
		_, _ = w.Write([]byte(`{"result":{"status":"success","height":7}}`))
	}))
	defer srv.Close()

	out, err := run(t, "rpc", "--url", srv.URL, "block_included", "7", "11", "12")
	require.NoError(t, err)
	assert.Contains(t, out, `"height": 7`)
	assert.Equal(t, "block_included", got["method"])
	params := got["params"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(7), params["height"])
	assert.Equal(t, []any{"11", "12"}, params["transactions"])

	_, err = run(t, "rpc", "--url", srv.URL, "tx", "99")
	assert.ErrorContains(t, err, "txnNotFound")

	_, err = run(t, "rpc", "--url", srv.URL, "block_included", "tip")
	assert.ErrorContains(t, err, "invalid height: tip")
}
