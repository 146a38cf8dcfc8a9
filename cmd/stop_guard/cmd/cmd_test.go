package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("STATE_FILE", filepath.Join(dir, "state.json"))
	t.Setenv("JOURNAL_DB", filepath.Join(dir, "history.sqlite"))
	t.Setenv("STOP_GUARD_LOG_FILE", filepath.Join(dir, "stop_guard.log"))
	t.Setenv("STARTING_CASH", "1000")
	t.Setenv("PRICES_FILE", "")
	t.Setenv("WEBHOOK_URL", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })
	return dir
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_AddCheckHistory(t *testing.T) {
	dir := setupEnv(t)

	out := run(t, "add", "--symbol", "CRNX", "--shares", "10", "--price", "32.50")
	assert.Contains(t, out, "Initial stop: $28.28")
	assert.Contains(t, out, "Remaining cash: $675.00")

	prices := filepath.Join(dir, "prices.yaml")
	require.NoError(t, os.WriteFile(prices, []byte("CRNX: 36\n"), 0o644))
	out = run(t, "check", "--prices", prices, "--json=false")
	assert.Contains(t, out, "$31.68")

	require.NoError(t, os.WriteFile(prices, []byte("CRNX: 31.50\n"), 0o644))
	out = run(t, "check", "--prices", prices, "--json")
	var res struct {
		Violations []struct {
			Symbol string `json:"symbol"`
		}
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "CRNX", res.Violations[0].Symbol)

	out = run(t, "history")
	assert.Contains(t, out, "EXECUTED STOPS")
	assert.Contains(t, out, "$-10.00")

	checkJSON = false
	checkPricesFile = ""
}

func TestCLI_Version(t *testing.T) {
	out := run(t, "version")
	assert.Contains(t, out, "stop_guard version")
}

func TestCLI_TargetBenchmarksSnapshots(t *testing.T) {
	dir := setupEnv(t)
	prices := filepath.Join(dir, "prices.yaml")
	require.NoError(t, os.WriteFile(prices, []byte("CRNX: 41\nSPY: 500\n"), 0o644))
	t.Setenv("PRICES_FILE", prices)
	t.Setenv("BENCHMARKS", "SPY")
	checkPricesFile = ""

	out := run(t, "add", "--symbol", "CRNX", "--shares", "10", "--price", "32.50", "--target", "40")
	addTarget = ""
	assert.Contains(t, out, "Profit target: $40.00")

	out = run(t, "check")
	assert.Contains(t, out, "PROFIT TARGETS")
	assert.Contains(t, out, "$205.00")

	out = run(t, "status")
	assert.Contains(t, out, "Market clock not configured.")
	assert.Contains(t, out, "BENCHMARKS")
	assert.Contains(t, out, "$500.00")

	out = run(t, "history", "snapshots")
	assert.Contains(t, out, "PORTFOLIO HISTORY")
	assert.Contains(t, out, "$880.00")
}
