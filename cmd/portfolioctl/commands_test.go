package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/subcommands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simaogato/portfolio-metrics/internal/adapter/repository/memory"
	"github.com/simaogato/portfolio-metrics/internal/domain"
	"github.com/simaogato/portfolio-metrics/internal/usecase/valuation"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

// run parses args into cmd's flags and executes it
func run(t *testing.T, cmd subcommands.Command, args ...string) subcommands.ExitStatus {
	t.Helper()
	f := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	cmd.SetFlags(f)
	require.NoError(t, f.Parse(args))
	return cmd.Execute(context.Background(), f)
}

func TestCommands_LoadTradeMetrics(t *testing.T) {
	dir := t.TempDir()
	prices := writeFile(t, dir, "prices.csv", "Dates,EEUU,Europa\n"+
		"2022-02-15,10,20\n"+
		"2022-02-16,12,20\n")
	weights := writeFile(t, dir, "weights.csv", "activos,portafolio 1,portafolio 2\n"+
		"EEUU,0.6,0.5\n"+
		"Europa,0.4,0.5\n")

	store := memory.NewStore()
	open := func(context.Context) (domain.LedgerStore, func(), error) { return store, func() {}, nil }
	var out bytes.Buffer

	// load
	status := run(t, &loadCmd{open: open, strictWeights: true, out: &out},
		"-prices", prices, "-weights", weights, "-t0", "2022-02-15", "-v0", "1000", "-portfolio", "Portafolio 1")
	require.Equal(t, subcommands.ExitSuccess, status, out.String())
	assert.Contains(t, out.String(), "Loaded 2 assets, 4 prices (0 already present) and 2 holdings for Portafolio 1")

	// trade: buy 120 USD of EEUU at 12 on the second day
	out.Reset()
	status = run(t, &tradeCmd{open: open, out: &out},
		"-portfolio", "Portafolio 1", "-asset", "EEUU", "-date", "2022-02-16", "-amount", "120")
	require.Equal(t, subcommands.ExitSuccess, status, out.String())
	assert.Contains(t, out.String(), "60.000000000000 -> 70.000000000000")

	// metrics
	out.Reset()
	status = run(t, &metricsCmd{open: open, out: &out},
		"-portfolio", "Portafolio 1", "-start", "2022-02-15", "-end", "2022-02-16")
	require.Equal(t, subcommands.ExitSuccess, status)

	var report valuation.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Len(t, report.Values, 2)
	assert.Equal(t, "2022-02-15", report.Values[0].Date)
	assert.InDelta(t, 1000.0, report.Values[0].Value, 1e-9)
	// 70 * 12 + 20 * 20
	assert.InDelta(t, 1240.0, report.Values[1].Value, 1e-9)
	assert.InDelta(t, 0.6, report.Weights[0].Weights["EEUU"], 1e-9)
}

func TestCommands_LoadRejectsBadWeights(t *testing.T) {
	dir := t.TempDir()
	prices := writeFile(t, dir, "prices.csv", "Dates,EEUU\n2022-02-15,10\n")
	weights := writeFile(t, dir, "weights.csv", "activos,portafolio 1\nEEUU,0.5\n")

	store := memory.NewStore()
	open := func(context.Context) (domain.LedgerStore, func(), error) { return store, func() {}, nil }

	status := run(t, &loadCmd{open: open, strictWeights: true, out: &bytes.Buffer{}},
		"-prices", prices, "-weights", weights, "-t0", "2022-02-15", "-v0", "1000", "-portfolio", "Portafolio 1")
	assert.Equal(t, subcommands.ExitUsageError, status)

	_, err := store.Portfolios().GetByName(context.Background(), "Portafolio 1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCommands_MissingFlags(t *testing.T) {
	open := func(context.Context) (domain.LedgerStore, func(), error) {
		t.Fatal("store must not be opened")
		return nil, nil, nil
	}

	tests := []subcommands.Command{
		&loadCmd{open: open, out: &bytes.Buffer{}},
		&bootstrapCmd{open: open, out: &bytes.Buffer{}},
		&tradeCmd{open: open, out: &bytes.Buffer{}},
		&metricsCmd{open: open, out: &bytes.Buffer{}},
	}

	for _, cmd := range tests {
		t.Run(cmd.Name(), func(t *testing.T) {
			assert.Equal(t, subcommands.ExitUsageError, run(t, cmd))
		})
	}
}
