package cmd

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_EvalEndToEnd(t *testing.T) {
	// GIVEN a set on a search path passed by flag
	dir := writeToySet(t)
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"eval", "Toy/0", "--data-path", dir, "--x", "0.01", "--q", "10", "--flavor", "21", "--stats"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
		showStats = false
		dataPaths = nil
		evalQ = 0
		evalFlavors = nil
	})

	// WHEN eval runs
	require.NoError(t, rootCmd.Execute())

	// THEN the value at Q = 10 (Q² = 100) goes to stdout and the cache counters to stderr
	assert.Equal(t, fmt.Sprintf("21\t%.10e\n", toyValue(21, 0.01, 100)), out.String())
	assert.Contains(t, errOut.String(), "pdfgrid_filecache_reads_total")
}

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"eval", "lookup", "scan", "convert", "info"} {
		assert.True(t, names[want], want)
	}
}
