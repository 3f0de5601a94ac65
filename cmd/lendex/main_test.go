package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func logLevelContext(level string) *cli.Context {
	set := flag.NewFlagSet("lendex", flag.ContinueOnError)
	set.String("log-level", level, "")
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogger_AcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		require.NoError(t, setupLogger(logLevelContext(level)), "level %s", level)
	}
}

func TestSetupLogger_RejectsUnknownLevel(t *testing.T) {
	err := setupLogger(logLevelContext("verbose"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
}
