package cmd

import (
	"github.com/urfave/cli/v2"
)

const envVarPrefix = "FLUXVM"

func prefixEnvVars(name string) []string {
	return []string{envVarPrefix + "_" + name}
}

var (
	RunInfoAtFlag = &cli.Uint64Flag{
		Name:    "info-at",
		Usage:   "log progress every N steps, 0 to disable",
		EnvVars: prefixEnvVars("INFO_AT"),
	}
	RunStopAtFlag = &cli.Uint64Flag{
		Name:    "stop-at",
		Usage:   "stop after N steps, 0 to run until the program ends",
		EnvVars: prefixEnvVars("STOP_AT"),
	}
	RunOutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "write the final state as JSON to this path, '-' for stdout",
		TakesFile: true,
		EnvVars:   prefixEnvVars("OUTPUT"),
	}
	RunSnapshotAtFlag = &cli.Uint64Flag{
		Name:    "snapshot-at",
		Usage:   "write a JSON state snapshot every N steps, 0 to disable",
		EnvVars: prefixEnvVars("SNAPSHOT_AT"),
	}
	RunSnapshotFmtFlag = &cli.StringFlag{
		Name:    "snapshot-fmt",
		Usage:   "format for snapshot output file names, %d is the step. Use .gz suffix to compress",
		Value:   "%d.json",
		EnvVars: prefixEnvVars("SNAPSHOT_FMT"),
	}
	RunInputFlag = &cli.PathFlag{
		Name:      "input",
		Usage:     "resume from a JSON state snapshot instead of an image. Files opened by the program are not restored",
		TakesFile: true,
		EnvVars:   prefixEnvVars("INPUT"),
	}
	RunLogGuestOutputFlag = &cli.BoolFlag{
		Name:    "log-guest-output",
		Usage:   "route the program's stdout and stderr through the logger",
		EnvVars: prefixEnvVars("LOG_GUEST_OUTPUT"),
	}
	RunPProfCPUFlag = &cli.BoolFlag{
		Name:    "pprof.cpu",
		Usage:   "enable pprof cpu profiling",
		EnvVars: prefixEnvVars("PPROF_CPU"),
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log.level",
		Usage:   "log level: trace, debug, info, warn, error, crit",
		Value:   "info",
		EnvVars: prefixEnvVars("LOG_LEVEL"),
	}
	WitnessOutputFlag = &cli.PathFlag{
		Name:      "output",
		Usage:     "write the witness and state hash as JSON to this path, '-' for stdout",
		TakesFile: true,
		EnvVars:   prefixEnvVars("WITNESS_OUTPUT"),
	}
)
