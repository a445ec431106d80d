package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/profile"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/fluxvm/fvgo/fast"
)

var (
	ErrMissingImage    = errors.New("expected exactly one image path argument")
	ErrImageAndInput   = errors.New("image argument and --input are mutually exclusive")
	ErrIncompleteState = errors.New("state snapshot has no memory image")
)

var OutFilePerm = os.FileMode(0o644)

// StateOutput summarizes where a run ended.
type StateOutput struct {
	IP        HexU32      `json:"ip"`
	Step      uint64      `json:"step"`
	Halted    bool        `json:"halted"`
	Stack     []uint32    `json:"stack"`
	StateHash common.Hash `json:"stateHash"`
}

func imagePath(ctx *cli.Context) (string, error) {
	if ctx.NArg() != 1 {
		return "", fmt.Errorf("%w, got %d", ErrMissingImage, ctx.NArg())
	}
	return ctx.Args().First(), nil
}

// loadRunState resumes from a --input snapshot, or loads the image argument.
func loadRunState(ctx *cli.Context) (*fast.VMState, error) {
	input := ctx.Path(RunInputFlag.Name)
	if input == "" {
		path, err := imagePath(ctx)
		if err != nil {
			return nil, err
		}
		return fast.LoadImageFile(path)
	}
	if ctx.NArg() != 0 {
		return nil, ErrImageAndInput
	}
	state, err := jsonutil.LoadJSON[fast.VMState](input)
	if err != nil {
		return nil, fmt.Errorf("failed to load state snapshot %q: %w", input, err)
	}
	if state.Memory == nil {
		return nil, fmt.Errorf("%w: %q", ErrIncompleteState, input)
	}
	return state, nil
}

func Run(ctx *cli.Context) error {
	if ctx.Bool(RunPProfCPUFlag.Name) {
		defer profile.Start(profile.NoShutdownHook, profile.ProfilePath("."), profile.CPUProfile).Stop()
	}

	lvl, err := ParseLevel(ctx.String(LogLevelFlag.Name))
	if err != nil {
		return err
	}
	l := Logger(os.Stderr, lvl)

	state, err := loadRunState(ctx)
	if err != nil {
		return err
	}

	var stdOut, stdErr io.Writer = os.Stdout, os.Stderr
	if ctx.Bool(RunLogGuestOutputFlag.Name) {
		stdOut = &LoggingWriter{Name: "program std-out", Log: l}
		stdErr = &LoggingWriter{Name: "program std-err", Log: l}
	}
	vm := fast.NewInstrumentedState(state, os.Stdin, stdOut, stdErr)
	defer func() {
		if err := vm.Close(); err != nil {
			l.Error("failed to close program files", "err", err)
		}
	}()

	infoAt := ctx.Uint64(RunInfoAtFlag.Name)
	stopAt := ctx.Uint64(RunStopAtFlag.Name)
	snapshotAt := ctx.Uint64(RunSnapshotAtFlag.Name)
	snapshotFmt := ctx.String(RunSnapshotFmtFlag.Name)

	l.Debug("loaded state", "size", state.Memory.Len(), "ip", HexU32(state.IP), "step", state.Step)

	start := time.Now()
	startStep := state.Step

	for state.Running() {
		if state.Step%100 == 0 { // don't do the ctx err check (includes lock) too often
			if err := ctx.Context.Err(); err != nil {
				return err
			}
		}

		step, ip := state.Step, state.IP

		if stopAt != 0 && step >= stopAt {
			l.Info("stopping early", "step", step, "ip", HexU32(ip))
			break
		}

		if infoAt != 0 && step%infoAt == 0 {
			delta := time.Since(start)
			l.Info("processing",
				"step", step,
				"ip", HexU32(ip),
				"insn", HexU32(state.Instr()),
				"ips", float64(step-startStep)/(float64(delta)/float64(time.Second)),
				"stack", len(state.Stack),
			)
		}

		if snapshotAt != 0 && step%snapshotAt == 0 {
			if err := jsonutil.WriteJSON(fmt.Sprintf(snapshotFmt, step), state, OutFilePerm); err != nil {
				return fmt.Errorf("failed to write state snapshot: %w", err)
			}
		}

		if err := vm.Step(); err != nil {
			return fmt.Errorf("failed at step %d (IP: %08x): %w", step, ip, err)
		}
	}

	stateHash, err := state.EncodeWitness().StateHash()
	if err != nil {
		return fmt.Errorf("failed to hash final state: %w", err)
	}
	l.Info("execution finished",
		"step", state.Step,
		"halted", state.Halted,
		"stack", len(state.Stack),
		"state", stateHash,
		"duration", time.Since(start),
	)

	out := &StateOutput{
		IP:        HexU32(state.IP),
		Step:      state.Step,
		Halted:    state.Halted,
		Stack:     state.Stack,
		StateHash: stateHash,
	}
	if err := jsonutil.WriteJSON(ctx.Path(RunOutputFlag.Name), out, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write state output: %w", err)
	}
	return nil
}

var RunCommand = &cli.Command{
	Name:        "run",
	Usage:       "Run a program image until it halts",
	Description: "Load a program image, or resume a state snapshot, and execute it. The program's standard streams are those of this process. See flags to log progress, stop early, snapshot, or write the final state.",
	ArgsUsage:   "<image>",
	Action:      Run,
	Flags: []cli.Flag{
		RunInfoAtFlag,
		RunStopAtFlag,
		RunOutputFlag,
		RunSnapshotAtFlag,
		RunSnapshotFmtFlag,
		RunInputFlag,
		RunLogGuestOutputFlag,
		RunPProfCPUFlag,
		LogLevelFlag,
	},
}
