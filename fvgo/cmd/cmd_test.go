package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
	"github.com/ethereum-optimism/fluxvm/fvgo/fast"
)

func writeImage(t *testing.T, fn func(b *fast.ImageBuilder)) string {
	t.Helper()
	b := fast.NewImageBuilder()
	fn(b)
	img, err := b.Bytes()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "prog.bin")
	require.NoError(t, os.WriteFile(path, img, 0o644))
	return path
}

func runApp(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.RunContext(ctx, append([]string{"fluxvm"}, args...))
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "greeting.txt")
	img := writeImage(t, func(b *fast.ImageBuilder) {
		name, msg := b.NewLabel("name"), b.NewLabel("msg")
		b.IConstAddr(name).Syscall(arch.SysOpen)
		b.IConstAddr(msg).IConst(5).Syscall(arch.SysWrite)
		b.IConst(5).IConst(3).Op(arch.ISub)
		b.Op(arch.Halt)
		b.Mark(name).CString(target)
		b.Mark(msg).Data([]byte("hello"))
	})
	outPath := filepath.Join(dir, "out.json")

	_, err := runApp(t, context.Background(), "run", "--log.level", "error", "--output", outPath, img)
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "hello", string(got))

	out, err := jsonutil.LoadJSON[StateOutput](outPath)
	require.NoError(t, err)
	require.True(t, out.Halted)
	require.Equal(t, []uint32{2}, out.Stack)
	require.Equal(t, uint64(9), out.Step)
	require.NotEqual(t, common.Hash{}, out.StateHash)

	dat, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Contains(t, string(dat), `"ip": "`)
}

func TestRunCommandStopAt(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		b.IConst(1).IConst(2).IConst(3).Op(arch.Halt)
	})
	outPath := filepath.Join(t.TempDir(), "out.json")
	_, err := runApp(t, context.Background(), "run", "--log.level", "error", "--stop-at", "2", "--output", outPath, img)
	require.NoError(t, err)
	state, err := jsonutil.LoadJSON[StateOutput](outPath)
	require.NoError(t, err)
	require.False(t, state.Halted)
	require.Equal(t, []uint32{1, 2}, state.Stack)
	require.Equal(t, HexU32(arch.HeaderSize+16), state.IP)
}

func TestRunCommandSnapshots(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		b.IConst(1).IConst(2).IConst(3).Op(arch.Halt)
	})
	initial, err := fast.LoadImageFile(img)
	require.NoError(t, err)

	dir := t.TempDir()
	snapshotFmt := filepath.Join(dir, "%d.json")
	_, err = runApp(t, context.Background(), "run", "--log.level", "error",
		"--snapshot-at", "2", "--snapshot-fmt", snapshotFmt, img)
	require.NoError(t, err)

	first, err := jsonutil.LoadJSON[fast.VMState](filepath.Join(dir, "0.json"))
	require.NoError(t, err)
	require.Equal(t, uint64(0), first.Step)
	require.Equal(t, uint32(arch.HeaderSize), first.IP)
	require.Empty(t, first.Stack)
	require.Equal(t, initial.Memory.Hash(), first.Memory.Hash())

	second, err := jsonutil.LoadJSON[fast.VMState](filepath.Join(dir, "2.json"))
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.Step)
	require.Equal(t, uint32(arch.HeaderSize+16), second.IP)
	require.Equal(t, []uint32{1, 2}, second.Stack)
	require.False(t, second.Halted)
	require.Equal(t, initial.Memory.Hash(), second.Memory.Hash())

	require.NoFileExists(t, filepath.Join(dir, "1.json"))
	require.NoFileExists(t, filepath.Join(dir, "3.json"))
	require.NoFileExists(t, filepath.Join(dir, "4.json"))
}

func TestRunCommandResume(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		b.IConst(4).Op(arch.Dup).Op(arch.IMul).IConst(6).Op(arch.ISub).Op(arch.Halt)
	})
	dir := t.TempDir()

	fullPath := filepath.Join(dir, "full.json")
	_, err := runApp(t, context.Background(), "run", "--log.level", "error",
		"--snapshot-at", "3", "--snapshot-fmt", filepath.Join(dir, "%d.json"), "--output", fullPath, img)
	require.NoError(t, err)
	full, err := jsonutil.LoadJSON[StateOutput](fullPath)
	require.NoError(t, err)
	require.Equal(t, []uint32{10}, full.Stack)

	resumedPath := filepath.Join(dir, "resumed.json")
	_, err = runApp(t, context.Background(), "run", "--log.level", "error",
		"--input", filepath.Join(dir, "3.json"), "--output", resumedPath)
	require.NoError(t, err)
	resumed, err := jsonutil.LoadJSON[StateOutput](resumedPath)
	require.NoError(t, err)
	require.Equal(t, *full, *resumed)

	_, err = runApp(t, context.Background(), "run", "--input", filepath.Join(dir, "3.json"), img)
	require.ErrorIs(t, err, ErrImageAndInput)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"ip": 12, "step": 0}`), 0o644))
	_, err = runApp(t, context.Background(), "run", "--input", empty)
	require.ErrorIs(t, err, ErrIncompleteState)
}

func TestRunCommandFailure(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		b.IConst(6).IConst(0).Op(arch.IDiv).Op(arch.Halt)
	})
	_, err := runApp(t, context.Background(), "run", "--log.level", "error", img)
	require.ErrorIs(t, err, fast.ErrDivisionByZero)
	require.ErrorContains(t, err, "failed at step 2 (IP: 0000001c)")
}

func TestRunCommandInterrupted(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		loop := b.NewLabel("loop")
		b.Mark(loop).IConst(0).JumpIfZero(loop)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runApp(t, ctx, "run", "--log.level", "error", img)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunCommandBadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xf1, 0x0f, 0x0a, 0x00, 0, 0, 0, 1, 0, 0, 0, 12}, 0o644))
	_, err := runApp(t, context.Background(), "run", path)
	require.ErrorIs(t, err, fast.ErrVersionMismatch)

	_, err = runApp(t, context.Background(), "run", filepath.Join(t.TempDir(), "missing.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = runApp(t, context.Background(), "run")
	require.ErrorIs(t, err, ErrMissingImage)

	_, err = runApp(t, context.Background(), "run", "--log.level", "loud", path)
	require.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestInspectCommand(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		msg := b.NewLabel("msg")
		b.IConst(arch.FdStdout).IConstAddr(msg).IConst(2).Syscall(arch.SysWrite)
		b.Op(arch.Halt)
		b.Mark(msg).Data([]byte("hi\n\x00"))
	})
	out, err := runApp(t, context.Background(), "inspect", img)
	require.NoError(t, err)
	require.Contains(t, out, "magic:   0xf10f0a00\n")
	require.Contains(t, out, "version: 0x00000000\n")
	require.Contains(t, out, "entry:   0000000c\n")
	require.Contains(t, out, "syscall write")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Equal(t, "00000030: 68690a00  ??", lines[len(lines)-1])
}

func TestWitnessCommand(t *testing.T) {
	path := writeImage(t, func(b *fast.ImageBuilder) {
		b.IConst(7).Op(arch.Halt)
	})
	state, err := fast.LoadImageFile(path)
	require.NoError(t, err)
	expected, err := state.EncodeWitness().StateHash()
	require.NoError(t, err)

	out, err := runApp(t, context.Background(), "witness", path)
	require.NoError(t, err)
	require.Equal(t, expected.Hex()+"\n", out)

	outPath := filepath.Join(t.TempDir(), "witness.json")
	_, err = runApp(t, context.Background(), "witness", "--output", outPath, path)
	require.NoError(t, err)
	wit, err := jsonutil.LoadJSON[WitnessOutput](outPath)
	require.NoError(t, err)
	require.Equal(t, expected, wit.StateHash)
	require.Equal(t, []byte(state.EncodeWitness()), []byte(wit.Witness))
}

func TestLoggingWriter(t *testing.T) {
	var buf bytes.Buffer
	lw := &LoggingWriter{Name: "program std-out", Log: Logger(&buf, slog.LevelInfo)}

	n, err := lw.Write([]byte("hello there\n"))
	require.NoError(t, err)
	require.Equal(t, 12, n)
	require.Contains(t, buf.String(), "hello there")

	buf.Reset()
	_, err = lw.Write([]byte{0x00, 0xff})
	require.NoError(t, err)
	require.Contains(t, buf.String(), "data=0x00ff")
}

func TestParseLevel(t *testing.T) {
	for s, want := range map[string]slog.Level{
		"trace": log.LevelTrace,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"crit":  log.LevelCrit,
	} {
		got, err := ParseLevel(s)
		require.NoError(t, err, s)
		require.Equal(t, want, got, s)
	}
	_, err := ParseLevel("verbose")
	require.ErrorContains(t, err, `invalid log level "verbose"`)
}

func TestEnvVarFlags(t *testing.T) {
	img := writeImage(t, func(b *fast.ImageBuilder) {
		b.IConst(1).IConst(2).Op(arch.Halt)
	})
	outPath := filepath.Join(t.TempDir(), "out.json")
	t.Setenv("FLUXVM_STOP_AT", "1")
	t.Setenv("FLUXVM_OUTPUT", outPath)
	t.Setenv("FLUXVM_LOG_LEVEL", "error")
	_, err := runApp(t, context.Background(), "run", img)
	require.NoError(t, err)
	state, err := jsonutil.LoadJSON[StateOutput](outPath)
	require.NoError(t, err)
	require.Equal(t, uint64(1), state.Step)
	require.Equal(t, []uint32{1}, state.Stack)
}
