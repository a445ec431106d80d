package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/fluxvm/fvgo/arch"
	"github.com/ethereum-optimism/fluxvm/fvgo/fast"
)

func Inspect(ctx *cli.Context) error {
	path, err := imagePath(ctx)
	if err != nil {
		return err
	}
	state, err := fast.LoadImageFile(path)
	if err != nil {
		return err
	}
	header, _ := state.Memory.Range(0, arch.HeaderSize)

	w := ctx.App.Writer
	fmt.Fprintf(w, "magic:   %s\n", hexutil.Bytes(header[arch.MagicOffset:arch.MagicOffset+4]))
	fmt.Fprintf(w, "version: %s\n", hexutil.Bytes(header[arch.VersionOffset:arch.VersionOffset+4]))
	fmt.Fprintf(w, "entry:   %s\n", HexU32(state.IP))
	fmt.Fprintf(w, "size:    %d bytes\n", state.Memory.Len())
	fmt.Fprintf(w, "image:   %s\n", state.Memory.Hash())
	fmt.Fprintln(w)
	for _, ins := range fast.Disassemble(state.Memory, state.IP) {
		fmt.Fprintln(w, ins)
	}
	return nil
}

var InspectCommand = &cli.Command{
	Name:        "inspect",
	Usage:       "Print the header and a disassembly of a program image",
	Description: "Validate the image header and disassemble from the entry point until the first word that is not an instruction.",
	ArgsUsage:   "<image>",
	Action:      Inspect,
}
