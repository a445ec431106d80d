package cmd

import (
	"fmt"

	"github.com/ethereum-optimism/optimism/op-service/jsonutil"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"

	"github.com/ethereum-optimism/fluxvm/fvgo/fast"
)

type WitnessOutput struct {
	Witness   hexutil.Bytes `json:"witness"`
	StateHash common.Hash   `json:"stateHash"`
}

func Witness(ctx *cli.Context) error {
	path, err := imagePath(ctx)
	if err != nil {
		return err
	}
	state, err := fast.LoadImageFile(path)
	if err != nil {
		return err
	}
	witness := state.EncodeWitness()
	stateHash, err := witness.StateHash()
	if err != nil {
		return fmt.Errorf("failed to compute witness hash: %w", err)
	}
	witnessOutput := &WitnessOutput{
		Witness:   hexutil.Bytes(witness),
		StateHash: stateHash,
	}
	if err := jsonutil.WriteJSON(ctx.Path(WitnessOutputFlag.Name), witnessOutput, OutFilePerm); err != nil {
		return fmt.Errorf("failed to write witness output: %w", err)
	}
	fmt.Fprintln(ctx.App.Writer, stateHash.Hex())
	return nil
}

var WitnessCommand = &cli.Command{
	Name:        "witness",
	Usage:       "Print the state hash of a freshly loaded program image",
	Description: "Load a program image and encode its initial VM state as a witness. The state hash is written to stdout.",
	ArgsUsage:   "<image>",
	Action:      Witness,
	Flags: []cli.Flag{
		WitnessOutputFlag,
	},
}
