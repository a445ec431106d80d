package cmd

import (
	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fluxvm"
	app.Usage = "Stack bytecode VM"
	app.Description = "Run and inspect fluxvm program images"
	app.Commands = []*cli.Command{
		RunCommand,
		InspectCommand,
		WitnessCommand,
	}
	return app
}
