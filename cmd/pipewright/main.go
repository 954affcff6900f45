package main

import (
	"github.com/alecthomas/kong"

	"github.com/pipewright/pipewright/cmd/pipewright/commands"
	"github.com/pipewright/pipewright/internal/version"
)

func main() {
	cli := &commands.CLI{}
	ctx := kong.Parse(cli,
		kong.Name("pipewright"),
		kong.Description("Build verification pipeline: checkout, format, lint, build, test, and gated publish across an OS matrix."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)
	err := ctx.Run(&commands.Global{})
	ctx.Exit(commands.ExitCode(err))
}
