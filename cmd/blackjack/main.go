package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version  kong.VersionFlag `short:"v" help:"Show version"`
	LogLevel string           `short:"l" help:"Log level: debug, info, warn or error"`

	Server   ServerCmd   `cmd:"" help:"Run the blackjack websocket server"`
	Play     PlayCmd     `cmd:"" help:"Play at a local table in the terminal"`
	Simulate SimulateCmd `cmd:"" help:"Simulate rounds with a fixed strategy"`
	Bot      BotCmd      `cmd:"" help:"Play rounds against a running server"`
	Audit    AuditCmd    `cmd:"" help:"Show recorded rounds from a database or server"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("blackjack"),
		kong.Description("Single-player blackjack tables with an audit trail"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&Globals{LogLevel: cli.LogLevel})
	ctx.FatalIfErrorf(err)
}
