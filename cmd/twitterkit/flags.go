package main

import "github.com/urfave/cli/v2"

const (
	flagBrowse  = "browse"
	flagCount   = "count"
	flagEnvFile = "env-file"
	flagOutput  = "output"
	flagPIN     = "pin"
	flagQR      = "qr"
	flagReply   = "reply-to"
	flagTimeout = "timeout"
	flagVerbose = "verbose"
)

var cliFlagOutput = &cli.StringFlag{
	Name:    flagOutput,
	Aliases: []string{"o"},
	Usage:   "Return output in the specified format; supported formats: table, yaml, json",
	Value:   outputTable,
}
