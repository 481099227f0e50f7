// Command odataquery parses OData query strings and shows what the library makes
// of them: the options record, the SQL a gorm query would run, or the MongoDB
// filter and find options.
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// CLI represents the command-line interface
type CLI struct {
	Output  string   `help:"Output format" enum:"json,yaml" default:"json" short:"o" env:"ODATAQUERY_OUTPUT"`
	Formats []string `help:"Accepted $$format values" env:"ODATAQUERY_FORMATS" sep:","`
	Debug   bool     `help:"Log parser debug output to stderr" env:"ODATAQUERY_DEBUG"`
	NoColor bool     `help:"Disable colored error output" name:"no-color" env:"NO_COLOR"`

	Parse   ParseCmd   `cmd:"" help:"Parse a query string and print the options record"`
	SQL     SQLCmd     `cmd:"" name:"sql" help:"Print the SQL a gorm query over a table would run"`
	Mongo   MongoCmd   `cmd:"" help:"Print the MongoDB filter and find options"`
	Version VersionCmd `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

func (cmd *VersionCmd) Run(ctx *Context) error {
	_, err := io.WriteString(ctx.Stdout, "odataquery v0.1.0\n")
	return err
}

// run executes the command line in args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	var cli CLI
	exitCode := -1
	parser, err := kong.New(&cli,
		kong.Name("odataquery"),
		kong.Description("Inspect how OData query options are parsed and translated."),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) { exitCode = code }),
	)
	if err != nil {
		printError(stderr, err, "", true)
		return 2
	}

	kctx, err := parser.Parse(args)
	if exitCode >= 0 {
		return exitCode
	}
	if err != nil {
		printError(stderr, err, "", cli.NoColor)
		return 2
	}

	appCtx := newContext(&cli, stdout, stderr)
	if err := kctx.Run(appCtx); err != nil {
		printError(stderr, err, appCtx.rawQuery, cli.NoColor)
		return 1
	}
	return 0
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
