// Command scenetool works with scene configurations and exported scene files
// offline, without a running server.
//
//	scenetool validate [files...]        check configs (defaults to every config in --config-dir)
//	scenetool inspect <scene>            summarize a .jsonl or .jsonl.zst scene
//	scenetool convert <in> <out>         re-encode a scene, compressing when out ends in .zst
//	scenetool render <config> [scene]    draw a config's grid, optionally with a scene imported
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "scenetool",
		Usage: "validate, inspect and convert road grid scenes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "directory holding scene configurations",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "validate scene configurations",
				ArgsUsage: "[files...]",
				Action:    runValidate,
			},
			{
				Name:      "inspect",
				Usage:     "summarize an exported scene",
				ArgsUsage: "<scene>",
				Action:    runInspect,
			},
			{
				Name:      "convert",
				Usage:     "re-encode a scene between .jsonl and .jsonl.zst",
				ArgsUsage: "<in> <out>",
				Action:    runConvert,
			},
			{
				Name:      "render",
				Usage:     "print the grid of a configuration",
				ArgsUsage: "<config> [scene]",
				Action:    runRender,
			},
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "scenetool:", err)
		os.Exit(1)
	}
}
