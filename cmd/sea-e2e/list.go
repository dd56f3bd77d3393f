package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"sea-e2e/internal/exitcodes"
	"sea-e2e/internal/parser"
	"sea-e2e/internal/reporter"
)

func listCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List test files and their tests",
		Flags: []cli.Flag{ScriptsDir, IncludeTags, ExcludeTags, Grep},
		Action: func(c *cli.Context) error {
			files, err := discover(c.String(ScriptsDir.Name), c.Args().Slice())
			if err != nil {
				return exitcodes.NewRuntimeError(err)
			}
			files = filter(files, execOptions{
				IncludeTags: splitCSV(c.String(IncludeTags.Name)),
				ExcludeTags: splitCSV(c.String(ExcludeTags.Name)),
				Grep:        c.String(Grep.Name),
			})
			for _, f := range files {
				fmt.Fprintf(a.stdout, "%s (report-%s.json)\n", f.Name, reporter.FileKey(f.Name))
				for _, t := range f.Tests {
					line := "  - " + t.Title
					if len(t.Tags) > 0 {
						line += " [" + strings.Join(t.Tags, ", ") + "]"
					}
					if t.Skip {
						line += " (skip)"
					}
					fmt.Fprintln(a.stdout, line)
				}
			}
			return nil
		},
	}
}

func validateCommand(a *app) *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check scripted test files without running them",
		ArgsUsage: "<file...>",
		Flags:     []cli.Flag{ScriptsDir},
		Action: func(c *cli.Context) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				var err error
				if paths, err = parser.Discover(c.String(ScriptsDir.Name)); err != nil {
					return exitcodes.NewRuntimeError(err)
				}
			}
			bad := 0
			p := parser.New()
			for _, path := range paths {
				tf, err := p.ParseFile(path)
				if err != nil {
					bad++
					fmt.Fprintf(a.stdout, "FAIL %s: %v\n", path, err)
					continue
				}
				fmt.Fprintf(a.stdout, "ok   %s (%d scenarios)\n", path, len(tf.Scenarios))
			}
			if bad > 0 {
				return exitcodes.NewRuntimeError(fmt.Errorf("%d of %d files invalid", bad, len(paths)))
			}
			return nil
		},
	}
}
