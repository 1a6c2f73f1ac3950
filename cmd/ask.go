package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/promptflow/internal/pipeline"
	"github.com/promptflow/internal/prompt"
)

// AskCommand returns the CLI command for a one-shot pipeline run
func AskCommand() *cli.Command {
	return &cli.Command{
		Name:      "ask",
		Usage:     "Run a one-shot prompt through the model",
		ArgsUsage: "QUESTION",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "list",
				Usage: "Parse the answer as a comma-separated list",
			},
			&cli.BoolFlag{
				Name:  "usage",
				Usage: "Print token usage after the answer",
			},
		},
		Action: func(c *cli.Context) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return fmt.Errorf("a question is required, e.g.: promptflow ask \"What is Go?\"")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			invoker, err := buildInvoker(cfg)
			if err != nil {
				return err
			}

			var opts []pipeline.Option
			if c.Bool("list") {
				opts = append(opts, pipeline.WithList())
			}

			p := pipeline.New(prompt.NewText("{question}"), invoker, opts...)
			result, err := p.Run(c.Context, map[string]string{"question": question})
			if err != nil {
				return err
			}

			if items := result.List(); items != nil {
				for _, item := range items {
					fmt.Println("-", item)
				}
			} else {
				fmt.Println(result.Text)
			}

			if c.Bool("usage") && result.Usage.Known {
				fmt.Printf("\ntokens: %d in, %d out, %d total\n",
					result.Usage.Input, result.Usage.Output, result.Usage.Total())
			}
			return nil
		},
	}
}
