package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/promptflow/internal/agent"
	"github.com/promptflow/internal/tools"
)

// AgentCommand returns the CLI command for running the tool-using agent
func AgentCommand() *cli.Command {
	return &cli.Command{
		Name:      "agent",
		Usage:     "Answer a question with the tool-using agent",
		ArgsUsage: "QUESTION",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "Print each reasoning step",
			},
		},
		Action: func(c *cli.Context) error {
			question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if question == "" {
				return fmt.Errorf("a question is required, e.g.: promptflow agent \"What is 25 * 17?\"")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			invoker, err := buildInvoker(cfg)
			if err != nil {
				return err
			}

			a := agent.New(invoker, tools.Builtins(), agent.WithMaxSteps(cfg.Agent.MaxSteps))
			result, err := a.Run(c.Context, question)
			if err != nil {
				return err
			}

			if c.Bool("trace") {
				for i, step := range result.Steps {
					fmt.Printf("step %d: %s", i+1, step.Decision.Action)
					if step.Decision.ToolName != "" {
						fmt.Printf(" (%s)", step.Decision.ToolName)
					}
					fmt.Println()
					if step.Decision.Thought != "" {
						fmt.Printf("  thought: %s\n", step.Decision.Thought)
					}
				}
			}

			fmt.Println(result.Answer)
			return nil
		},
	}
}
