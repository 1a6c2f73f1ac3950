package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/promptflow/internal/api"
	"github.com/promptflow/internal/tools"
)

// APICommand returns the CLI command for starting the API server
func APICommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Start the PromptFlow API server",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}

			port := cfg.Server.Port
			if c.IsSet("port") {
				port = c.Int("port")
			}

			invoker, err := buildInvoker(cfg)
			if err != nil {
				return err
			}
			store, err := buildStore(c.Context, cfg)
			if err != nil {
				return err
			}
			recorder, err := buildRecorder(c.Context, cfg)
			if err != nil {
				return err
			}

			fmt.Printf("Starting PromptFlow API server on port %d...\n", port)

			server := api.NewServer(cfg.Server.Host, port, api.Deps{
				Invoker:  invoker,
				Registry: tools.Builtins(),
				MaxSteps: cfg.Agent.MaxSteps,
				Store:    store,
				Window:   cfg.Memory.Window,
				Recorder: recorder,
			})
			return server.Start()
		},
	}
}
