package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/trendline/internal/mcpserver"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Start MCP (Model Context Protocol) server for LLM tool integration",
		Description: `Starts an MCP server over stdio transport that exposes trendline datasets
as tools that LLMs can invoke.

To use with an MCP client, add to its config:
  {
    "mcpServers": {
      "trendline": {
        "command": "trendline",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - trend_dataset     Dataset of one job per build or per day
  - trend_aggregate   Daily totals across several jobs
  - graph_check       Validate a serialized graph configuration`,
		Action: runMCPCmd,
		Subcommands: []*cli.Command{
			{
				Name:   "manifest",
				Usage:  "Print the MCP server manifest (server.json)",
				Action: runMCPManifestCmd,
			},
		},
	}
}

func runMCPCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	svc, err := newService(c, cfg, false)
	if err != nil {
		return err
	}
	server := mcpserver.NewServer(version, svc)
	return server.Run(commandContext(c, cfg))
}

func runMCPManifestCmd(c *cli.Context) error {
	data, err := mcpserver.GenerateManifest(version)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(data))
	return nil
}
