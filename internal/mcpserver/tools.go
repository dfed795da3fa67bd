package mcpserver

import (
	"bytes"
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/panbanda/trendline/internal/output"
	"github.com/panbanda/trendline/pkg/history"
)

// JobInput locates the run history of one job.
type JobInput struct {
	Path       string `json:"path" jsonschema:"Build record directory or git repository of the job. With source git, owner/repo@ref or a git URL reads a remote repository."`
	Source     string `json:"source,omitempty" jsonschema:"History source: dir or git. Defaults to the configured source."`
	Job        string `json:"job,omitempty" jsonschema:"Job name. Defaults to the base name of the path."`
	ResultFile string `json:"result_file,omitempty" jsonschema:"Result file read from each git commit. Default analysis.json."`
	Ref        string `json:"ref,omitempty" jsonschema:"Git revision to walk from. Defaults to HEAD."`
}

func (j JobInput) spec() history.Spec {
	return history.Spec{
		Source:     history.Source(j.Source),
		Path:       j.Path,
		Job:        j.Job,
		ResultFile: j.ResultFile,
		Ref:        j.Ref,
	}
}

// DatasetInput selects a job and the graph to build for it.
type DatasetInput struct {
	JobInput
	Graph  string `json:"graph,omitempty" jsonschema:"Serialized graph configuration width!height!buildCount!dayCount!graphType!useBuildDate!parameterName!parameterValue. Defaults to the configured graph."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

// AggregateInput selects several jobs to combine.
type AggregateInput struct {
	Jobs   []JobInput `json:"jobs" jsonschema:"Jobs whose per-day series are summed."`
	Graph  string     `json:"graph,omitempty" jsonschema:"Serialized graph configuration. Defaults to the configured graph."`
	Format string     `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

// GraphCheckInput is a serialized graph configuration to validate.
type GraphCheckInput struct {
	Value  string `json:"value" jsonschema:"Serialized graph configuration to validate."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, yaml, or markdown."`
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "yaml", "yml":
		return output.FormatYAML
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var buf bytes.Buffer
	if err := output.NewWriterFormatter(format, &buf, false).Output(data); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// Tool handlers

func (s *Server) handleDataset(ctx context.Context, req *mcp.CallToolRequest, input DatasetInput) (*mcp.CallToolResult, any, error) {
	if input.Path == "" {
		return toolError("path is required")
	}

	res, err := s.svc.Dataset(ctx, input.spec(), input.Graph)
	if err != nil {
		return toolError(err.Error())
	}
	view := output.NewDatasetView(res.Title(), res.Graph.Serialize(), res.Dataset, res.Stats)
	return toolResult(view, getFormat(input.Format))
}

func (s *Server) handleAggregate(ctx context.Context, req *mcp.CallToolRequest, input AggregateInput) (*mcp.CallToolResult, any, error) {
	if len(input.Jobs) == 0 {
		return toolError("at least one job is required")
	}

	specs := make([]history.Spec, 0, len(input.Jobs))
	for _, j := range input.Jobs {
		if j.Path == "" {
			return toolError("every job needs a path")
		}
		specs = append(specs, j.spec())
	}

	res, err := s.svc.Aggregate(ctx, specs, input.Graph)
	if err != nil {
		return toolError(err.Error())
	}
	view := output.NewDatasetView(res.Title(), res.Graph.Serialize(), res.Dataset, res.Stats)
	return toolResult(view, getFormat(input.Format))
}

func (s *Server) handleGraphCheck(ctx context.Context, req *mcp.CallToolRequest, input GraphCheckInput) (*mcp.CallToolResult, any, error) {
	return toolResult(s.svc.CheckReport(input.Value), getFormat(input.Format))
}
