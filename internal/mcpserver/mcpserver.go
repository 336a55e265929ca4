// Package mcpserver exposes the analysis catalogue over the Model Context
// Protocol, one tool per operation, so LLM agents can analyze UVL models
// through stdio. Results are the same JSON values the HTTP API returns.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/uvlkit/uvlkit/pkg/buildinfo"
	"github.com/uvlkit/uvlkit/pkg/catalog"
	"github.com/uvlkit/uvlkit/pkg/errors"
)

// Server wraps a catalog.Runner behind an MCP stdio server.
type Server struct {
	runner *catalog.Runner
	logger *log.Logger
	srv    *server.MCPServer
}

// tool describes one catalogue operation as an MCP tool: its description
// plus which extra parameters it takes beyond the model text.
type tool struct {
	op   catalog.Operation
	desc string

	feature   bool // named feature parameter
	selection bool // comma-separated selected features
	criteria  bool // comma-separated criteria, "!" prefix deselects
	count     bool // sample size
}

var tools = []tool{
	{op: catalog.OpAtomicSets, desc: "This operation identifies atomic sets in a feature model. An atomic set is a group of features that always appear together across all configurations of the model. These sets help in simplifying and reducing the complexity of the model by grouping features that behave as a single unit."},
	{op: catalog.OpAverageBranchingFactor, desc: "This calculates the average number of child features per parent feature in the feature model. It provides insight into the complexity of the model."},
	{op: catalog.OpCommonality, desc: "Measures how often a feature appears in the configurations of a product line, usually expressed as a percentage. Features with high commonality are core features.", feature: true},
	{op: catalog.OpConfigurations, desc: "Generates all possible valid configurations of a feature model. Each configuration represents a valid product that can be derived from the feature model."},
	{op: catalog.OpConfigurationsNumber, desc: "Returns the total number of valid configurations represented by the feature model."},
	{op: catalog.OpCoreFeatures, desc: "Identifies features that are present in all valid configurations of the feature model. These are mandatory features that cannot be excluded."},
	{op: catalog.OpCountLeafs, desc: "This operation counts the number of leaf features in a feature model. Leaf features are those that do not have any children."},
	{op: catalog.OpDeadFeatures, desc: "Identifies features that cannot be included in any valid product configuration due to constraints and dependencies in the model. These are typically indicative of errors in the feature model."},
	{op: catalog.OpEstimatedConfigurations, desc: "Provides an estimate of the total number of different configurations that can be produced from a feature model by considering all possible combinations of features."},
	{op: catalog.OpFalseOptionalFeatures, desc: "Identifies features that appear to be optional but, due to constraints and dependencies in the feature model, must be included in every valid product configuration. These features are typically indicative of modeling errors."},
	{op: catalog.OpFeatureAncestors, desc: "Identifies all ancestor features of a given feature in the feature model. Ancestors are features that are hierarchically above the given feature.", feature: true},
	{op: catalog.OpFilter, desc: "This operation filters and selects a subset of configurations based on specified criteria. It helps in narrowing down the possible configurations to those that meet certain requirements.", criteria: true},
	{op: catalog.OpHomogeneity, desc: "Measures how similar the configurations of the product line are to each other, as the mean fraction of configurations in which a pair of features has equal selection status."},
	{op: catalog.OpLeafFeatures, desc: "Identifies all leaf features in the feature model. Leaf features are those that do not have any child features and represent the most specific options in a product line."},
	{op: catalog.OpMaxDepth, desc: "This operation finds the maximum depth of the feature tree in the model, indicating the longest path from the root to a leaf."},
	{op: catalog.OpSampling, desc: "Returns a sample of valid configurations of the feature model. Sampling is deterministic: the same model and sample size always yield the same configurations.", count: true},
	{op: catalog.OpSatisfiability, desc: "Checks whether a given model is valid according to the constraints defined in the feature model."},
	{op: catalog.OpSatisfiableConfiguration, desc: "Checks whether a given selection of features forms a valid configuration of the feature model, with all unmentioned features treated as unselected.", selection: true},
	{op: catalog.OpUniqueFeatures, desc: "Identifies features whose selection status varies independently of every other feature, i.e. features forming an atomic set of size one."},
	{op: catalog.OpVariantFeatures, desc: "Identifies features that are neither core nor dead: they appear in some valid configurations but not in all of them."},
	{op: catalog.OpVariability, desc: "Returns the fraction of features that are variant, measuring how much of the model is actually configurable."},
}

// New assembles the MCP server with one tool per catalogue operation.
func New(runner *catalog.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner: runner,
		logger: logger,
		srv: server.NewMCPServer(
			"uvlkit",
			buildinfo.Version,
			server.WithToolCapabilities(true),
		),
	}

	for _, t := range tools {
		s.srv.AddTool(buildTool(t), s.handler(t))
	}
	return s
}

// buildTool declares the MCP tool schema for one operation.
func buildTool(t tool) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(t.desc),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("UVL (universal variability language) feature model content"),
		),
	}
	if t.feature {
		opts = append(opts, mcp.WithString("feature",
			mcp.Required(),
			mcp.Description("Name of the feature the operation applies to"),
		))
	}
	if t.selection {
		opts = append(opts, mcp.WithString("selection",
			mcp.Required(),
			mcp.Description("Comma-separated names of the selected features"),
		))
	}
	if t.criteria {
		opts = append(opts, mcp.WithString("criteria",
			mcp.Required(),
			mcp.Description("Comma-separated feature names; prefix a name with ! to require it unselected"),
		))
	}
	if t.count {
		opts = append(opts, mcp.WithNumber("count",
			mcp.Required(),
			mcp.Description("Number of configurations to sample"),
		))
	}
	return mcp.NewTool(string(t.op), opts...)
}

// handler adapts one operation to the MCP call contract. Engine errors are
// reported as tool errors, not protocol failures.
func (s *Server) handler(t tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := request.RequireString("content")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		req := catalog.Request{Operation: t.op, ModelText: content}
		if t.feature {
			if req.Feature, err = request.RequireString("feature"); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		if t.selection {
			raw, err := request.RequireString("selection")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			req.Selection = splitNames(raw)
		}
		if t.criteria {
			raw, err := request.RequireString("criteria")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if req.Criteria, err = catalog.ParseCriteria(raw); err != nil {
				return mcp.NewToolResultError(errors.UserMessage(err)), nil
			}
		}
		if t.count {
			n, err := request.RequireInt("count")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			req.Count = n
		}

		result, err := s.runner.Run(ctx, req)
		if err != nil {
			s.logger.Warn("tool call failed", "tool", t.op, "err", err)
			return mcp.NewToolResultError(errors.UserMessage(err)), nil
		}

		data, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// splitNames parses a comma-separated name list, dropping empty entries.
func splitNames(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ServeStdio runs the server over stdin/stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	s.logger.Info("serving MCP over stdio", "tools", len(tools))
	return server.ServeStdio(s.srv)
}
