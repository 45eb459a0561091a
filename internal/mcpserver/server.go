// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the progress tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tagprogress/internal/apperr"
	"github.com/starford/tagprogress/internal/progress"
	"github.com/starford/tagprogress/internal/statservice"
)

// ConventionsURI is the resource URI of the tag conventions document.
const ConventionsURI = "tagprogress://tag-conventions"

// Server wraps the MCP server with the progress tools.
type Server struct {
	mcp *server.MCPServer
	svc *statservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *statservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"tagprogress",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_overview",
		mcp.WithDescription("Compute learning progress per EDN item, SDD situation or subject tag, "+
			"sorted from least to most mastered. Read the tag conventions first via "+
			"get_tag_conventions or the "+ConventionsURI+" resource."),
		mcp.WithString("mode", mcp.Enum("items", "sdd", "subject"), mcp.Description("Which family of tags to report (default items)")),
		mcp.WithString("only_rang", mcp.Description("Keep only notes tagged rang::<value> (e.g. A)")),
		mcp.WithString("exclude_rang", mcp.Description("Drop notes tagged rang::<value>")),
		mcp.WithBoolean("include_children", mcp.Description("Also list child tags as separate units")),
		mcp.WithArray("subject_filter", mcp.WithStringItems(), mcp.Description("Only count notes under these subject tags")),
		mcp.WithNumber("limit", mcp.Description("Return at most this many units (0 for all)")),
	), s.getOverview)

	s.mcp.AddTool(mcp.NewTool("get_tag_stats",
		mcp.WithDescription("Statistics of one arbitrary tag and its descendants, without suspension or overlap masking."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Full tag, e.g. EDN::item-001-Alpha")),
	), s.getTagStats)

	s.mcp.AddTool(mcp.NewTool("search_tags",
		mcp.WithDescription("Search item, SDD and Matière:: tags. Every whitespace-separated term must appear."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search terms")),
		mcp.WithNumber("limit", mcp.Description("Max results (default 50)")),
	), s.searchTags)

	s.mcp.AddTool(mcp.NewTool("list_subjects",
		mcp.WithDescription("List the subject tags usable as subject_filter."),
	), s.listSubjects)

	s.mcp.AddTool(mcp.NewTool("get_tag_conventions",
		mcp.WithDescription("Returns how EDN item, SDD, rank and subject tags are named and interpreted."),
	), s.getTagConventions)

	s.mcp.AddResource(
		mcp.NewResource(ConventionsURI, "Tag Conventions",
			mcp.WithResourceDescription("Tag naming rules the progress statistics rely on."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := s.svc.Defaults()
	if mode := req.GetString("mode", ""); mode != "" {
		opts.Mode = progress.Mode(mode)
	}
	opts.OnlyRang = req.GetString("only_rang", opts.OnlyRang)
	opts.ExcludeRang = req.GetString("exclude_rang", opts.ExcludeRang)
	opts.IncludeChildren = req.GetBool("include_children", opts.IncludeChildren)
	opts.SubjectFilter = req.GetStringSlice("subject_filter", opts.SubjectFilter)

	ov, err := s.svc.Overview(ctx, opts)
	if err != nil {
		return toolError(err), nil
	}
	if limit := req.GetInt("limit", 0); limit > 0 && len(ov.Items) > limit {
		ov.Items = ov.Items[:limit]
	}
	return jsonResult(ov)
}

func (s *Server) getTagStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	u, err := s.svc.TagStats(ctx, tag, s.svc.Defaults())
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(u)
}

func (s *Server) searchTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags, err := s.svc.SearchTags(ctx, query, req.GetInt("limit", 50))
	if err != nil {
		return toolError(err), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	return mcp.NewToolResultText(strings.Join(tags, "\n")), nil
}

func (s *Server) listSubjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	subjects, err := s.svc.Subjects(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(strings.Join(subjects, "\n")), nil
}

func (s *Server) getTagConventions(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TagConventions), nil
}

func (s *Server) readConventionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ConventionsURI,
			MIMEType: "text/markdown",
			Text:     TagConventions,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("mcpserver: marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("no notes carry this tag")
	}
	return mcp.NewToolResultError(err.Error())
}
