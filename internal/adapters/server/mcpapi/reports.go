package mcpapi

import (
	"context"

	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// registerReportTools registers read-only report tools.
func registerReportTools(srv *mcpserver.MCPServer, service common.ReportingService) {
	srv.AddTool(
		mcp.NewTool(
			"csrpulse.list_reports",
			append([]mcp.ToolOption{
				mcp.WithDescription("List reports newest first."),
				mcp.WithString("status", mcp.Description("Filter by workflow status"), mcp.Enum("draft", "review", "approved", "published")),
				mcp.WithString("type", mcp.Description("Filter by report type")),
			}, scopeOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			reports, err := service.ListReports(ctx, common.ListReportsRequest{
				Status:       req.GetString("status", ""),
				Type:         req.GetString("type", ""),
				ScopeRequest: scopeFromRequest(req),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("list_reports", map[string]any{"reports": reports})
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"csrpulse.get_report",
			mcp.WithDescription("Return one report with its current metrics snapshot. Counts as a view."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Report id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			view, err := service.GetReport(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("get_report", view)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"csrpulse.report_metrics_history",
			mcp.WithDescription("List every metrics snapshot recorded for one report, newest first."),
			mcp.WithString("id", mcp.Required(), mcp.Description("Report id")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := req.RequireString("id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			snaps, err := service.ReportMetricsHistory(ctx, id)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("report_metrics_history", map[string]any{"snapshots": snaps})
		},
	)
}
