// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the period, analytics, and report tools.
func NewHandler(cfg Config, service common.ReportingService) (*Handler, error) {
	if service == nil {
		return nil, fmt.Errorf("reporting service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerAnalyticsTools(mcpSrv, service)
	registerReportTools(mcpSrv, service)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "csrpulse"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// scopeOptions declares the shared program/department scope arguments.
func scopeOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("program_id", mcp.Description("Restrict to one program")),
		mcp.WithString("department_id", mcp.Description("Restrict to one department (ignored when program_id is set)")),
	}
}

func scopeFromRequest(req mcp.CallToolRequest) common.ScopeRequest {
	return common.ScopeRequest{
		ProgramID:    strings.TrimSpace(req.GetString("program_id", "")),
		DepartmentID: strings.TrimSpace(req.GetString("department_id", "")),
	}
}

// registerAnalyticsTools registers period resolution, metrics, comparison, trend, and dashboard tools.
func registerAnalyticsTools(srv *mcpserver.MCPServer, service common.ReportingService) {
	srv.AddTool(
		mcp.NewTool(
			"csrpulse.resolve_period",
			mcp.WithDescription("Resolve a period token (Q1-2024, 2024, Jan-2024) into its date range and predecessor."),
			mcp.WithString("period", mcp.Required(), mcp.Description("Period token; unknown tokens resolve to the current month")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			period, err := req.RequireString("period")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := service.ResolvePeriod(ctx, period)
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("resolve_period", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"csrpulse.calculate_metrics",
			append([]mcp.ToolOption{
				mcp.WithDescription("Calculate budget, program, activity, stakeholder, and impact metrics for one period."),
				mcp.WithString("period", mcp.Description("Period token (defaults to the current month)")),
			}, scopeOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := service.Metrics(ctx, common.MetricsRequest{
				Period:       req.GetString("period", ""),
				ScopeRequest: scopeFromRequest(req),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("calculate_metrics", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"csrpulse.compare_periods",
			append([]mcp.ToolOption{
				mcp.WithDescription("Compare metrics of period1 against period2 with percent deltas."),
				mcp.WithString("period1", mcp.Required(), mcp.Description("Current period token")),
				mcp.WithString("period2", mcp.Required(), mcp.Description("Baseline period token")),
			}, scopeOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			period1, err := req.RequireString("period1")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			period2, err := req.RequireString("period2")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := service.Compare(ctx, common.CompareRequest{
				Period1:      period1,
				Period2:      period2,
				ScopeRequest: scopeFromRequest(req),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("compare_periods", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"csrpulse.trend_series",
			append([]mcp.ToolOption{
				mcp.WithDescription("Generate a chronological metric series bucketed by month, quarter, or year."),
				mcp.WithString("metric", mcp.Required(), mcp.Description("Series metric"), mcp.Enum("budget", "activities", "beneficiaries")),
				mcp.WithString("group_by", mcp.Description("Bucket size"), mcp.Enum("month", "quarter", "year")),
				mcp.WithString("start_date", mcp.Description("Inclusive start (YYYY-MM-DD); overrides the period start")),
				mcp.WithString("end_date", mcp.Description("Inclusive end (YYYY-MM-DD); overrides the period end")),
				mcp.WithString("period", mcp.Description("Period token supplying default bounds")),
			}, scopeOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			metric, err := req.RequireString("metric")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := service.Trend(ctx, common.TrendRequest{
				Metric:       metric,
				GroupBy:      req.GetString("group_by", ""),
				StartDate:    strings.TrimSpace(req.GetString("start_date", "")),
				EndDate:      strings.TrimSpace(req.GetString("end_date", "")),
				Period:       req.GetString("period", ""),
				ScopeRequest: scopeFromRequest(req),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("trend_series", out)
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"csrpulse.analytics",
			append([]mcp.ToolOption{
				mcp.WithDescription("Return the analytics dashboard: overview, budget trend, distributions, and top programs."),
				mcp.WithString("period", mcp.Description("Period token (defaults to the current month)")),
				mcp.WithString("compare", mcp.Description("Optional period token to compare against")),
			}, scopeOptions()...)...,
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := service.Analytics(ctx, common.AnalyticsRequest{
				Period:       req.GetString("period", ""),
				Compare:      req.GetString("compare", ""),
				ScopeRequest: scopeFromRequest(req),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			return jsonResult("analytics", out)
		},
	)
}

// jsonResult encodes one structured tool result.
func jsonResult(tool string, v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s result: %w", tool, err)
	}
	return result, nil
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrConflict):
		return mcp.NewToolResultError("conflict: " + err.Error())
	case errors.Is(err, common.ErrUnavailable):
		return mcp.NewToolResultError("service_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
