package main

import (
	"fmt"
	"strconv"

	"github.com/hylla/csrpulse/internal/adapters/server"
	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/hylla/csrpulse/internal/app"
	"github.com/spf13/cobra"
)

// scopeFlags binds --program and --department onto one scope request.
func scopeFlags(cmd *cobra.Command, scope *common.ScopeRequest) {
	cmd.Flags().StringVar(&scope.ProgramID, "program", "", "limit to one program id")
	cmd.Flags().StringVar(&scope.DepartmentID, "department", "", "limit to one department id")
}

// serveCommand runs the REST and MCP surfaces until interrupted.
func (c *cli) serveCommand() *cobra.Command {
	var bind, timeout string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			serverCfg := c.cfg.Server
			if bind != "" {
				serverCfg.HTTPBind = bind
			}
			if timeout != "" {
				serverCfg.RequestTimeout = timeout
			}
			requestTimeout, err := serverCfg.Timeout()
			if err != nil {
				return err
			}
			c.logger.Info("serving", "bind", serverCfg.HTTPBind, "api", serverCfg.APIEndpoint, "mcp", serverCfg.MCPEndpoint, "timeout", requestTimeout)
			err = server.Run(cmd.Context(), server.Config{
				HTTPBind:       serverCfg.HTTPBind,
				APIEndpoint:    serverCfg.APIEndpoint,
				MCPEndpoint:    serverCfg.MCPEndpoint,
				ServerName:     c.flags.appName,
				ServerVersion:  version,
				RequestTimeout: requestTimeout,
			}, server.Dependencies{
				Service: c.api,
				Logger:  c.logger.Component("http"),
			})
			if err != nil {
				c.logger.Error("server stopped", "err", err)
				return err
			}
			c.logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "listen address, overrides server.http_bind")
	cmd.Flags().StringVar(&timeout, "timeout", "", "per-request timeout, overrides server.request_timeout")
	return cmd
}

// periodCommand resolves one period token.
func (c *cli) periodCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "period [token]",
		Short: "Resolve a period token into its date range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := ""
			if len(args) == 1 {
				token = args[0]
			}
			res, err := c.api.ResolvePeriod(cmd.Context(), token)
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeTable(cmd.OutOrStdout(), []string{"Period", "Label", "Kind", "Start", "End", "Previous"}, [][]string{{
				res.Token, res.Label, string(res.Kind), day(res.Start), day(res.End), res.Previous,
			}})
		},
	}
}

// metricsCommand prints the metrics bundle for one period.
func (c *cli) metricsCommand() *cobra.Command {
	var req common.MetricsRequest
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Calculate metrics for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.api.Metrics(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s to %s)\n", res.Period.Label, day(res.Period.Start), day(res.Period.End))
			return writeTable(cmd.OutOrStdout(), []string{"Metric", "Value"}, metricsRows(res.Metrics))
		},
	}
	cmd.Flags().StringVar(&req.Period, "period", "", "period token, defaults to the current month")
	scopeFlags(cmd, &req.ScopeRequest)
	return cmd
}

// compareCommand compares two periods side by side.
func (c *cli) compareCommand() *cobra.Command {
	var scope common.ScopeRequest
	cmd := &cobra.Command{
		Use:   "compare <period1> <period2>",
		Short: "Compare metrics between two periods",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.api.Compare(cmd.Context(), common.CompareRequest{Period1: args[0], Period2: args[1], ScopeRequest: scope})
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeTable(cmd.OutOrStdout(), []string{"Metric", res.Period1.Label, res.Period2.Label, "Change"}, comparisonRows(res))
		},
	}
	scopeFlags(cmd, &scope)
	return cmd
}

func comparisonRows(res app.PeriodComparison) [][]string {
	m1, m2, d := res.Period1.Metrics, res.Period2.Metrics, res.Comparison
	return [][]string{
		{"Budget used", money(m1.BudgetUsed), money(m2.BudgetUsed), pct(d.BudgetChange)},
		{"Programs", count(m1.TotalPrograms), count(m2.TotalPrograms), pct(d.ProgramsChange)},
		{"Activities", count(m1.TotalActivities), count(m2.TotalActivities), pct(d.ActivitiesChange)},
		{"Beneficiaries", count(m1.TotalBeneficiaries), count(m2.TotalBeneficiaries), pct(d.BeneficiariesChange)},
		{"Overall impact", pct(m1.OverallImpact), pct(m2.OverallImpact), pct(d.ImpactChange)},
	}
}

// trendCommand prints one bucketed metric series.
func (c *cli) trendCommand() *cobra.Command {
	var req common.TrendRequest
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Generate a trend series for one metric",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.api.Trend(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			rows := make([][]string, 0, len(res.Series))
			for _, p := range res.Series {
				rows = append(rows, []string{p.Period, day(p.StartDate), day(p.EndDate.AddDate(0, 0, -1)), strconv.FormatFloat(p.Value, 'f', -1, 64)})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s by %s, %s to %s\n", res.Metric, res.GroupBy, res.StartDate, res.EndDate)
			return writeTable(cmd.OutOrStdout(), []string{"Bucket", "Start", "End", "Value"}, rows)
		},
	}
	cmd.Flags().StringVar(&req.Metric, "metric", string(app.TrendMetricBudget), "budget, activities or beneficiaries")
	cmd.Flags().StringVar(&req.GroupBy, "group-by", string(app.TrendGroupMonth), "month, quarter or year")
	cmd.Flags().StringVar(&req.Period, "period", "", "period token bounding the series")
	cmd.Flags().StringVar(&req.StartDate, "start", "", "start date (YYYY-MM-DD), overrides the period start")
	cmd.Flags().StringVar(&req.EndDate, "end", "", "end date (YYYY-MM-DD), overrides the period end")
	scopeFlags(cmd, &req.ScopeRequest)
	return cmd
}

// analyticsCommand prints the dashboard overview.
func (c *cli) analyticsCommand() *cobra.Command {
	var req common.AnalyticsRequest
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Build the analytics dashboard for a period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.api.Analytics(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			o := res.Overview
			_, _ = fmt.Fprintf(out, "%s against %s\n", o.Period.Label, o.PreviousPeriod.Label)
			if err := writeTable(out, []string{"Overview", "Value", "Growth"}, [][]string{
				{"Budget used", money(o.Metrics.BudgetUsed), pct(o.Growth.Budget)},
				{"Programs", count(o.Metrics.TotalPrograms), pct(o.Growth.Programs)},
				{"Activities", count(o.Metrics.TotalActivities), pct(o.Growth.Activities)},
				{"Beneficiaries", count(o.Metrics.TotalBeneficiaries), pct(o.Growth.Beneficiaries)},
			}); err != nil {
				return err
			}
			top := make([][]string, 0, len(res.TopPrograms))
			for _, p := range res.TopPrograms {
				top = append(top, []string{p.Name, money(p.Budget), money(p.Spent), pct(p.Percentage)})
			}
			if len(top) > 0 {
				if err := writeTable(out, []string{"Top program", "Budget", "Spent", "Used"}, top); err != nil {
					return err
				}
			}
			if res.Comparison != nil {
				return writeTable(out, []string{"Metric", res.Comparison.Period1.Label, res.Comparison.Period2.Label, "Change"}, comparisonRows(*res.Comparison))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Period, "period", "", "period token, defaults to the current month")
	cmd.Flags().StringVar(&req.Compare, "compare", "", "optional period token to compare against")
	scopeFlags(cmd, &req.ScopeRequest)
	return cmd
}
