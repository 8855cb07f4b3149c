package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/atotto/clipboard"
	"github.com/hylla/csrpulse/internal/adapters/server/common"
	"github.com/hylla/csrpulse/internal/app"
	"github.com/hylla/csrpulse/internal/domain"
	"github.com/spf13/cobra"
)

// copyToClipboard is swapped in tests.
var copyToClipboard = clipboard.WriteAll

// reportCommand groups the report lifecycle subcommands.
func (c *cli) reportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "report",
		Aliases: []string{"reports"},
		Short:   "Create, inspect and export reports",
	}
	cmd.AddCommand(
		c.reportCreateCommand(),
		c.reportListCommand(),
		c.reportShowCommand(),
		c.reportUpdateCommand(),
		c.reportRegenerateCommand(),
		c.reportDeleteCommand(),
		c.reportHistoryCommand(),
		c.reportExportCommand(),
	)
	return cmd
}

func (c *cli) reportCreateCommand() *cobra.Command {
	var req common.CreateReportRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate and store a new report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.Type == "" {
				req.Type = c.cfg.Reports.DefaultType
			}
			report, err := c.api.CreateReport(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.logger.Info("report created", "id", report.ID, "period", report.Period, "type", report.Type)
			return c.printReport(cmd, report)
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "report title")
	f.StringVar(&req.Description, "description", "", "report description")
	f.StringVar(&req.Type, "type", "", "report type, defaults to reports.default_type")
	f.StringVar(&req.Period, "period", "", "period token")
	f.StringVar(&req.StartDate, "start", "", "start date (YYYY-MM-DD), overrides the period start")
	f.StringVar(&req.EndDate, "end", "", "end date (YYYY-MM-DD), overrides the period end")
	f.StringVar(&req.ProgramID, "program", "", "limit to one program id")
	f.StringVar(&req.DepartmentID, "department", "", "limit to one department id")
	f.StringVar(&req.Template, "template", "", "template name")
	f.StringSliceVar(&req.Tags, "tag", nil, "tag, repeatable")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("period")
	return cmd
}

func (c *cli) reportListCommand() *cobra.Command {
	var req common.ListReportsRequest
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, err := c.api.ListReports(cmd.Context(), req)
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			if len(reports) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no reports")
				return err
			}
			return writeTable(cmd.OutOrStdout(), []string{"ID", "Title", "Type", "Status", "Period", "Version", "Updated"}, reportRows(reports, c.now()))
		},
	}
	cmd.Flags().StringVar(&req.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&req.Type, "type", "", "filter by type")
	scopeFlags(cmd, &req.ScopeRequest)
	return cmd
}

func (c *cli) reportShowCommand() *cobra.Command {
	var render, peek bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				view app.ReportView
				err  error
			)
			if peek {
				view, err = c.svc.PeekReport(cmd.Context(), args[0])
			} else {
				view, err = c.api.GetReport(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}
			if render {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), renderMarkdown(reportMarkdown(view.Report)))
				return err
			}
			return writeJSON(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().BoolVar(&render, "render", false, "render the report as styled markdown")
	cmd.Flags().BoolVar(&peek, "peek", false, "do not count this as a view")
	return cmd
}

func (c *cli) reportUpdateCommand() *cobra.Command {
	var (
		title, description, status, period string
		startDate, endDate, template       string
		tags                               []string
		regenerate                         bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update report metadata or workflow status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			req := common.UpdateReportRequest{ID: args[0], RegenerateContent: regenerate}
			if f.Changed("title") {
				req.Title = &title
			}
			if f.Changed("description") {
				req.Description = &description
			}
			if f.Changed("status") {
				req.Status = &status
			}
			if f.Changed("period") {
				req.Period = &period
			}
			if f.Changed("start") {
				req.StartDate = &startDate
			}
			if f.Changed("end") {
				req.EndDate = &endDate
			}
			if f.Changed("template") {
				req.Template = &template
			}
			if f.Changed("tag") {
				req.Tags = &tags
			}
			report, err := c.api.UpdateReport(cmd.Context(), req)
			if err != nil {
				return err
			}
			c.logger.Info("report updated", "id", report.ID, "status", report.Status, "version", report.Version)
			return c.printReport(cmd, report)
		},
	}
	f := cmd.Flags()
	f.StringVar(&title, "title", "", "new title")
	f.StringVar(&description, "description", "", "new description")
	f.StringVar(&status, "status", "", "draft, review, approved or published")
	f.StringVar(&period, "period", "", "new period token")
	f.StringVar(&startDate, "start", "", "new start date (YYYY-MM-DD)")
	f.StringVar(&endDate, "end", "", "new end date (YYYY-MM-DD)")
	f.StringVar(&template, "template", "", "new template name")
	f.StringSliceVar(&tags, "tag", nil, "replacement tags, repeatable")
	f.BoolVar(&regenerate, "regenerate", false, "regenerate content and metrics")
	return cmd
}

func (c *cli) reportRegenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <id>",
		Short: "Recompute report content and metrics as a new version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := c.api.UpdateReport(cmd.Context(), common.UpdateReportRequest{ID: args[0], RegenerateContent: true})
			if err != nil {
				return err
			}
			c.logger.Info("report regenerated", "id", report.ID, "version", report.Version)
			return c.printReport(cmd, report)
		},
	}
}

func (c *cli) reportDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a report and its metrics history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.api.DeleteReport(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.logger.Info("report deleted", "id", args[0])
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func (c *cli) reportHistoryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "List metrics snapshots, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshots, err := c.api.ReportMetricsHistory(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.flags.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), snapshots)
			}
			rows := make([][]string, 0, len(snapshots))
			for _, s := range snapshots {
				rows = append(rows, []string{
					strconv.Itoa(s.ReportVersion),
					s.CreatedAt.Format("2006-01-02 15:04"),
					money(s.Metrics.BudgetUsed),
					count(s.Metrics.TotalActivities),
					count(s.Metrics.TotalBeneficiaries),
					pct(s.Metrics.OverallImpact),
				})
			}
			return writeTable(cmd.OutOrStdout(), []string{"Version", "Created", "Budget used", "Activities", "Beneficiaries", "Impact"}, rows)
		},
	}
}

func (c *cli) reportExportCommand() *cobra.Command {
	var (
		format, out string
		copyText    bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a report as json, csv, excel or yaml",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			export, err := c.api.ExportReport(cmd.Context(), common.ExportRequest{ID: args[0], Format: format})
			if err != nil {
				return err
			}
			if copyText {
				if !export.IsText() {
					return errors.New("--copy needs a text format")
				}
				if err := copyToClipboard(string(export.Body)); err != nil {
					return fmt.Errorf("copy export to clipboard: %w", err)
				}
			}
			if out == "" && !export.IsText() {
				out = filepath.Join(c.paths.ExportDir, export.Filename)
			}
			if out == "" || out == "-" {
				if copyText {
					return nil
				}
				_, err := cmd.OutOrStdout().Write(export.Body)
				return err
			}
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create export output dir: %w", err)
				}
			}
			if err := os.WriteFile(out, export.Body, 0o644); err != nil {
				return fmt.Errorf("write export file: %w", err)
			}
			c.logger.Info("report exported", "id", args[0], "format", export.Format, "path", out, "bytes", len(export.Body))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", string(app.ExportFormatJSON), "json, csv, excel or yaml")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file ('-' for stdout), excel defaults to the data exports dir")
	cmd.Flags().BoolVar(&copyText, "copy", false, "copy the export to the clipboard")
	return cmd
}

// printReport prints a report summary row or its JSON.
func (c *cli) printReport(cmd *cobra.Command, report domain.Report) error {
	if c.flags.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	return writeTable(cmd.OutOrStdout(), []string{"ID", "Title", "Type", "Status", "Period", "Version", "Updated"}, reportRows([]domain.Report{report}, c.now()))
}
