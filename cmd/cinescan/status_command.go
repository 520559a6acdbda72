package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cinescan/internal/api"
	"cinescan/internal/config"
	"cinescan/internal/identification"
	"cinescan/internal/preflight"
	"cinescan/internal/tmdb"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show configured services, binaries and history totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *identification.Service) error {
				status := api.FromStatus(svc.Status(cmd.Context()), version)
				if check {
					results, err := runPreflight(cmd.Context(), cfg)
					if err != nil {
						return err
					}
					status.Checks = api.FromChecks(results)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, status)
				}
				out := cmd.OutOrStdout()
				for _, line := range statusLines(cfg, ctx.configPath, status, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Probe directories and the TMDB API")
	return cmd
}

func runPreflight(ctx context.Context, cfg *config.Config) ([]preflight.Result, error) {
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, err
	}
	return preflight.RunAll(ctx, cfg, client), nil
}

func statusLines(cfg *config.Config, configPath string, status api.ServiceStatus, colorize bool) []string {
	lines := renderSectionHeader("Services", colorize)
	lines = append(lines, renderStatusLine("TMDB", statusOK, breakerMessage(status.TitleBreaker), colorize))
	lines = append(lines, configuredLine("Google Vision", status.VisionConfigured, "image and video recognition", colorize))
	lines = append(lines, configuredLine("AudD", status.AudDConfigured, "audio recognition", colorize))

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Binaries", colorize)...)
	for _, binary := range status.Binaries {
		kind := statusOK
		message := binary.Command
		if !binary.Available {
			kind = statusError
			if binary.Optional {
				kind = statusWarn
			}
			message = binary.Detail
		}
		lines = append(lines, renderStatusLine(binary.Name, kind, message, colorize))
	}

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Storage", colorize)...)
	lines = append(lines, renderStatusLine("Config", statusInfo, configPath, colorize))
	switch {
	case status.HistoryError != "":
		lines = append(lines, renderStatusLine("History", statusError, status.HistoryError, colorize))
	case status.History != nil:
		message := fmt.Sprintf("%d recorded, %d identified (%s)", status.History.Total, status.History.Succeeded, cfg.HistoryPath())
		lines = append(lines, renderStatusLine("History", statusOK, message, colorize))
	default:
		lines = append(lines, renderStatusLine("History", statusInfo, "disabled", colorize))
	}
	lines = append(lines, renderStatusLine("API auth", statusInfo, "token required: "+yesNo(cfg.Server.APIToken != ""), colorize))

	if len(status.Checks) > 0 {
		lines = append(lines, "")
		lines = append(lines, renderSectionHeader("Checks", colorize)...)
		for _, check := range status.Checks {
			kind := statusOK
			if !check.Passed {
				kind = statusError
			}
			lines = append(lines, renderStatusLine(check.Name, kind, check.Detail, colorize))
		}
	}
	return lines
}

func configuredLine(label string, configured bool, feature string, colorize bool) string {
	if configured {
		return renderStatusLine(label, statusOK, "configured", colorize)
	}
	return renderStatusLine(label, statusWarn, "not configured; "+feature+" unavailable", colorize)
}

func breakerMessage(state string) string {
	state = strings.TrimSpace(state)
	if state == "" {
		return "configured"
	}
	return "configured, breaker " + state
}
