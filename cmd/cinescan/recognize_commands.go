package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cinescan/internal/api"
	"cinescan/internal/config"
	"cinescan/internal/identification"
)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mov":  {},
	".mkv":  {},
	".avi":  {},
	".webm": {},
	".m4v":  {},
}

func newIdentifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "identify <image-or-video>",
		Short: "Identify the movie in a poster, still or video clip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, data, err := readInputFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *identification.Service) error {
				var result *identification.Result
				if isVideo(path) {
					result, err = svc.RecognizeVideo(cmd.Context(), data, filepath.Base(path))
				} else {
					result, err = svc.RecognizeImage(cmd.Context(), data)
				}
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, result)
			})
		},
	}
}

func newListenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listen <audio>",
		Short: "Identify a movie from its soundtrack",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, data, err := readInputFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *identification.Service) error {
				result, err := svc.RecognizeAudio(cmd.Context(), data)
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, result)
			})
		},
	}
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <title...>",
		Short: "Look a movie up by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return ctx.withService(func(svc *identification.Service) error {
				result, err := svc.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				return printResult(cmd, ctx, result)
			})
		},
	}
}

func readInputFile(arg string) (string, []byte, error) {
	path, err := config.ExpandPath(strings.TrimSpace(arg))
	if err != nil {
		return "", nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("inspect %q: %w", path, err)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("%q is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read %q: %w", path, err)
	}
	return path, data, nil
}

func isVideo(path string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

func printResult(cmd *cobra.Command, ctx *commandContext, result *identification.Result) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, api.FromResult(result))
	}
	out := cmd.OutOrStdout()
	if result.Song != nil {
		fmt.Fprintf(out, "Song: %s - %s\n", result.Song.Title, result.Song.Artist)
	}
	if !result.Success || result.Movie == nil {
		fmt.Fprintf(out, "No match: %s\n", result.Error)
		if len(result.Candidates) > 0 {
			fmt.Fprintln(out, renderCandidates(cmd, result))
		}
		return nil
	}

	movie := result.Movie
	rows := [][]string{
		{"Title", movie.Title},
		{"Year", movie.Year},
		{"Matched by", sourceLabel(result.Source)},
	}
	if result.Query != "" && result.Query != movie.Title {
		rows = append(rows, []string{"Query", result.Query})
	}
	if movie.Runtime > 0 {
		rows = append(rows, []string{"Runtime", fmt.Sprintf("%d min", movie.Runtime)})
	}
	if len(movie.Genres) > 0 {
		rows = append(rows, []string{"Genres", strings.Join(movie.Genres, ", ")})
	}
	if len(movie.Directors) > 0 {
		rows = append(rows, []string{"Directed by", strings.Join(movie.Directors, ", ")})
	}
	if len(movie.Cast) > 0 {
		names := make([]string, 0, min(len(movie.Cast), 5))
		for _, member := range movie.Cast[:min(len(movie.Cast), 5)] {
			names = append(names, member.Name)
		}
		rows = append(rows, []string{"Starring", strings.Join(names, ", ")})
	}
	if movie.VoteAverage > 0 {
		rows = append(rows, []string{"Rating", strconv.FormatFloat(movie.VoteAverage, 'f', 1, 64)})
	}
	rows = append(rows, []string{"TMDB ID", strconv.FormatInt(movie.ID, 10)})
	fmt.Fprintln(out, renderTable(out, []string{"Field", "Value"}, rows, nil))
	if movie.Overview != "" {
		fmt.Fprintln(out, movie.Overview)
	}
	return nil
}

func renderCandidates(cmd *cobra.Command, result *identification.Result) string {
	rows := make([][]string, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		rows = append(rows, []string{
			candidate.Query,
			candidate.MatchedTitle,
			strconv.Itoa(candidate.MatchScore),
			strconv.FormatFloat(candidate.EntityScore, 'f', 2, 64),
		})
	}
	return renderTable(cmd.OutOrStdout(),
		[]string{"Entity", "Matched Title", "Score", "Entity Score"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
	)
}

// sourceLabel turns "web_entity" into "Web Entity".
func sourceLabel(source string) string {
	if source == "" {
		return "-"
	}
	return cases.Title(language.English).String(strings.ReplaceAll(source, "_", " "))
}
