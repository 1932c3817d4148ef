package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dgallion1/coursegest/internal/catalog"
	"github.com/dgallion1/coursegest/internal/course"
	"github.com/dgallion1/coursegest/internal/indexclient"
	"github.com/dgallion1/coursegest/internal/parser"
	"github.com/dgallion1/coursegest/internal/pipeline"
)

func ingestCmd(g *globalFlags) *cobra.Command {
	var (
		clearFirst bool
		out        string
	)

	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest every course document in a folder",
		Long: `Reads each supported file (.txt, .md, .html, .pdf, .docx) directly inside
dir, parses it into a course, and stores the course and its chunks.
Courses whose title is already stored are skipped. Per-document failures
are listed in the report and do not fail the command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			dir := a.cfg.DocsDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runIngest(cmd.Context(), a, dir, clearFirst, out, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&clearFirst, "clear", false, "Remove existing courses before ingesting")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Also write courses and chunks to this JSONL file")

	return cmd
}

func runIngest(ctx context.Context, a *app, dir string, clearFirst bool, out string, stdout io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat := catalog.New()
	var sinks pipeline.MultiSink
	if a.cfg.HasIndex() {
		ic := indexclient.NewClient(a.cfg.IndexURL, a.cfg.IndexAPIKey)
		defer ic.Close()
		sinks = append(sinks, ic)
	}
	if out != "" {
		f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return fmt.Errorf("open output: %w", err)
		}
		defer f.Close()
		sinks = append(sinks, pipeline.NewJSONLSink(f))
	}
	sinks = append(sinks, cat)

	a.log.Info("starting ingest", "dir", dir, "clear", clearFirst, "workers", a.cfg.WorkerCount)
	rep, err := a.orchestrator(sinks).IngestDir(ctx, dir, pipeline.BatchOptions{Clear: clearFirst})
	if rep == nil {
		return err
	}

	result := struct {
		Report    *pipeline.Report  `json:"report"`
		Analytics catalog.Analytics `json:"analytics"`
	}{rep, cat.Analytics()}
	if encErr := writeJSON(stdout, result); encErr != nil {
		return encErr
	}
	return err
}

func parseCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse one course document and print the course and its chunks as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			text, err := parser.ReadFile(args[0], a.readerOptions())
			if err != nil {
				return err
			}
			res, err := a.parser.Parse(args[0], text)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), struct {
				Course course.Course  `json:"course"`
				Chunks []course.Chunk `json:"chunks"`
			}{res.Course, res.Chunks})
		},
	}
}

func outlineCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "outline <file|dir> [course]",
		Short: "Print course outlines",
		Long: `Ingests a file or folder into memory and prints the outline of the named
course, or of every course when no name is given. The name may be any
case-insensitive part of a title.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}

			names := cat.Titles()
			if len(args) == 2 {
				names = []string{args[1]}
			}
			w := cmd.OutOrStdout()
			for i, name := range names {
				outline, ok := cat.Outline(name)
				if !ok {
					return fmt.Errorf("no course matching %q", name)
				}
				if i > 0 {
					fmt.Fprintln(w)
				}
				fmt.Fprintln(w, outline)
			}
			return nil
		},
	}
}

func linkCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "link <file|dir> <course> <lesson>",
		Short: "Print the link of a lesson",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("lesson number: %w", err)
			}
			a, err := newApp(g)
			if err != nil {
				return err
			}
			cat, err := loadCatalog(cmd.Context(), a, args[0])
			if err != nil {
				return err
			}
			link, ok := cat.LessonLink(args[1], n)
			if !ok {
				return fmt.Errorf("no lesson %d in course matching %q", n, args[1])
			}
			if link == "" {
				return fmt.Errorf("lesson %d has no link", n)
			}
			fmt.Fprintln(cmd.OutOrStdout(), link)
			return nil
		},
	}
}

func coursesCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "courses",
		Short: "List the courses stored in the index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			return runCourses(cmd.Context(), a, cmd.OutOrStdout())
		},
	}
}

func runCourses(ctx context.Context, a *app, stdout io.Writer) error {
	if !a.cfg.HasIndex() {
		return errors.New("no index configured (set COURSEGEST_INDEX_URL)")
	}
	ic := indexclient.NewClient(a.cfg.IndexURL, a.cfg.IndexAPIKey)
	defer ic.Close()

	titles, err := ic.ListCourses(ctx)
	if err != nil {
		return err
	}
	if titles == nil {
		titles = []string{}
	}
	return writeJSON(stdout, catalog.Analytics{TotalCourses: len(titles), CourseTitles: titles})
}

// loadCatalog ingests a file or every document in a folder into a fresh
// in-memory catalog.
func loadCatalog(ctx context.Context, a *app, path string) (*catalog.Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	cat := catalog.New()
	orch := a.orchestrator(cat)
	if !info.IsDir() {
		if _, _, err := orch.IngestFile(ctx, path); err != nil {
			return nil, err
		}
		return cat, nil
	}
	rep, err := orch.IngestDir(ctx, path, pipeline.BatchOptions{})
	if err != nil {
		return nil, err
	}
	for _, j := range rep.Jobs {
		if j.Status == pipeline.StatusFailed {
			a.log.Warn("document not loaded", "source", j.Source, "errors", j.Errors)
		}
	}
	return cat, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
