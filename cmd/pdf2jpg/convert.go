// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf2jpg/internal/pipeline"
	"github.com/pdiddy/pdf2jpg/internal/render"
	"github.com/pdiddy/pdf2jpg/internal/settings"
	"github.com/pdiddy/pdf2jpg/internal/tui"
	"github.com/pdiddy/pdf2jpg/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files into per-page JPG images",
	Long: `Convert renders every page of the given PDF files to a JPG image. The
images go into <dest>/<name>/<document>/, where <name> is the job name made
safe for the filesystem and <document> is each file's name, numbered when two
documents share a name or the folder already exists.

Password-protected files are skipped. A page that fails to render is reported
and the rest of the document still converts. Press c or Ctrl+C to cancel; the
page being rendered finishes first.

The destination defaults to the last one used. A --dest is remembered once
the job has run.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("dest", "", "directory to create the job folder in (default: last used)")
	convertCmd.Flags().String("name", "", "job folder name")
	convertCmd.Flags().String("backend", string(types.BackendFitz), "rasterizer backend: fitz or poppler")
	convertCmd.Flags().Duration("start-delay", pipeline.DefaultStartDelay, "pause after creating the job folder")
	convertCmd.Flags().Bool("plain", false, "print line output instead of the progress display")
	convertCmd.Flags().Bool("open", false, "reveal the job folder when done")
	convertCmd.Flags().Bool("no-history", false, "do not record this job in the history")
	_ = convertCmd.MarkFlagRequired("name")

	_ = viper.BindPFlag("render.backend", convertCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("render.start_delay", convertCmd.Flags().Lookup("start-delay"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	v := viper.GetViper()
	dest, _ := cmd.Flags().GetString("dest")
	name, _ := cmd.Flags().GetString("name")
	plain, _ := cmd.Flags().GetBool("plain")
	reveal, _ := cmd.Flags().GetBool("open")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	store, err := openSettings(v)
	if err != nil {
		return err
	}
	dest, err = resolveDestination(store, dest)
	if err != nil {
		return err
	}
	cfg := types.ConvertConfig{
		Render:      renderConfig(v),
		Destination: dest,
		JobName:     name,
		StartDelay:  v.GetDuration("render.start_delay"),
	}

	rasterizer, err := render.NewRasterizer(cfg.Render)
	if err != nil {
		return err
	}
	renderer := render.NewRenderer(rasterizer)
	loader := pipeline.RendererLoader(renderer)

	job, err := prepareJob(cfg.Destination, cfg.JobName, args, renderer.Inspect, os.Stdout, os.Stderr)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// An explicit zero means no delay; the pipeline treats zero as default.
	opts := pipeline.Options{StartDelay: cfg.StartDelay}
	if opts.StartDelay == 0 {
		opts.StartDelay = -1
	}

	var (
		p       *pipeline.Pipeline
		summary types.Summary
		runErr  error
	)
	if !plain && isatty.IsTerminal(os.Stdout.Fd()) {
		var prog *tui.Program
		opts.OnUpdate = func(j types.Job) { prog.Update(j) }
		p = pipeline.New(job, loader, opts)
		prog = tui.NewProgram(p.Snapshot(), p.Cancel)
		summary, runErr = prog.Run(func() (types.Summary, error) { return p.Run(ctx) })
	} else {
		folder, _ := job.FolderPath()
		fmt.Fprintf(os.Stdout, "Converting %d document(s) with %s into %s\n",
			len(job.Items), rasterizer.Name(), folder)
		opts.Log = os.Stdout
		p = pipeline.New(job, loader, opts)
		summary, runErr = p.Run(ctx)
	}
	if runErr != nil {
		return runErr
	}
	if cmd.Flags().Changed("dest") {
		rememberDestination(store, cfg.Destination)
	}

	final := p.Snapshot()
	if !noHistory && v.GetBool("history.enabled") {
		recordHistory(final)
	}
	if reveal {
		if folder, ok := final.FolderPath(); ok {
			if err := revealFolder(folder); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not open %s: %v\n", folder, err)
			}
		}
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d document(s) failed", summary.Failed)
	}
	return nil
}

// resolveDestination falls back to the remembered destination when dest is
// empty and makes an explicit one absolute.
func resolveDestination(store settings.Store, dest string) (string, error) {
	if dest == "" {
		dest = store.LastDestination()
		if dest == "" {
			return "", fmt.Errorf("%w: pass --dest", pipeline.ErrNoDestination)
		}
		return dest, nil
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", fmt.Errorf("resolving destination: %w", err)
	}
	return abs, nil
}

// rememberDestination stores dest for the next run. Failure only warns.
func rememberDestination(store settings.Store, dest string) {
	if err := store.SetLastDestination(dest); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not remember destination: %v\n", err)
	}
}

// prepareJob builds an idle job for paths and reports on stderr what was not
// queued. The job is ready to run when no error is returned.
func prepareJob(dest, name string, paths []string, inspect pipeline.Inspector, out, errOut io.Writer) (*types.Job, error) {
	job := pipeline.NewJob(dest, name)
	if job.FolderName != "" && job.FolderName != name {
		fmt.Fprintf(out, "Will be saved as: %s\n", job.FolderName)
	}

	res, err := pipeline.AddDocuments(job, paths, inspect)
	if err != nil {
		return nil, err
	}
	for _, r := range res.Rejected {
		fmt.Fprintf(errOut, "rejected:  %s: %v\n", r.Path, r.Err)
	}
	if res.Duplicate > 0 {
		fmt.Fprintf(errOut, "ignored %d duplicate path(s)\n", res.Duplicate)
	}
	for _, it := range job.Items {
		if it.Locked {
			fmt.Fprintf(errOut, "locked:    %s will be skipped (password protected)\n", it.SourcePath)
		}
	}

	if err := pipeline.Validate(job); err != nil {
		if errors.Is(err, pipeline.ErrEmptyQueue) && len(res.Rejected) > 0 {
			return nil, fmt.Errorf("%w: all %d file(s) were rejected", err, len(res.Rejected))
		}
		return nil, err
	}
	return job, nil
}

func recordHistory(job types.Job) {
	store, err := openHistory(viper.GetViper())
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history unavailable: %v\n", err)
		return
	}
	defer store.Close()

	if err := store.Record(context.Background(), job); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record job: %v\n", err)
	}
}
