package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cppdep/pkg/config"
	"github.com/matzehuels/cppdep/pkg/pipeline"
)

// serveCommand creates the serve command, a local preview server that
// re-renders the graph on every request so the browser always shows the
// current state of the tree.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
		noReduce   bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live graph preview over HTTP",
		Long: `Serve a live graph preview over HTTP.

Starts a local server that re-runs the analysis on each page load and
serves the rendered SVG. The build cache keeps unchanged trees fast;
edit a file and reload to see the updated graph.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			applyConfig(&opts, cfg)
			opts.Reduce = !noReduce
			opts.Formats = []string{pipeline.FormatSVG}
			return c.runServe(cmd.Context(), opts, cfg.Cache, addr)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.SourceDirs, "source", "s", nil, "source directory to scan (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.IncludeDirs, "include", "i", nil, "include directory to scan (repeatable)")
	cmd.Flags().BoolVar(&noReduce, "no-reduce", false, "skip transitive reduction")
	cmd.Flags().BoolVar(&opts.DisplayPaths, "paths", false, "label nodes with relative file paths")
	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "listen address")
	cmd.Flags().StringVar(&configPath, "config", "", "config file (default .cppdep.toml)")

	return cmd
}

// runServe starts the preview server and blocks until ctx is cancelled.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, cacheCfg config.CacheConfig, addr string) error {
	runner, err := c.newRunner(ctx, cacheCfg, false)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	opts.Logger = c.Logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, indexPage)
	})
	r.Get("/graph.svg", func(w http.ResponseWriter, req *http.Request) {
		result, err := runner.Execute(req.Context(), opts)
		if err != nil {
			c.Logger.Error("analysis failed", "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(result.Artifacts[pipeline.FormatSVG])
	})
	r.Get("/graph.json", func(w http.ResponseWriter, req *http.Request) {
		jsonOpts := opts
		jsonOpts.Formats = []string{pipeline.FormatJSON}
		result, err := runner.Execute(req.Context(), jsonOpts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(result.Artifacts[pipeline.FormatJSON])
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	printInfo("Serving graph preview")
	fmt.Println("  " + StyleLink.Render("http://"+addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// indexPage is the minimal HTML shell around the live SVG.
const indexPage = `<!DOCTYPE html>
<html>
<head>
  <title>cppdep</title>
  <style>
    body { margin: 0; font-family: sans-serif; background: #fafafa; }
    header { padding: 8px 16px; border-bottom: 1px solid #ddd; background: #fff; }
    header a { color: #555; text-decoration: none; margin-right: 12px; font-size: 14px; }
    main { padding: 16px; overflow: auto; }
    img { max-width: 100%; }
  </style>
</head>
<body>
  <header>
    <a href="/">reload</a>
    <a href="/graph.svg">svg</a>
    <a href="/graph.json">json</a>
  </header>
  <main><img src="/graph.svg" alt="component dependency graph"></main>
</body>
</html>
`
