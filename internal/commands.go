package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/starford/tagprogress/internal/collection"
	"github.com/starford/tagprogress/internal/deck"
	"github.com/starford/tagprogress/internal/mcpserver"
	"github.com/starford/tagprogress/internal/progress"
	"github.com/starford/tagprogress/internal/registry"
	"github.com/starford/tagprogress/internal/report"
)

// ReportRequest selects what the overview and tag commands print.
type ReportRequest struct {
	// Apply overrides the configured stats defaults.
	Apply func(*progress.Options)
	JSON  bool
	Limit int
}

func (r ReportRequest) options(defaults progress.Options) progress.Options {
	if r.Apply != nil {
		r.Apply(&defaults)
	}
	return defaults
}

// PrintOverview computes an overview and writes it to w as a table or JSON.
func PrintOverview(ctx context.Context, w io.Writer, req ReportRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.open(app.logger(), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	o := req.options(rt.svc.Defaults())
	ov, err := rt.svc.Overview(ctx, o)
	if err != nil {
		return err
	}
	if req.JSON {
		if req.Limit > 0 && len(ov.Items) > req.Limit {
			ov.Items = ov.Items[:req.Limit]
		}
		return writeIndented(w, ov)
	}
	return report.Overview(w, ov, report.Options{Limit: req.Limit, CriticalDifficulty: o.CriticalDifficulty})
}

// PrintTag writes the statistics of one tag.
func PrintTag(ctx context.Context, w io.Writer, tag string, req ReportRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.open(app.logger(), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	u, err := rt.svc.TagStats(ctx, tag, req.options(rt.svc.Defaults()))
	if err != nil {
		return err
	}
	if req.JSON {
		return writeIndented(w, u)
	}
	return report.Unit(w, u)
}

// Export writes the overview as CSV.
func Export(ctx context.Context, w io.Writer, req ReportRequest, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := app.open(app.logger(), true)
	if err != nil {
		return err
	}
	defer rt.Close()

	return rt.svc.ExportCSV(ctx, w, req.options(rt.svc.Defaults()))
}

// Import loads a YAML deck into the configured collection, creating it when
// missing. It returns the number of notes written.
func Import(ctx context.Context, deckPath string, opts ...Option) (int, error) {
	app, err := newApplication(opts)
	if err != nil {
		return 0, err
	}
	logger := app.logger()

	d, err := deck.Load(deckPath)
	if err != nil {
		return 0, err
	}
	db, err := collection.Open(app.config.Collection.Path, false)
	if err != nil {
		return 0, fmt.Errorf("open collection: %w", err)
	}
	defer db.Close()

	records := d.Records()
	if err := db.Import(ctx, records); err != nil {
		return 0, err
	}
	logger.Info("import: deck loaded",
		slog.String("deck", deckPath),
		slog.String("collection", db.Path()),
		slog.Int("notes", len(records)))
	return len(records), nil
}

// ServeMCP serves the MCP tools on stdio. enable switches the module on
// first; otherwise a disabled module is an error.
func ServeMCP(ctx context.Context, enable bool, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := app.logger()
	rt, err := app.open(logger, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if enable {
		if _, err := rt.svc.SetModuleEnabled(ctx, registry.ModuleMCP, true); err != nil {
			return fmt.Errorf("enable %s: %w", registry.ModuleMCP, err)
		}
	}
	if !rt.svc.ModuleEnabled(registry.ModuleMCP) {
		return fmt.Errorf("module %s is disabled; run with --enable or PUT /api/modules/%s", registry.ModuleMCP, registry.ModuleMCP)
	}

	logger.Info("mcp: serving on stdio", slog.String("collection", rt.store.Path()))
	return mcpserver.New(rt.svc, app.version).ServeStdio()
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
