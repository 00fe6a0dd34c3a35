package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/Carmen-Shannon/oxy-asset/common"
	"github.com/Carmen-Shannon/oxy-asset/engine/catalog"
	"github.com/Carmen-Shannon/oxy-asset/engine/config"
	"github.com/Carmen-Shannon/oxy-asset/engine/loader"
	"github.com/Carmen-Shannon/oxy-asset/engine/model"
	"github.com/Carmen-Shannon/oxy-asset/engine/profiler"

	"golang.org/x/term"
)

const usage = `usage:
  oxyasset inspect [-config file] [-catalog db] [-textures table] [-animinfo file] [-workers n] [-fps rate] [-profile] files...
  oxyasset webp -out dir files...
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code.
func run(args []string, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(errOut, usage)
		return 2
	}

	switch args[0] {
	case "inspect":
		return runInspect(args[1:], out, errOut)
	case "webp":
		return runWebP(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown command %q\n%s", args[0], usage)
		return 2
	}
}

func runInspect(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configFile := fs.String("config", "", "Path to a YAML config file")
	catalogPath := fs.String("catalog", "", "SQLite catalog to record loads in")
	textures := fs.String("textures", "", "Texture table file")
	animInfo := fs.String("animinfo", "", "Animation info file")
	workers := fs.Int("workers", 0, "Number of parallel loads (default: NumCPU)")
	fps := fs.Float64("fps", 0, "Keyframe frame rate (default: 60)")
	profile := fs.Bool("profile", false, "Log per-load timing and memory statistics")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprint(errOut, usage)
		return 2
	}

	// Load config
	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(errOut, "Error loading config: %v\n", err)
			return 1
		}
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		TextureTable:  *textures,
		AnimationInfo: *animInfo,
		Catalog:       *catalogPath,
		Workers:       *workers,
		FrameRate:     *fps,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	options, err := cfg.LoaderOptions()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	options = append(options, loader.WithProfiler(profiler.NewProfiler(*profile)))

	l := loader.NewLoader(loader.BackendTypeAuto, options...)
	models, loadErr := l.LoadAll(fs.Args())

	printModels(out, fs.Args(), models)

	if cfg.Catalog != "" {
		if err := recordModels(cfg.Catalog, models); err != nil {
			fmt.Fprintf(errOut, "Error: %v\n", err)
			return 1
		}
	}

	if loadErr != nil {
		fmt.Fprintf(errOut, "Error: %v\n", loadErr)
		return 1
	}
	return 0
}

func runWebP(args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet("webp", flag.ContinueOnError)
	fs.SetOutput(errOut)
	outDir := fs.String("out", "", "Output directory for .webp files")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *outDir == "" || fs.NArg() == 0 {
		fmt.Fprint(errOut, usage)
		return 2
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}

	failed := 0
	for _, path := range fs.Args() {
		dst := filepath.Join(*outDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".webp")
		if err := exportWebP(path, dst); err != nil {
			fmt.Fprintf(errOut, "Error: %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s -> %s\n", path, dst)
	}

	if failed > 0 {
		return 1
	}
	return 0
}

// --- Helper Functions ---

func exportWebP(src, dst string) error {
	file, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer file.Close()

	tex := &common.ImportedTexture{Name: filepath.Base(src), Path: src}
	return tex.EncodeWebP(file)
}

func recordModels(path string, models []model.Model) error {
	cat, err := catalog.Open(path)
	if err != nil {
		return err
	}
	defer cat.Close()

	ctx := context.Background()
	for _, m := range models {
		if m == nil {
			continue
		}
		if err := cat.Record(ctx, catalog.EntryFromModel(m)); err != nil {
			return err
		}
	}
	return nil
}

// printModels writes one row per loaded model. Rows are aligned when out is a terminal
// and tab-separated otherwise.
func printModels(out io.Writer, paths []string, models []model.Model) {
	w := out
	var tw *tabwriter.Writer
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		tw = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		w = tw
	}

	fmt.Fprintln(w, "FILE\tNAME\tMESHES\tVERTICES\tINDICES\tMATERIALS\tBONES\tANIMATIONS\tRADIUS")
	for i, m := range models {
		if m == nil {
			fmt.Fprintf(w, "%s\t-\t-\t-\t-\t-\t-\t-\t-\n", paths[i])
			continue
		}
		entry := catalog.EntryFromModel(m)
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.3f\n",
			paths[i], entry.Name, entry.Meshes, entry.Vertices, entry.Indices,
			entry.Materials, entry.Bones, entry.Animations, m.BoundingRadius())
	}

	if tw != nil {
		tw.Flush()
	}
}
