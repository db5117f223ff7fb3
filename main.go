package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"golang.org/x/term"

	"stthebrew/internal/bootstrap"
	"stthebrew/internal/clipboard"
	"stthebrew/internal/domain"
	"stthebrew/internal/filesave"
	"stthebrew/internal/reconcile"
	"stthebrew/internal/tui"
)

//go:embed all:frontend/dist
var assets embed.FS

var (
	cfgFile      string
	logDir       string
	exportFormat string
	exportOut    string
	dedupName    string
	log          = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
)

var rootCmd = &cobra.Command{
	Use:          "stthebrew",
	Short:        "Hebrew-first dictation with transcript cleanup and export",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGUI(loadOptions())
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Dictate in the terminal through Deepgram streaming",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context(), loadOptions())
	},
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Render a transcript file (or stdin) as txt, doc or html",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		return runExport(cmd.Context(), loadOptions(), text, exportFormat, exportOut, cmd.ErrOrStderr())
	},
}

var dedupCmd = &cobra.Command{
	Use:   "dedup [file]",
	Short: "Remove repeated words from a transcript file (or stdin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		return runDedup(text, dedupName, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $STT_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "diagnostics log directory")

	exportCmd.Flags().StringVar(&exportFormat, "format", "", "export format: txt, doc or html (default from config)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output directory (default from config)")
	dedupCmd.Flags().StringVar(&dedupName, "strategy", reconcile.CleanupGlobalUnique, "cleanup strategy: global-unique or trailing-run")
}

func loadOptions() bootstrap.Options {
	return bootstrap.Options{ConfigPath: cfgFile, LogDir: logDir}
}

func runGUI(opts bootstrap.Options) error {
	app := NewApp(opts)
	return wails.Run(&options.App{
		Title:     "stthebrew",
		Width:     960,
		Height:    720,
		MinWidth:  480,
		MinHeight: 480,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind:       []interface{}{app},
	})
}

func runTUI(ctx context.Context, opts bootstrap.Options) error {
	rt, err := bootstrap.Load(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	engine := rt.DeepgramEngine()
	sink := tui.NewSink()
	controller, err := rt.Controller(engine, sink, filesave.NewDirSaver(rt.Config.Export.Dir, rt.Logger), clipboard.NewSystem())
	if err != nil {
		return err
	}

	program := tui.NewProgram(ctx, controller, rt.Catalog, rt.Config.Export.Format, sink)
	_, runErr := program.Run()
	_ = controller.Stop()
	return runErr
}

func runExport(ctx context.Context, opts bootstrap.Options, text string, rawFormat string, outDir string, stderr io.Writer) error {
	rt, err := bootstrap.Load(opts)
	if err != nil {
		return err
	}
	defer rt.Close()

	dir := rt.Config.Export.Dir
	if outDir != "" {
		dir = outDir
	}
	format := rt.Config.Export.Format
	if rawFormat != "" {
		format = domain.ParseExportFormat(strings.ToLower(rawFormat))
	}

	sink := &printSink{catalog: rt.Catalog, out: stderr}
	controller, err := rt.Controller(unavailableEngine{}, sink, filesave.NewDirSaver(dir, rt.Logger), nil)
	if err != nil {
		return err
	}
	controller.EditTranscript(text)
	_, err = controller.Download(ctx, format)
	return err
}

func runDedup(text string, strategy string, stdout io.Writer, stderr io.Writer) error {
	cleanup, err := reconcile.NewCleanup(strategy)
	if err != nil {
		return err
	}
	cleaned := cleanup.Clean(text)
	if _, err := fmt.Fprintln(stdout, cleaned); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stderr, "removed %d words (%s)\n", reconcile.Removed(text, cleaned), cleanup.Name())
	return err
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return "", errors.New("no input: pass a file or pipe text on stdin")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}

func main() {
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(dedupCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
