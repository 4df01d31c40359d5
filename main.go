package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qrforge/qrforge/api"
	"github.com/qrforge/qrforge/config"
	"github.com/qrforge/qrforge/qr"
	"github.com/qrforge/qrforge/store"
)

var version = "v0.3.0"

// errNotAURL marks inputs rejected by the URL plausibility guard.
var errNotAURL = errors.New("input does not look like an http(s) URL")

func main() {
	root := &cobra.Command{
		Use:           "qrforge",
		Short:         "Turn URLs into QR code images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// --- generate command ----------------------------------------------------
	var (
		genConfig  string
		genOut     string
		genModule  int
		genBorder  int
		genLevel   string
		genCaption string
		genFormat  string
		genText    bool
		genTerm    bool
	)
	genCmd := &cobra.Command{
		Use:   "generate [url]",
		Short: "Generate a QR code image for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args[0], generateFlags{
				configPath: genConfig,
				out:        genOut,
				moduleSize: genModule,
				border:     genBorder,
				level:      genLevel,
				caption:    genCaption,
				format:     genFormat,
				anyText:    genText,
				terminal:   genTerm,
			})
		},
	}
	genCmd.Flags().StringVarP(&genConfig, "config", "c", "config.yaml", "Path to config file")
	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "Output image path (default: derived from the URL)")
	genCmd.Flags().IntVar(&genModule, "module-size", 0, "Pixels per module")
	genCmd.Flags().IntVar(&genBorder, "border", -1, "Quiet zone width in modules")
	genCmd.Flags().StringVar(&genLevel, "level", "", "Error correction level (L, M, Q, H)")
	genCmd.Flags().StringVar(&genCaption, "caption", "", "Caption text under the QR code")
	genCmd.Flags().StringVar(&genFormat, "format", "", "Image format (png, jpeg, bmp); default from --out extension")
	genCmd.Flags().BoolVar(&genText, "text", false, "Encode arbitrary text, skipping the URL check")
	genCmd.Flags().BoolVarP(&genTerm, "terminal", "t", false, "Print the QR code to the terminal instead of a file")
	root.AddCommand(genCmd)

	// --- batch command -------------------------------------------------------
	var batchConfig string
	var batchText bool
	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "Generate QR codes for every URL in a file (one per line)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, args[0], batchConfig, batchText)
		},
	}
	batchCmd.Flags().StringVarP(&batchConfig, "config", "c", "config.yaml", "Path to config file")
	batchCmd.Flags().BoolVar(&batchText, "text", false, "Encode arbitrary text, skipping the URL check")
	root.AddCommand(batchCmd)

	// --- decode command ------------------------------------------------------
	decodeCmd := &cobra.Command{
		Use:   "decode [image]",
		Short: "Decode a QR code image back to its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := qr.DecodeFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
	root.AddCommand(decodeCmd)

	// --- history command -----------------------------------------------------
	var (
		histConfig string
		histSearch string
		histLimit  int
	)
	histCmd := &cobra.Command{
		Use:   "history",
		Short: "List previously generated QR codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, histConfig, histSearch, histLimit)
		},
	}
	histCmd.Flags().StringVarP(&histConfig, "config", "c", "config.yaml", "Path to config file")
	histCmd.Flags().StringVar(&histSearch, "search", "", "Full-text search over encoded content")
	histCmd.Flags().IntVar(&histLimit, "limit", 20, "Maximum number of entries to show")
	root.AddCommand(histCmd)

	// --- serve command -------------------------------------------------------
	var serveConfig string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the QR generation HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(serveConfig)
		},
	}
	serveCmd.Flags().StringVarP(&serveConfig, "config", "c", "config.yaml", "Path to config file")
	root.AddCommand(serveCmd)

	// --- version command -----------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("qrforge %s\n", version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, errNotAURL) ||
			errors.Is(err, qr.ErrEmptyContent) ||
			errors.Is(err, qr.ErrContentTooLong) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type generateFlags struct {
	configPath string
	out        string
	moduleSize int
	border     int
	level      string
	caption    string
	format     string
	anyText    bool
	terminal   bool
}

// buildOptions merges config values with explicitly set flags.
func buildOptions(cmd *cobra.Command, cfg *config.Config, f generateFlags) (qr.Options, error) {
	opts := qr.DefaultOptions()

	level, err := qr.ParseLevel(cfg.Level)
	if err != nil {
		return opts, fmt.Errorf("config: %w", err)
	}
	opts.Level = level
	if cfg.ModuleSize > 0 {
		opts.ModuleSize = cfg.ModuleSize
	}
	if cfg.Border >= 0 {
		opts.Border = cfg.Border
	}

	if cmd.Flags().Changed("module-size") {
		opts.ModuleSize = f.moduleSize
	}
	if cmd.Flags().Changed("border") {
		opts.Border = f.border
	}
	if cmd.Flags().Changed("level") {
		level, err := qr.ParseLevel(f.level)
		if err != nil {
			return opts, err
		}
		opts.Level = level
	}
	opts.Caption = f.caption

	if opts.ModuleSize < 1 {
		return opts, fmt.Errorf("module size must be at least 1, got %d", opts.ModuleSize)
	}
	if opts.Border < 0 {
		return opts, fmt.Errorf("border must not be negative, got %d", opts.Border)
	}
	return opts, nil
}

// runGenerate encodes a single URL and writes the image (or the terminal
// rendering).
func runGenerate(cmd *cobra.Command, input string, f generateFlags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	setupLogger(cfg.LogLevel)

	if !f.anyText && !qr.IsPlausibleURL(input) {
		return fmt.Errorf("%w: %q", errNotAURL, input)
	}

	opts, err := buildOptions(cmd, cfg, f)
	if err != nil {
		return err
	}

	code, err := qr.Encode(input, opts)
	if err != nil {
		return err
	}

	if f.terminal {
		// The Encode above is the validation gate: qrterminal has no
		// error path and panics on unencodable input.
		qr.WriteTerminal(cmd.OutOrStdout(), input, opts.Level)
		return nil
	}

	out := f.out
	if out == "" {
		format, err := qr.ParseFormat(f.format)
		if err != nil {
			return err
		}
		out = filepath.Join(cfg.OutputDir, outputName(input, format))
	} else if f.format != "" {
		// An explicit format must agree with the output extension.
		format, err := qr.ParseFormat(f.format)
		if err != nil {
			return err
		}
		if got := qr.FormatForPath(out); got != format {
			return fmt.Errorf("--format %s conflicts with output extension of %s", format, out)
		}
	}

	if err := code.WriteFile(out); err != nil {
		return err
	}

	recordHistory(cfg, code, out)

	fmt.Fprintf(cmd.OutOrStdout(), "QR code saved to %s\n", out)
	return nil
}

// runBatch generates one image per non-empty, non-comment line of file.
func runBatch(cmd *cobra.Command, file, configPath string, anyText bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := setupLogger(cfg.LogLevel)

	opts, err := buildOptions(cmd, cfg, generateFlags{})
	if err != nil {
		return err
	}

	in, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer in.Close()

	var hs *store.HistoryStore
	if cfg.History.Enabled {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		hs, err = store.NewHistoryStore(cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer hs.Close()
	}

	var done, failed int
	scanner := bufio.NewScanner(in)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		input := strings.TrimSpace(scanner.Text())
		if input == "" || strings.HasPrefix(input, "#") {
			continue
		}

		if !anyText && !qr.IsPlausibleURL(input) {
			log.Warn("skipping implausible URL", "line", lineNo, "input", input)
			failed++
			continue
		}

		code, err := qr.Encode(input, opts)
		if err != nil {
			log.Warn("encode failed", "line", lineNo, "error", err)
			failed++
			continue
		}

		out := filepath.Join(cfg.OutputDir, outputName(input, qr.FormatPNG))
		if err := code.WriteFile(out); err != nil {
			log.Warn("write failed", "line", lineNo, "error", err)
			failed++
			continue
		}

		if hs != nil {
			recordEntry(hs, code, out)
		}
		log.Info("generated", "line", lineNo, "path", out)
		done++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Generated %d QR codes (%d failed)\n", done, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d inputs failed", failed, done+failed)
	}
	return nil
}

// runHistory lists or searches recorded generations.
func runHistory(cmd *cobra.Command, configPath, search string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	hs, err := store.NewHistoryStore(cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hs.Close()

	var entries []store.Entry
	if search != "" {
		entries, err = hs.Search(search, limit)
	} else {
		entries, err = hs.Recent(limit)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No history entries.")
		return nil
	}
	for _, e := range entries {
		ts := time.Unix(e.CreatedAt, 0).Format(time.RFC3339)
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-4s %-4s %s\n", ts, e.Level, e.Format, e.Content)
	}
	return nil
}

// runServe is the service entrypoint that wires all components together.
func runServe(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("ensure dirs: %w", err)
	}

	// 2. Setup logger
	log := setupLogger(cfg.LogLevel)
	log.Info("starting qrforge", "version", version, "port", cfg.Server.Port, "data_dir", cfg.DataDir)

	// 3. Open history store (always on in serve mode)
	hs, err := store.NewHistoryStore(cfg.HistoryDBPath())
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer hs.Close()

	// 4. Resolve default rendering options
	defaults := qr.DefaultOptions()
	level, err := qr.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	defaults.Level = level
	if cfg.ModuleSize > 0 {
		defaults.ModuleSize = cfg.ModuleSize
	}
	if cfg.Border >= 0 {
		defaults.Border = cfg.Border
	}

	// 5. Start HTTP server
	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: api.NewRouter(&api.Server{
			Store:      hs,
			Log:        log,
			Version:    version,
			Defaults:   defaults,
			MaxDataLen: cfg.Server.MaxDataLen,
			Started:    time.Now(),
		}),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("generator page available", "url", fmt.Sprintf("http://localhost:%d/", cfg.Server.Port))

	// 6. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	log.Info("goodbye")
	return nil
}

// setupLogger installs the default slog logger at the configured level.
func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
	return log
}

// recordHistory saves a CLI generation when history is enabled in config.
// Recording is best effort and never fails the generation.
func recordHistory(cfg *config.Config, code *qr.Code, out string) {
	if !cfg.History.Enabled {
		return
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Warn("history disabled for this run", "error", err)
		return
	}
	hs, err := store.NewHistoryStore(cfg.HistoryDBPath())
	if err != nil {
		slog.Warn("history disabled for this run", "error", err)
		return
	}
	defer hs.Close()

	recordEntry(hs, code, out)
}

func recordEntry(hs *store.HistoryStore, code *qr.Code, out string) {
	opts := code.Options()
	entry := &store.Entry{
		Content:    code.Content(),
		OutputPath: out,
		Format:     string(qr.FormatForPath(out)),
		Level:      opts.Level.String(),
		ModuleSize: opts.ModuleSize,
		Border:     opts.Border,
		WidthPx:    (code.Size() + 2*opts.Border) * opts.ModuleSize,
	}
	if err := hs.Record(entry); err != nil {
		slog.Warn("history record failed", "error", err)
	}
}

var nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// outputName derives a file name from the encoded content, e.g.
// "https://example.com/docs" becomes "example-com-docs.png".
func outputName(content string, format qr.Format) string {
	name := content
	for _, prefix := range []string{"https://", "http://"} {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}
	name = strings.Trim(nonSlugChars.ReplaceAllString(name, "-"), "-")
	if len(name) > 64 {
		name = name[:64]
	}
	if name == "" {
		name = "qr"
	}
	ext := string(format)
	if format == qr.FormatJPEG {
		ext = "jpg"
	}
	return name + "." + ext
}
