package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/sonatalab/sonata/internal/cli"
	"github.com/sonatalab/sonata/internal/config"
	"github.com/sonatalab/sonata/internal/ingest"
	"github.com/sonatalab/sonata/internal/logging"
	"github.com/sonatalab/sonata/internal/notes"
	"github.com/sonatalab/sonata/internal/processor"
	"github.com/sonatalab/sonata/internal/server"
	"github.com/sonatalab/sonata/internal/session"
	"github.com/sonatalab/sonata/internal/store"
	"github.com/sonatalab/sonata/internal/ui"
)

var (
	version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config string `short:"c" type:"path" help:"Path to TOML config file (optional)"`

	Serve     ServeCmd     `cmd:"" help:"Watch the drop folder and serve the stats API"`
	Analyze   AnalyzeCmd   `cmd:"" help:"Analyze recordings one-shot, without the watcher"`
	Reprocess ReprocessCmd `cmd:"" help:"Reset derived data and requeue archived recordings"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("sonata"),
		kong.Description("Piano practice session analyzer"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	cfg, err := config.Load(cliArgs.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if err := ctx.Run(&cfg); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// VersionCmd prints version information
type VersionCmd struct{}

func (v *VersionCmd) Run(cfg *config.Config) error {
	cli.PrintVersion(version)
	return nil
}

// ServeCmd runs the ingestion watcher and the HTTP query API.
type ServeCmd struct{}

func (s *ServeCmd) Run(cfg *config.Config) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "sonata",
	})

	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("creating working directories: %w", err)
	}

	st, err := store.Open(cfg.Path(cfg.DatabasePath), store.Options{MinKeystrokes: cfg.MinKeystrokes})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	extractor := buildExtractor(cfg, logger)
	loc := cfg.Location()

	pipeline := &ingest.Pipeline{
		Store:         st,
		Extractor:     extractor,
		Analysis:      cfg.Processor(),
		MIDIDir:       cfg.Path(cfg.MIDIDir),
		ArchiveDir:    cfg.Path(cfg.ArchiveDir),
		QuarantineDir: cfg.Path(cfg.QuarantineDir),
		Location:      loc,
		Log:           logger,
	}
	watcher := &ingest.Watcher{
		Pipeline: pipeline,
		InboxDir: cfg.Path(cfg.InboxDir),
		Interval: cfg.PollInterval(),
		Log:      logger,
	}
	api := server.New(st, loc, cfg.GroupingGapSec, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	go func() { errCh <- watcher.Run(ctx) }()
	go func() { errCh <- api.ListenAndServe(ctx, cfg.ListenAddr) }()

	err = <-errCh
	stop()
	// Drain the second goroutine's result; both shut down on cancel.
	<-errCh
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func buildExtractor(cfg *config.Config, logger *log.Logger) notes.Extractor {
	if cfg.Transcriber.Binary == "" {
		logger.Warn("no transcriber configured, sessions will have zero keystrokes")
		return notes.Disabled{}
	}
	return &notes.Transcriber{
		Binary:  cfg.Transcriber.Binary,
		Args:    cfg.Transcriber.Args,
		Timeout: time.Duration(cfg.Transcriber.TimeoutSec * float64(time.Second)),
	}
}

// AnalyzeCmd analyzes explicit files with a progress TUI.
type AnalyzeCmd struct {
	Logs  bool     `help:"Save detailed analysis logs"`
	Save  bool     `help:"Persist analyzed sessions to the database"`
	Files []string `arg:"" name:"files" help:"Audio files to analyze" type:"existingfile"`
}

func (a *AnalyzeCmd) Run(cfg *config.Config) error {
	if len(a.Files) == 0 {
		return fmt.Errorf("no input files specified")
	}

	var st *store.Store
	if a.Save {
		var err error
		st, err = store.Open(cfg.Path(cfg.DatabasePath), store.Options{MinKeystrokes: cfg.MinKeystrokes})
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer st.Close()
		if err := cfg.EnsureDirs(); err != nil {
			return fmt.Errorf("creating working directories: %w", err)
		}
	}

	model := ui.NewModel(a.Files)
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Analysis runs in the background while the TUI owns the terminal.
	go func() {
		extractor := buildAnalyzeExtractor(cfg)
		for i, inputPath := range a.Files {
			p.Send(ui.FileStartMsg{FileIndex: i, FileName: inputPath})
			msg := a.analyzeOne(cfg, st, extractor, i, inputPath, p)
			p.Send(msg)
		}
		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return nil
}

// buildAnalyzeExtractor returns the configured transcriber, or the no-op
// extractor without the serve-mode warning noise.
func buildAnalyzeExtractor(cfg *config.Config) notes.Extractor {
	if cfg.Transcriber.Binary == "" {
		return notes.Disabled{}
	}
	return &notes.Transcriber{
		Binary:  cfg.Transcriber.Binary,
		Args:    cfg.Transcriber.Args,
		Timeout: time.Duration(cfg.Transcriber.TimeoutSec * float64(time.Second)),
	}
}

func (a *AnalyzeCmd) analyzeOne(cfg *config.Config, st *store.Store, extractor notes.Extractor, index int, inputPath string, p *tea.Program) ui.FileCompleteMsg {
	startTime := time.Now()

	analysis, metadata, err := processor.AnalyzeFile(inputPath, cfg.Processor(), func(stage string, progress float64) {
		p.Send(ui.ProgressMsg{Stage: stage, Progress: progress})
	})
	if err != nil {
		return ui.FileCompleteMsg{FileIndex: index, Error: err}
	}

	p.Send(ui.ProgressMsg{Stage: "Transcribing", Progress: 0.0})
	result, extractErr := extractor.Extract(context.Background(), inputPath, cfg.Path(cfg.MIDIDir))
	if extractErr != nil {
		result = notes.Result{}
	}
	p.Send(ui.ProgressMsg{Stage: "Transcribing", Progress: 1.0})

	saved := false
	if st != nil {
		if err := a.persist(cfg, st, inputPath, analysis, result); err == nil {
			saved = true
		}
	}

	if a.Logs {
		_ = logging.GenerateReport(logging.ReportData{
			InputPath:  inputPath,
			StartTime:  startTime,
			EndTime:    time.Now(),
			Analysis:   analysis,
			Metadata:   metadata,
			Keystrokes: result.Keystrokes,
			MIDIFile:   result.MIDIFile,
		})
	}

	return ui.FileCompleteMsg{
		FileIndex:      index,
		TotalDuration:  analysis.TotalDuration,
		ActiveDuration: analysis.ActiveDuration,
		Efficiency:     analysis.Efficiency,
		Keystrokes:     result.Keystrokes,
		Intervals:      len(analysis.Intervals),
		Saved:          saved,
		Error:          nil,
	}
}

func (a *AnalyzeCmd) persist(cfg *config.Config, st *store.Store, inputPath string, analysis *processor.Analysis, result notes.Result) error {
	ctx := context.Background()
	id, err := ingest.HashFile(inputPath)
	if err != nil {
		return err
	}
	if exists, err := st.Exists(ctx, id); err != nil || exists {
		if err != nil {
			return err
		}
		return fmt.Errorf("session already stored")
	}

	recordedAt := time.Now().In(cfg.Location())
	if info, err := os.Stat(inputPath); err == nil {
		recordedAt = info.ModTime().In(cfg.Location()).Add(-time.Duration(analysis.TotalDuration * float64(time.Second)))
	}

	sess := session.Build(id, filepath.Base(inputPath), recordedAt, analysis, result.Keystrokes, result.MIDIFile)
	return st.Put(ctx, sess)
}

// ReprocessCmd wipes derived data and moves archived recordings back into
// the drop folder so the watcher reanalyzes everything.
type ReprocessCmd struct {
	Yes bool `help:"Skip the confirmation prompt"`
}

func (r *ReprocessCmd) Run(cfg *config.Config) error {
	if !r.Yes && !confirm("Delete all derived data and reprocess archived recordings? (y/n): ") {
		fmt.Println("Aborted.")
		return nil
	}

	// 1. Remove generated MIDI artifacts
	midiDir := cfg.Path(cfg.MIDIDir)
	if entries, err := os.ReadDir(midiDir); err == nil {
		for _, e := range entries {
			if !e.IsDir() {
				_ = os.Remove(filepath.Join(midiDir, e.Name()))
			}
		}
		fmt.Printf("Cleared MIDI directory: %s\n", midiDir)
	}

	// 2. Drop all stored sessions
	st, err := store.Open(cfg.Path(cfg.DatabasePath), store.Options{MinKeystrokes: cfg.MinKeystrokes})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	if err := st.DeleteAll(context.Background()); err != nil {
		st.Close()
		return err
	}
	st.Close()
	fmt.Println("Cleared stored sessions.")

	// 3. Move archived recordings back into the drop folder
	archiveDir := cfg.Path(cfg.ArchiveDir)
	inboxDir := cfg.Path(cfg.InboxDir)
	if err := os.MkdirAll(inboxDir, 0o755); err != nil {
		return err
	}

	moved := 0
	entries, err := os.ReadDir(archiveDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading archive: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			continue
		}
		src := filepath.Join(archiveDir, e.Name())
		dst := filepath.Join(inboxDir, e.Name())
		if err := os.Rename(src, dst); err != nil {
			fmt.Printf("Failed to move %s: %v\n", e.Name(), err)
			continue
		}
		moved++
	}
	fmt.Printf("Requeued %d recording(s). Start `sonata serve` to reanalyze them.\n", moved)
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(answer), "y")
}
