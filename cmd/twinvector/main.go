package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/san-kum/twinvector/internal/config"
	"github.com/san-kum/twinvector/internal/logging"
	"github.com/san-kum/twinvector/internal/mount"
	"github.com/san-kum/twinvector/internal/storage"
)

var (
	dataDir    string
	configFile string
	logLevel   string
	logJSON    bool
	logDir     string

	// solve and sweep
	pitch, yaw, roll, throttle float64
	normalizedHinge            bool
	sweepMin, sweepMax         float64
	sweepSteps                 int
	sweepSim                   bool
	workers                    int

	// run, scenario, serial
	dt         float64
	duration   float64
	sqlitePath string
	noSave     bool

	// plot, export
	plotSeries string
	outPath    string
	svgPath    string

	// live
	theme string

	// serial
	device string
	baud   int

	cfg       *config.Config
	log       zerolog.Logger
	logCloser io.Closer
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

func main() {
	rootCmd := &cobra.Command{
		Use:               "twinvector",
		Short:             "twin-arm thrust vectoring mount controller",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&dataDir, "data", "", "run data directory (default from config)")
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	pf.BoolVar(&logJSON, "log-json", false, "log as JSON lines")
	pf.StringVar(&logDir, "log-dir", "", "also write a session log file here")

	solveCmd := &cobra.Command{
		Use:   "solve",
		Short: "decouple one stick input and print the four angles",
		Args:  cobra.NoArgs,
		RunE:  solve,
	}
	addStickFlags(solveCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [axis]",
		Short: "sweep one stick axis and plot the angles",
		Args:  cobra.ExactArgs(1),
		RunE:  sweep,
	}
	addStickFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sweepMin, "min", -1, "sweep start")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "sweep end")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 41, "number of sweep points")
	sweepCmd.Flags().BoolVar(&sweepSim, "sim", false, "simulate each point and report run metrics")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel simulations (0 = one per CPU)")
	sweepCmd.Flags().Float64Var(&duration, "time", 0, "simulated time per point with --sim")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "simulate the mount offline with a preset input profile",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	runCmd.Flags().Float64Var(&dt, "dt", 0, "physics step (default from config)")
	runCmd.Flags().Float64Var(&duration, "time", 0, "duration (default from preset)")
	runCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also record harness ticks to this sqlite file")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&normalizedHinge, "normalized-hinge", false, "normalize the hinge plane normal")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "fly a simulated mount from the keyboard",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")
	liveCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "record harness ticks to this sqlite file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotSeries, "series", "joints", "joints, commanded or input")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a stored run to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportRun(args[0], outPath)
		},
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export a stored run's angle traces to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgPath, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().StringVar(&plotSeries, "series", "joints", "joints or commanded")
	exportSVGCmd.Flags().StringVar(&theme, "theme", "cyberpunk", "color theme")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list input presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p, _ := config.GetPreset(name)
				fmt.Printf("  %-12s %5.1fs  %s\n", name, p.Duration, p.Description)
			}
		},
	}

	serialCmd := &cobra.Command{
		Use:   "serial [preset]",
		Short: "drive a physical mount over a serial line",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSerial,
	}
	serialCmd.Flags().StringVar(&device, "device", "", "serial device (default from config)")
	serialCmd.Flags().IntVar(&baud, "baud", 0, "baud rate (default from config)")
	serialCmd.Flags().Float64Var(&duration, "time", 0, "stop after this many seconds (0 runs until interrupted)")
	serialCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "record harness ticks to this sqlite file")

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "twinvector.yaml"
			if len(args) > 0 {
				path = args[0]
			}
			if err := config.Save(path, config.DefaultConfig()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}

	rootCmd.AddCommand(solveCmd, sweepCmd, runCmd, scenarioCmd, liveCmd, listCmd, plotCmd,
		exportJSONCmd, exportSVGCmd, presetsCmd, serialCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addStickFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&pitch, "pitch", 0, "pitch stick [-1, 1]")
	cmd.Flags().Float64Var(&yaw, "yaw", 0, "yaw stick [-1, 1]")
	cmd.Flags().Float64Var(&roll, "roll", 0, "roll stick [-1, 1]")
	cmd.Flags().Float64Var(&throttle, "throttle", 0.5, "throttle [0, 1]")
	cmd.Flags().BoolVar(&normalizedHinge, "normalized-hinge", false, "normalize the hinge plane normal")
}

// setup loads the config and builds the logger. Flags win over the file.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	} else {
		cfg = config.DefaultConfig()
	}

	if dataDir == "" {
		dataDir = cfg.Storage.DataDir
	}
	if logLevel == "" {
		logLevel = cfg.Log.Level
	}
	if cmd.Flags().Changed("log-json") {
		cfg.Log.JSON = logJSON
	}

	log, logCloser, err = logging.New(os.Stderr, logging.Options{
		Level: logLevel,
		JSON:  cfg.Log.JSON,
		Dir:   logDir,
	})
	return err
}

func decoupler() (*mount.Decoupler, error) {
	geo := cfg.Geometry
	if normalizedHinge {
		geo.NormalizeHingeNormal = true
	}
	return mount.New(geo)
}

func stickInput() mount.Input {
	return mount.Input{Pitch: pitch, Yaw: yaw, Roll: roll, Throttle: throttle}
}
