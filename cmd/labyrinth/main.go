package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tiltlab/arlabyrinth/internal/config"
	"github.com/tiltlab/arlabyrinth/internal/database"
	"github.com/tiltlab/arlabyrinth/internal/game"
	"github.com/tiltlab/arlabyrinth/internal/history"
	"github.com/tiltlab/arlabyrinth/internal/influx"
	"github.com/tiltlab/arlabyrinth/internal/logging"
	intOtel "github.com/tiltlab/arlabyrinth/internal/otel"
	"github.com/tiltlab/arlabyrinth/internal/prefs"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// BuildDate and Version can be set at build time via ldflags
var (
	Version   string = "0.1.0"
	BuildDate string = "unknown"
)

const binaryName = "labyrinth"

// flags
var (
	configDir    = pflag.StringP("config", "c", ".", "directory containing "+config.FileName)
	scenarioPath = pflag.String("scenario", "", "run a YAML scenario and exit")
	stdioMode    = pflag.Bool("stdio", false, "serve the engine bridge on stdin/stdout instead of WebSocket")
	_            = pflag.String("listen", "", "WebSocket listen address")
	_            = pflag.String("log-level", "", "log level (debug, info, warn, error)")
	_            = pflag.String("policy", "", "marker cleanup policy (retain, deactivate, destroy)")
	_            = pflag.String("target", "", "reference image name of the target marker")
)

// services holds everything that needs closing on exit
type services struct {
	slog     *logging.SlogManager
	logger   *slog.Logger
	logFile  *os.File
	otel     *intOtel.Provider
	db       *database.Manager
	history  *history.Recorder
	influx   *influx.Sink
	closers  []io.Closer
	game     *game.Game
	gameConf config.GameConfig
}

func main() {
	pflag.Parse()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	start := time.Now()

	configErr := config.Load(*configDir)
	if err := config.BindFlags(pflag.CommandLine); err != nil {
		return err
	}

	svc, err := setup(start)
	if err != nil {
		return err
	}
	defer svc.close()

	if configErr != nil {
		svc.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		svc.logger.Info("Loaded config", "file", viper.ConfigFileUsed())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *scenarioPath != "":
		return runScenario(svc, *scenarioPath, os.Stdout)
	case *stdioMode:
		return runStdio(ctx, svc, os.Stdin, os.Stdout)
	default:
		return runServer(ctx, svc, config.GetServerConfig())
	}
}

func setup(start time.Time) (*services, error) {
	svc := &services{slog: logging.NewSlogManager()}
	level := viper.GetString("logLevel")

	logsDir := viper.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return nil, fmt.Errorf("creating logs dir: %w", err)
	}
	logPath := logging.LogFilePath(logsDir, binaryName, start)
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	svc.logFile = f

	otelCfg := config.GetOTelConfig()
	svc.otel, err = intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    f,
		MetricWriter: f,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize OTel provider: %v\n", err)
		svc.otel, _ = intOtel.New(intOtel.Config{})
	}

	var extra []slog.Handler
	graylogCfg := config.GetGraylogConfig()
	var graylogErr error
	if graylogCfg.Enabled {
		h, closer, err := logging.NewGraylogHandler(graylogCfg.Address, logging.ParseLevel(level))
		if err != nil {
			graylogErr = err
		} else {
			extra = append(extra, h)
			svc.closers = append(svc.closers, closer)
		}
	}

	var provider *sdklog.LoggerProvider
	if svc.otel.Enabled() {
		provider = svc.otel.LoggerProvider()
	}
	svc.slog.Setup(f, level, provider, extra...)
	svc.logger = svc.slog.Logger()
	svc.logger.Info("Begin logging in logs directory", "path", logPath, "version", Version)
	if graylogErr != nil {
		svc.logger.Error("Failed to connect to Graylog", "address", graylogCfg.Address, "error", graylogErr)
	}

	store, rounds := svc.setupStorage(f, level, logsDir, start)

	svc.gameConf, err = config.GetGameConfig()
	if err != nil {
		svc.close()
		return nil, err
	}

	opts := game.Options{
		Game:           svc.gameConf,
		Prefs:          store,
		Rounds:         rounds,
		Logger:         svc.logger,
		DispatchLogger: logging.NewDispatcherLogger(logging.NewZerolog(f, level, "dispatcher")),
		Version:        Version,
		BuildDate:      BuildDate,
	}
	if svc.history != nil {
		opts.History = svc.history
	}
	svc.game, err = game.New(opts)
	if err != nil {
		svc.close()
		return nil, fmt.Errorf("starting game: %w", err)
	}
	return svc, nil
}

// setupStorage picks the prefs backend and the round history sinks. Any
// failure degrades to in-memory prefs; the game still runs.
func (svc *services) setupStorage(w io.Writer, level, logsDir string, start time.Time) (prefs.Store, history.Sink) {
	var sinks history.Multi
	var store prefs.Store = prefs.NewMemory()

	storageCfg := config.GetStorageConfig()
	svc.db = database.NewManager(logging.NewZerolog(w, level, "database"))
	err := svc.db.Connect(storageCfg, config.GetDBConfig())
	switch {
	case errors.Is(err, database.ErrNoDatabase):
	case err != nil:
		svc.logger.Error("Database unavailable, scores will not persist", "error", err)
	default:
		g, err := prefs.NewGorm(svc.db.DB)
		if err != nil {
			svc.logger.Error("Failed to prepare prefs table", "error", err)
			break
		}
		store = g
		if storageCfg.HistoryEnabled {
			rec, err := history.NewRecorder(svc.db.DB)
			if err != nil {
				svc.logger.Error("Failed to prepare round history", "error", err)
			} else {
				svc.history = rec
				sinks = append(sinks, rec)
			}
		}
	}

	if influxCfg := config.GetInfluxConfig(); influxCfg.Enabled {
		backup := filepath.Join(logsDir, fmt.Sprintf("%s_rounds_%s.lp.gz", binaryName, start.Format("20060102_150405")))
		s, err := influx.NewSink(influxCfg, logging.NewZerolog(w, level, "influx"), backup)
		if err != nil {
			svc.logger.Error("Failed to set up InfluxDB export", "error", err)
		} else {
			svc.influx = s
			sinks = append(sinks, s)
		}
	}

	if len(sinks) == 0 {
		return store, nil
	}
	return store, sinks
}

func (svc *services) close() {
	if svc.game != nil {
		svc.game.Close()
	}
	if svc.influx != nil {
		if err := svc.influx.Close(); err != nil {
			svc.logger.Error("Failed to close InfluxDB sink", "error", err)
		}
	}
	if svc.db != nil {
		if err := svc.db.Close(); err != nil {
			svc.logger.Error("Failed to close database", "error", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if svc.otel != nil {
		if err := svc.otel.Shutdown(ctx); err != nil {
			svc.logger.Error("Failed to shut down OTel", "error", err)
		}
	}
	for _, c := range svc.closers {
		_ = c.Close()
	}
	svc.closers = nil
	if svc.logFile != nil {
		_ = svc.logFile.Close()
		svc.logFile = nil
	}
}
