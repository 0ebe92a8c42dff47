package main

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>
*/
import "C" // This is required to build the c-shared library

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/SmartTank/extension/internal/cache"
	"github.com/SmartTank/extension/internal/config"
	"github.com/SmartTank/extension/internal/database"
	"github.com/SmartTank/extension/internal/dispatcher"
	"github.com/SmartTank/extension/internal/fuel"
	"github.com/SmartTank/extension/internal/handlers"
	"github.com/SmartTank/extension/internal/logging"
	"github.com/SmartTank/extension/internal/model"
	"github.com/SmartTank/extension/internal/storage"
	"github.com/SmartTank/extension/internal/storage/factory"
	"github.com/SmartTank/extension/internal/storage/memory"
	"github.com/SmartTank/extension/internal/util"
	"github.com/SmartTank/extension/internal/worker"
	"github.com/SmartTank/extension/pkg/hostabi"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentExtensionVersion string = "0.0.1"
	BuildDate               string = "unknown"

	ExtensionName string = "smart_tank"
)

// file paths
var (
	// ModuleFolder holds the library, its config file and the fuel catalog.
	ModuleFolder string

	LogFilePath string
	LogFile     *os.File
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// zlog is handed to the dispatcher, journal worker and storage backends
	zlog zerolog.Logger

	SessionStartTime time.Time = time.Now()

	// Tanks holds the controller of every tank the host has set up
	Tanks *cache.TankCache = cache.NewTankCache()

	// Services
	handlerService  *handlers.Service
	workerManager   *worker.Manager
	eventDispatcher *dispatcher.Dispatcher

	storageBackend storage.Backend
	storageReady   = make(chan struct{})
	storageOnce    sync.Once
)

// init is run automatically when the module is loaded
func init() {
	var err error

	ModuleFolder = hostabi.ModuleDir()

	// Initialize slog manager with initial config
	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil, nil)
	Logger = SlogManager.Logger()

	// load config
	err = config.Load(ModuleFolder)
	if err != nil {
		config.SetDefaults()
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	} else {
		Logger.Info("Loaded config")
	}

	logsDir := resolvePath(viper.GetString("logsDir"))
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		Logger.Error("Failed to create logs directory", "error", err, "path", logsDir)
	}

	LogFilePath = logging.LogFilePath(logsDir, ExtensionName, SessionStartTime)

	// keep the previous log of the same second around
	if _, err := os.Stat(LogFilePath); err == nil {
		_ = os.Rename(LogFilePath, LogFilePath+".old")
	}

	LogFile, err = os.OpenFile(LogFilePath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		Logger.Error("Failed to create/open log file!", "error", err, "path", LogFilePath)
		LogFile = nil
	}

	var remote io.Writer
	if viper.GetBool("graylog.enabled") {
		gw, err := logging.NewGelfWriter(viper.GetString("graylog.address"))
		if err != nil {
			Logger.Error("Failed to connect to Graylog", "error", err)
		} else {
			remote = gw
		}
	}

	// Re-setup logging with file output, optional GELF and the session/tank context
	var file io.Writer
	if LogFile != nil {
		file = LogFile
	}
	SlogManager.Setup(file, viper.GetString("logLevel"), remote, logContext)
	Logger = SlogManager.Logger()
	Logger.Info("Logging to file", "path", LogFilePath)

	zlog = logging.NewZerolog(viper.GetString("logLevel"), file)

	Logger.Info("Setting up host interface...")
	if err = setupHostInterface(); err != nil {
		Logger.Error("Failed to set up host interface!", "error", err)
		panic(err)
	}
	Logger.Info("Set up host interface")

	if err = startServices(); err != nil {
		Logger.Error("Failed to start services", "error", err)
	}

	go func() {
		if err := initStorage(); err != nil {
			Logger.Error("Storage initialization failed", "error", err)
		}
	}()
}

// logContext adds the journal session and the number of known tanks to every record.
func logContext() []slog.Attr {
	attrs := []slog.Attr{slog.Int("tanks", Tanks.Len())}
	if workerManager != nil {
		if id := workerManager.SessionID(); id != "" {
			attrs = append(attrs, slog.String("session", id))
		}
	}
	return attrs
}

// resolvePath makes a relative config path relative to the module folder.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ModuleFolder, p)
}

func setupHostInterface() error {
	hostabi.SetVersion(CurrentExtensionVersion)

	d, err := dispatcher.New(logging.NewDispatcherLogger(zlog))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	registerLifecycleHandlers(d)
	hostabi.SetDispatcher(d)
	eventDispatcher = d

	Logger.Info("Dispatcher initialized with lifecycle handlers")
	return nil
}

// startServices creates the journal worker and the tank handlers. The backend is
// created here but initialized later by initStorage, so tank commands work at once.
func startServices() error {
	functionName := "startServices"

	catalog, err := fuel.LoadCatalog(resolvePath(viper.GetString("fuel.catalogPath")))
	if err != nil {
		SlogManager.WriteLog(functionName, fmt.Sprintf("Error loading fuel catalog, using stock tank types: %v", err), "ERROR")
		catalog = fuel.DefaultCatalog()
	}
	bodies, err := config.GetBodies()
	if err != nil {
		SlogManager.WriteLog(functionName, fmt.Sprintf("Error reading bodies, using stock system: %v", err), "ERROR")
		bodies = nil
	}

	journalCfg := config.GetJournalConfig()
	journalCfg.Memory.OutputDir = resolvePath(journalCfg.Memory.OutputDir)
	journalCfg.SQLite.Path = resolvePath(journalCfg.SQLite.Path)
	journalCfg.Influx.BackupPath = resolvePath(journalCfg.Influx.BackupPath)

	storageBackend, err = factory.NewBackend(journalCfg, zlog.With().Str("component", "storage").Logger())
	if err != nil {
		SlogManager.WriteLog(functionName, fmt.Sprintf("Error creating %s journal, journaling disabled: %v", journalCfg.Type, err), "ERROR")
		storageBackend = storage.Discard{}
	}

	workerManager = worker.NewManager(worker.Dependencies{
		Logger:           zlog.With().Str("component", "worker").Logger(),
		ExtensionVersion: CurrentExtensionVersion,
	}, storageBackend)
	workerManager.RegisterHandlers(eventDispatcher)

	handlerService = handlers.NewService(handlers.Dependencies{
		Tanks:          Tanks,
		Catalog:        catalog,
		Bodies:         bodies,
		Defaults:       config.GetTankDefaults(),
		DefaultTexture: viper.GetString("tank.defaultTexture"),
		Journal:        workerManager,
		LogManager:     SlogManager,
	})
	handlerService.RegisterHandlers(eventDispatcher)

	SlogManager.WriteLog(functionName, "Services started successfully", "INFO")
	return nil
}

// initStorage connects the journal backend and opens the first session.
func initStorage() error {
	defer storageOnce.Do(func() { close(storageReady) })

	if err := storageBackend.Init(); err != nil {
		return fmt.Errorf("failed to initialize storage backend: %w", err)
	}
	if _, err := workerManager.StartSession(sessionMeta()); err != nil {
		return err
	}
	Logger.Info("Journal storage initialized", "type", viper.GetString("journal.type"))
	return nil
}

func sessionMeta() map[string]any {
	d := config.GetTankDefaults()
	return map[string]any{
		"diameterMatching": d.DiameterMatching,
		"fuelMatching":     d.FuelMatching,
		"autoScale":        d.AutoScale,
		"atmospheric":      d.Atmospheric,
		"targetTWR":        d.TargetTWR,
		"bodyForTWR":       d.BodyForTWR,
		"buildDate":        BuildDate,
	}
}

// JournalStatus is returned by :JOURNAL:STATUS:.
type JournalStatus struct {
	Type         string                   `json:"type"`
	SessionID    string                   `json:"sessionId"`
	Tanks        int                      `json:"tanks"`
	QueueLengths *model.WriteQueueLengths `json:"queueLengths,omitempty"`
}

// registerLifecycleHandlers registers system/lifecycle command handlers with the dispatcher
func registerLifecycleHandlers(d *dispatcher.Dispatcher) {
	// Simple queries - sync return is sufficient
	d.Register(":VERSION:", func(e dispatcher.Event) (any, error) {
		return []string{CurrentExtensionVersion, BuildDate}, nil
	})

	d.Register(":GETDIR:MODULE:", func(e dispatcher.Event) (any, error) {
		return ModuleFolder, nil
	})

	d.Register(":GETDIR:LOG:", func(e dispatcher.Event) (any, error) {
		return LogFilePath, nil
	})

	// The host's own log lines: [level, message]
	d.Register(":LOG:", func(e dispatcher.Event) (any, error) {
		if len(e.Args) < 2 {
			return nil, fmt.Errorf("%w: expected level and message", handlers.ErrInvalidRequest)
		}
		level := util.TrimQuotes(e.Args[0])
		SlogManager.WriteLog(":LOG:", util.UnquoteArg(e.Args[1]), strings.ToUpper(level))
		return "ok", nil
	})

	d.Register(":JOURNAL:STATUS:", func(e dispatcher.Event) (any, error) {
		status := JournalStatus{
			Type:  viper.GetString("journal.type"),
			Tanks: Tanks.Len(),
		}
		if workerManager != nil {
			status.SessionID = workerManager.SessionID()
			if q, ok := workerManager.QueueLengths(); ok {
				status.QueueLengths = &q
			}
		}
		return status, nil
	})

	// A new craft: forget every tank and start a fresh journal session
	d.Register(":SESSION:START:", func(e dispatcher.Event) (any, error) {
		<-storageReady
		Tanks.Reset()
		s, err := workerManager.StartSession(sessionMeta())
		if err != nil {
			return nil, err
		}
		return s.ID, nil
	})

	d.Register(":SESSION:END:", func(e dispatcher.Event) (any, error) {
		<-storageReady
		if err := workerManager.EndSession(); err != nil {
			return nil, err
		}
		if exp, ok := storageBackend.(storage.Exportable); ok {
			return exp.GetExportedFilePath(), nil
		}
		return "ok", nil
	})

	// Host is unloading: drain the journal queues, then close the session and backend
	d.Register(":SHUTDOWN:", func(e dispatcher.Event) (any, error) {
		go shutdown()
		return "ok", nil
	})
}

func shutdown() {
	<-storageReady
	Logger.Info("Shutting down")
	eventDispatcher.Close()
	if err := workerManager.EndSession(); err != nil && err != worker.ErrNoSession {
		Logger.Error("Failed to end journal session", "error", err)
	}
	if err := storageBackend.Close(); err != nil {
		Logger.Error("Failed to close storage backend", "error", err)
	}
	if err := SlogManager.Close(); err != nil {
		Logger.Warn("Failed to close remote log sink", "error", err)
	}
	if LogFile != nil {
		_ = LogFile.Close()
	}
}

//////////////////////////////////////////////////////////////
// Direct (exe) functions
//////////////////////////////////////////////////////////////

// setupDB creates the journal tables on the configured Postgres database
func setupDB() error {
	mgr := database.NewManager(zlog)
	mgr.BackupPath = resolvePath(viper.GetString("journal.sqlite.path"))
	if err := mgr.Connect(); err != nil {
		return err
	}
	defer mgr.Close()
	return mgr.Setup()
}

// migrateBackupsSqlite moves every SQLite journal dump in the module folder into Postgres
func migrateBackupsSqlite() error {
	paths, err := database.BackupPaths(filepath.Dir(resolvePath(viper.GetString("journal.sqlite.path"))))
	if err != nil {
		return fmt.Errorf("error getting backup database paths: %w", err)
	}
	db, err := database.OpenPostgres()
	if err != nil {
		return fmt.Errorf("error getting postgres database: %w", err)
	}
	_, err = database.MigrateBackups(db, paths, zlog)
	return err
}

// exportSessions writes the journal of each stored session as a JSON export
func exportSessions(ids []string) error {
	db, err := database.OpenPostgres()
	if err != nil {
		return fmt.Errorf("error getting postgres database: %w", err)
	}

	cfg := config.GetJournalConfig().Memory
	cfg.OutputDir = resolvePath(cfg.OutputDir)
	for _, id := range ids {
		txStart := time.Now()
		j, err := database.LoadSession(db, id)
		if err != nil {
			return err
		}

		b := memory.New(cfg)
		if err := b.StartSession(&j.Session); err != nil {
			return err
		}
		for i := range j.Shapes {
			_ = b.RecordShapeChange(&j.Shapes[i])
		}
		for i := range j.Fuels {
			_ = b.RecordFuelChange(&j.Fuels[i])
		}
		for i := range j.Lengths {
			_ = b.RecordLengthChange(&j.Lengths[i])
		}
		if err := b.EndSession(); err != nil {
			return fmt.Errorf("error exporting session %s: %w", id, err)
		}
		fmt.Println("Exported", id, "to", b.GetExportedFilePath(), "in", time.Since(txStart))
	}
	return nil
}

func main() {
	var err error
	Logger.Info("Starting up...")

	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Println("No arguments provided.")
		return
	}

	switch strings.ToLower(args[0]) {
	case "setupdb":
		err = setupDB()
		if err == nil {
			Logger.Info("DB setup complete.")
		}
	case "migratebackups":
		err = migrateBackupsSqlite()
		if err == nil {
			Logger.Info("Finished migrating backups.")
		}
	case "getjson":
		if len(args) < 2 {
			fmt.Println("No session IDs provided.")
			return
		}
		err = exportSessions(args[1:])
	case "commands":
		for _, c := range eventDispatcher.Commands() {
			fmt.Println(c)
		}
	default:
		fmt.Printf("Unknown command %q.\n", args[0])
	}
	if err != nil {
		panic(err)
	}
}
