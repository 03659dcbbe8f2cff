// Package main - main.go
//
// Fishing bot entry point. Wires capture, template matching, the fishing
// state machine and the UI surfaces together, then parks on the tray
// loop until quit or SIGTERM.
package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
)

const fishConfigFile = "fish_config.json"

// Bot bundles every long-lived component of the process.
type Bot struct {
	cfg     *Config
	data    *PersistentData
	catalog *FishCatalog
	library *TemplateLibrary
	source  *ScreenSource
	emitter *RobotgoEmitter
	machine *FishingStateMachine
	ctrl    *Controller
	tray    *TrayApp
}

// NewBot loads configuration and assets and wires all components.
func NewBot() (*Bot, error) {
	data := LoadData(dataFile)
	cfg := data.Config

	catalog, err := LoadFishCatalog(fishConfigFile)
	if err != nil {
		log.Warn().Err(err).Msg("no fish catalog, catches will be unclassified")
		catalog = NewFishCatalog(nil)
	} else {
		log.Info().Int("fishes", catalog.Count()).Msg("fish catalog loaded")
	}

	library, err := LoadTemplateLibrary(cfg.TemplateDir, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Int("templates", library.Len()).Msg("template library loaded")

	source := NewScreenSource(cfg)
	emitter := NewRobotgoEmitter(nil)
	stats := NewSessionStats()
	lanes := NewLaneResolver(cfg, emitter, ModuleLogger("lanes"))
	machine := NewFishingStateMachine(cfg, emitter, stats, lanes,
		NewTesseractIdentifier(catalog), catalog, ModuleLogger("machine"))

	catchLogPath := filepath.Join(logsDir, catchLogFile)
	machine.SetCatchLogger(func(success bool, fishType string) {
		entry := CatchLogEntry{
			Timestamp: time.Now().Format(time.RFC3339),
			Catch:     success,
			FishType:  fishType,
		}
		if err := AppendCatchLog(catchLogPath, entry); err != nil {
			log.Warn().Err(err).Msg("catch log append failed")
		}
	})

	ctrl := NewController(cfg, source, NewTemplateMatcher(cfg.MatchStride), library, machine, stats, ModuleLogger("controller"))
	ctrl.OnAttach = emitter.Rebind

	bot := &Bot{
		cfg:     cfg,
		data:    data,
		catalog: catalog,
		library: library,
		source:  source,
		emitter: emitter,
		machine: machine,
		ctrl:    ctrl,
	}
	bot.tray = NewTrayApp(cfg, ctrl, bot.shutdown)
	return bot, nil
}

// Run starts the hotkey listener and blocks on the tray loop.
func (b *Bot) Run() {
	SafeGo(func() { RunHotkeys(b.cfg, b.ctrl) })

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	SafeGo(func() {
		s := <-sig
		log.Info().Stringer("signal", s).Msg("signal received, shutting down")
		b.tray.Quit()
	})

	b.tray.Run()
}

// shutdown persists state on the way out. Runs once from the tray's
// exit hook.
func (b *Bot) shutdown() {
	if err := SaveData(dataFile, b.data); err != nil {
		log.Warn().Err(err).Msg("could not save configuration")
	}
	CloseLogger()
}

func main() {
	if err := InitLogger(); err != nil {
		panic(err)
	}
	log.Info().Msg("fishing bot starting")

	bot, err := NewBot()
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	bot.Run()
}
