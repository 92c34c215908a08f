// Command arena is the command-line front end for building, running,
// serving and verifying matches of the sandboxed bot-combat engine.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/1siamBot/sandbox-arena/engine/apiserver"
	"github.com/1siamBot/sandbox-arena/engine/config"
	"github.com/1siamBot/sandbox-arena/engine/match"
	"github.com/1siamBot/sandbox-arena/engine/replay"
	"github.com/1siamBot/sandbox-arena/engine/squad"
)

type runCmd struct {
	BlueSquad string `long:"blue" description:"path to the blue squad JSON file" required:"true"`
	RedSquad  string `long:"red" description:"path to the red squad JSON file" required:"true"`
	Level     string `long:"level" description:"path to the level JSON file" required:"true"`
	Out       string `long:"out" description:"path to write the gzip-compressed replay to"`
	EnvFile   string `long:"env" description:"path to a .env file" default:".env"`
}

type serveCmd struct {
	Addr    string `long:"addr" description:"HTTP bind address, overrides ARENA_HTTP_ADDR"`
	EnvFile string `long:"env" description:"path to a .env file" default:".env"`
}

type replayVerifyCmd struct {
	Path string `long:"path" description:"path to a recorded replay file" required:"true"`
}

type options struct {
	Run          runCmd          `command:"run" description:"build two squads against a level and run the match to completion"`
	Serve        serveCmd        `command:"serve" description:"serve the HTTP/websocket match API"`
	ReplayVerify replayVerifyCmd `command:"replay-verify" description:"load and strictly replay a recorded match"`
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().Timestamp().Logger()
}

func loadSquad(path string) (squad.Squad, error) {
	var s squad.Squad
	b, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	err = json.Unmarshal(b, &s)
	return s, err
}

func loadLevel(path string) (match.Level, error) {
	var lvl match.Level
	b, err := os.ReadFile(path)
	if err != nil {
		return lvl, err
	}
	err = json.Unmarshal(b, &lvl)
	return lvl, err
}

func runMatch(cmd runCmd) error {
	cfg := config.Load(cmd.EnvFile)
	log := newLogger(cfg.LogLevel)

	blue, err := loadSquad(cmd.BlueSquad)
	if err != nil {
		return fmt.Errorf("load blue squad: %w", err)
	}
	red, err := loadSquad(cmd.RedSquad)
	if err != nil {
		return fmt.Errorf("load red squad: %w", err)
	}
	level, err := loadLevel(cmd.Level)
	if err != nil {
		return fmt.Errorf("load level: %w", err)
	}

	driver, err := match.Build(blue, red, level, cfg.DefaultGas, log)
	if err != nil {
		return fmt.Errorf("build match: %w", err)
	}

	outPath := cmd.Out
	if outPath == "" {
		outPath = cfg.ReplayDir + "/match.replay"
	}
	rec, err := replay.NewRecorder(outPath, replay.TakeSnapshot(driver.State()))
	if err != nil {
		return fmt.Errorf("open recorder: %w", err)
	}
	driver.AttachRecorder(rec)

	driver.Run()
	if err := rec.Close(); err != nil {
		return fmt.Errorf("close recorder: %w", err)
	}

	winner, ok := driver.Winner()
	if ok {
		log.Info().Uint64("tick", driver.Tick()).Uint8("winner", uint8(winner)).Msg("match finished")
	} else {
		log.Info().Uint64("tick", driver.Tick()).Msg("match finished in a draw")
	}
	return nil
}

func serve(cmd serveCmd) error {
	cfg := config.Load(cmd.EnvFile)
	log := newLogger(cfg.LogLevel)
	addr := cfg.HTTPAddr
	if cmd.Addr != "" {
		addr = cmd.Addr
	}

	registry := apiserver.NewRegistry()
	metrics := apiserver.NewMetrics(prometheus.DefaultRegisterer)
	srv := apiserver.NewServer(registry, metrics, log)

	log.Info().Str("addr", addr).Msg("starting arena API server")
	return http.ListenAndServe(addr, srv)
}

func verifyReplay(cmd replayVerifyCmd) error {
	script, err := replay.Load(cmd.Path)
	if err != nil {
		return fmt.Errorf("load replay: %w", err)
	}
	if _, err := replay.Replay(script); err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	fmt.Printf("replay verified: %d frames\n", len(script.Frames))
	return nil
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		if command == nil {
			return nil
		}
		switch parser.Active.Name {
		case "run":
			return runMatch(opts.Run)
		case "serve":
			return serve(opts.Serve)
		case "replay-verify":
			return verifyReplay(opts.ReplayVerify)
		}
		return nil
	}
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(1)
	}
}
