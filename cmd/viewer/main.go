// Command viewer opens a window on one scenario and animates the engine
// through the world actor.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/config"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/logging"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/internal/scenario"
	"github.com/lao-tseu-is-alive/go-colreg-simulation/pkg/viewer"
)

func main() {
	fs := pflag.NewFlagSet("viewer", pflag.ExitOnError)
	configPath := fs.String("config", "", "JSON or YAML configuration file")
	height := fs.Int("height", 720, "chart height in pixels")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: viewer [flags] scenario.json")
		fs.PrintDefaults()
	}
	_ = fs.Parse(os.Args[1:])
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(viper.New(), fs, *configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, closer, err := logging.New(os.Stderr, logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer closer.Close()

	sc, err := scenario.Load(fs.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("ColregWorld",
		actor.WithLogger(golog.DiscardLogger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		log.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer system.Stop(ctx)

	game, err := viewer.NewGame(ctx, system, sc.Fleet(), cfg.ScenarioParams(sc), viewer.Options{
		Title:   sc.Name,
		MapSize: sc.MapSize,
		Height:  *height,
		Logger:  logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(game.Layout(0, 0))
	ebiten.SetWindowTitle("COLREG simulation: " + sc.Name)
	if err := ebiten.RunGame(game); err != nil {
		logger.Error("viewer stopped", "error", err)
	}
}
