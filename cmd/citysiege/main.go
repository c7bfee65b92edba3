package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Wishmaster117/mod-city-siege/internal/config"
	"github.com/Wishmaster117/mod-city-siege/internal/siege"
	"github.com/Wishmaster117/mod-city-siege/internal/world"
)

const defaultConfigPath = "config/citysiege.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := defaultConfigPath
	if p := os.Getenv("CITYSIEGE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	slog.Info("city siege starting", "log_level", cfg.LogLevel, "cities", len(cfg.Cities))

	sim := seedWorld(cfg)
	orc := siege.New(cfg, siege.Collaborators{
		Locator:  sim,
		Audience: sim,
		Ambience: sim,
		Rewarder: sim,
	})
	admin := siege.NewAdmin(orc)
	admin.SetReload(func() error {
		fresh, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		return orc.Reconfigure(fresh)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				sim.Step(time.Second)
				orc.Tick(now)
			}
		}
	})

	g.Go(func() error {
		return console(gctx, admin)
	})

	return g.Wait()
}

// console reads admin commands from stdin until the context closes.
func console(ctx context.Context, admin *siege.Admin) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			fmt.Println(admin.Execute(time.Now(), line))
		}
	}
}

// seedWorld builds the simulated world: one scene per configured
// region with each city leader standing at the objective.
func seedWorld(cfg *config.Config) *world.Sim {
	regions := make(map[int32]struct{})
	for i := range cfg.Cities {
		regions[cfg.Cities[i].RegionID] = struct{}{}
	}
	ids := make([]int32, 0, len(regions))
	for id := range regions {
		ids = append(ids, id)
	}

	sim := world.NewSim(ids...)
	for i := range cfg.Cities {
		city := &cfg.Cities[i]
		scene := sim.SimSceneByRegion(city.RegionID)
		if scene == nil {
			continue
		}
		leader := scene.SpawnNamed(city.ObjectiveTemplate, city.Objective, city.Name+" Leader")
		leader.SetLevel(cfg.Levels.Leader)
		slog.Debug("seeded city leader", "city", city.Name, "id", leader.ID())
	}
	return sim
}
