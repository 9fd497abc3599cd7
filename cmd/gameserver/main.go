// Package main provides the game server binary: it loads monster content,
// populates the world, and runs the combat tick loop with websocket
// notifications and player progress persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yohamta/donburi"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/scripting"
	"github.com/cory-johannsen/dungeon/internal/server"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
	"github.com/cory-johannsen/dungeon/internal/transport"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	flushInterval := flag.Duration("progress-flush", 2*time.Second, "player progress persistence interval")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting game server",
		zap.String("server", cfg.Server.Name),
		zap.String("ws_addr", cfg.Transport.Addr()),
		zap.Duration("tick", cfg.GameServer.TickInterval),
	)

	// Monster content. Corrupt data at startup is not recoverable.
	contentStart := time.Now()
	catalog, err := monster.LoadCatalog(cfg.GameServer.MonstersDir)
	if err != nil {
		logger.Fatal("loading monster catalog", zap.Error(err))
	}
	spawns, err := monster.LoadSpawnTable(cfg.GameServer.SpawnsFile)
	if err != nil {
		logger.Fatal("loading spawn table", zap.Error(err))
	}
	if err := spawns.Validate(catalog); err != nil {
		logger.Fatal("validating spawn table", zap.Error(err))
	}
	logger.Info("monster content loaded",
		zap.Strings("monster_types", catalog.Types()),
		zap.Strings("maps", spawns.Maps()),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	src := dice.NewCryptoSource()
	world := donburi.NewWorld()
	spawner := monster.NewSpawner(src, observability.SystemLogger(logger, cfg.Server.Name, "spawner"))
	count, err := spawner.SpawnInitial(world, catalog, spawns)
	if err != nil {
		logger.Fatal("spawning initial monsters", zap.Error(err))
	}
	logger.Info("world populated", zap.Int("monsters", count))

	var formula combat.Formula = combat.NewStandardFormula(src)
	if cfg.GameServer.DamageScript != "" {
		scripted, err := scripting.LoadFormula(cfg.GameServer.DamageScript, scripting.DefaultInstructionLimit, src, formula, logger.Named("scripting"))
		if err != nil {
			logger.Fatal("loading damage script", zap.String("path", cfg.GameServer.DamageScript), zap.Error(err))
		}
		defer scripted.Close()
		formula = scripted
		logger.Info("damage script loaded", zap.String("path", cfg.GameServer.DamageScript))
	}

	// Connect to PostgreSQL for player progress persistence
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	if err := pool.CheckSchema(ctx); err != nil {
		logger.Fatal("checking database schema", zap.Error(err))
	}
	players := pool.Players()

	outbound := make(chan transport.Envelope, cfg.GameServer.OutboundBuffer)
	progress := make(chan combat.Progress, cfg.GameServer.OutboundBuffer)
	hub := transport.NewHub(cfg.Transport.WriteTimeout, logger.Named("transport"))

	engine := gameserver.NewEngine(gameserver.EngineConfig{
		ServerName:   cfg.Server.Name,
		World:        world,
		DefaultMap:   cfg.GameServer.DefaultMap,
		Catalog:      catalog,
		Spawns:       spawns,
		Spawner:      spawner,
		Formula:      formula,
		Notifier:     combat.NewNotifier(outbound, logger.Named("notifier")),
		RespawnDelay: cfg.GameServer.RespawnDelay,
		Progress:     progress,
	}, logger)

	ticks := gameserver.NewTickManager(cfg.GameServer.TickInterval)
	ticks.Register("engine", func(now time.Time) { engine.Tick(now) })

	writer := gameserver.NewProgressWriter(progress, players, *flushInterval, logger.Named("persistence"))

	hub.SetHooks(func(r *http.Request, addr string) error {
		id, err := uuid.Parse(r.URL.Query().Get("player"))
		if err != nil {
			return fmt.Errorf("parsing player id: %w", err)
		}
		name := r.URL.Query().Get("name")
		if name == "" {
			name = id.String()
		}
		return engine.Join(r.Context(), players, gameserver.PlayerJoin{ID: id, Name: name, ClientAddr: addr})
	}, func(addr string) {
		engine.Leave(addr)
	})

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	httpServer := &http.Server{Addr: cfg.Transport.Addr(), Handler: hub}
	services{
		database: server.NewContextService(func(ctx context.Context) error {
			return pool.Monitor(ctx, 30*time.Second, 5*time.Second, logger.Named("postgres"))
		}),
		persistence: server.NewContextService(writer.Run),
		notifications: server.NewContextService(func(ctx context.Context) error {
			return hub.Run(ctx, outbound)
		}),
		websocket: &server.FuncService{
			StartFn: func() error {
				logger.Info("websocket server listening", zap.String("addr", cfg.Transport.Addr()))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("serving websocket on %s: %w", cfg.Transport.Addr(), err)
				}
				return nil
			},
			StopFn: func() {
				shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				_ = httpServer.Shutdown(shutdownCtx)
			},
		},
		engine: server.NewContextService(ticks.Run),
	}.register(lifecycle)

	logger.Info("game server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("ws_addr", cfg.Transport.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
