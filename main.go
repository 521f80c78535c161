package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"estatenexus/auth"
	"estatenexus/config"
	"estatenexus/identity"
	"estatenexus/logging"
	"estatenexus/scheduler"
	"estatenexus/server"
	"estatenexus/services"
	"estatenexus/session"
	"estatenexus/storage"
	"estatenexus/workers"
)

var (
	seedNow = flag.Bool("seed", false, "Load seed data into Postgres and exit")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("daemon.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting estatenexus...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	pgStore, err := storage.NewPostgresStore(ctx, cfg.Supabase.DBURL)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()
	log.Printf("Connected to Postgres: %s", maskConnectionString(cfg.Supabase.DBURL))

	if *seedNow {
		if err := runSeed(ctx, cfg, pgStore); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		log.Println("Seed complete!")
		return
	}

	sqliteStore, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqliteStore.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	cache, err := storage.NewCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.CacheTTL)
	if err != nil {
		log.Printf("Warning: Redis unavailable, running uncached: %v", err)
		cache = nil
	} else {
		defer cache.Close()
		log.Printf("Redis cache: %s (ttl %s)", cfg.Redis.Addr, cfg.Redis.CacheTTL)
	}

	listingService := services.NewListingService(pgStore, cache)
	companyService := services.NewCompanyService(pgStore)
	directoryService := services.NewDirectoryService(pgStore, sqliteStore, cache)
	importerService := services.NewImporterService()
	log.Println("Services initialized")

	authAPI := storage.NewSupabaseAuth(cfg.Supabase.URL, cfg.Supabase.AnonKey)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The daemon holds its own session for the service account; workers that
	// write on behalf of the platform wait until it resolves.
	sessionMgr := session.NewManager(&gotrueAuthenticator{api: authAPI}, pgStore)
	defer sessionMgr.Close()
	startServiceSession(ctx, sessionMgr, cfg)

	statsWorker := workers.NewStatsWorker(pgStore, directoryService)
	go statsWorker.Run(ctx, 30*time.Minute)
	log.Println("Stats worker started")

	if cfg.S3.Bucket != "" {
		mediaStore, err := storage.NewMediaStore(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to init media storage: %v", err)
		}
		mediaWorker := workers.NewMediaWorker(pgStore, mediaStore)
		go mediaWorker.Run(ctx, 20, 2*time.Minute)
		log.Println("Media worker started")
	} else {
		log.Println("No S3 bucket configured, media mirroring disabled")
	}

	sched := scheduler.New(&cfg.Scheduler, companyService, sqliteStore)
	sched.SetWorkers(statsWorker)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	srv := server.New(cfg.Server, server.Deps{
		Verifier:  auth.NewTokenVerifier(cfg.Supabase.JWTSecret),
		Identity:  pgStore,
		Audit:     sqliteStore,
		Cache:     cache,
		Listings:  listingService,
		Directory: directoryService,
		Companies: companyService,
		Importer:  importerService,
		AuthAPI:   authAPI,
	})
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()
	log.Printf("HTTP server listening on %s", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// startServiceSession resolves the daemon's own identity. Failure is
// tolerated: the HTTP surface works without it, only platform-initiated
// writes stay disabled.
func startServiceSession(ctx context.Context, mgr *session.Manager, cfg *config.Config) {
	mgr.Start(ctx, "")
	if cfg.Service.Email == "" {
		log.Println("No service account configured")
		return
	}

	states, cancel := mgr.Subscribe()
	go func() {
		defer cancel()
		for st := range states {
			switch st.Phase {
			case session.PhaseSignedIn:
				log.Printf("Service session resolved (agent=%v)", st.Snapshot.IsPlatformAgent())
				return
			case session.PhaseSignedOut:
				// Initial Start settles to signed-out before SignIn completes;
				// keep waiting for the sign-in transition.
			}
		}
	}()

	go func() {
		if err := mgr.SignIn(ctx, cfg.Service.Email, cfg.Service.Password); err != nil {
			log.Printf("Service sign-in failed: %v", err)
		}
	}()
}

// runSeed loads the YAML fixtures into Postgres. Existing agents are
// upserted; properties already present (by address fingerprint) are skipped.
func runSeed(ctx context.Context, cfg *config.Config, store *storage.PostgresStore) error {
	seed, err := config.LoadSeed(cfg.SeedDir)
	if err != nil {
		return err
	}
	log.Printf("Seeding %d agents, %d properties from %s",
		len(seed.Agents), len(seed.Properties), cfg.SeedDir)

	for i := range seed.Agents {
		if err := store.UpsertAgent(ctx, &seed.Agents[i]); err != nil {
			return err
		}
	}

	var inserted, skipped int
	for i := range seed.Properties {
		p := &seed.Properties[i]
		fp := identity.Fingerprint(p.Location, p.Type)
		existing, err := store.GetPropertyByFingerprint(ctx, fp)
		if err != nil {
			return err
		}
		if existing != nil {
			skipped++
			continue
		}
		if err := store.InsertProperty(ctx, p, fp); err != nil {
			return err
		}
		inserted++
	}
	log.Printf("Properties: %d inserted, %d already present", inserted, skipped)
	return nil
}

// maskConnectionString masks the password in a connection string for logging.
func maskConnectionString(connStr string) string {
	start := 0
	for i := 0; i < len(connStr)-3; i++ {
		if connStr[i:i+3] == "://" {
			start = i + 3
			break
		}
	}
	if start == 0 {
		return connStr
	}

	colonIdx := -1
	atIdx := -1
	for i := start; i < len(connStr); i++ {
		if connStr[i] == ':' && colonIdx == -1 {
			colonIdx = i
		}
		if connStr[i] == '@' {
			atIdx = i
			break
		}
	}

	if colonIdx > 0 && atIdx > colonIdx {
		return connStr[:colonIdx+1] + "****" + connStr[atIdx:]
	}
	return connStr
}
