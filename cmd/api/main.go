package main

import (
	"context"
	"log"

	goredis "github.com/redis/go-redis/v9"

	"voicebox/internal/config"
	"voicebox/internal/handler"
	"voicebox/internal/lti"
	"voicebox/internal/repository"
	"voicebox/internal/server"
	"voicebox/internal/services"
	"voicebox/internal/session"
	"voicebox/internal/storage"
	"voicebox/pkg/database"
	"voicebox/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l := logger.New(cfg.Server.Environment)
	defer l.Logger.Sync()
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := repository.InitSchema(db); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	// Session store: Redis when an address is configured, process memory
	// otherwise.
	var store session.Store
	var memStore *session.MemoryStore
	if cfg.Redis.Addr != "" {
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		redisStore := session.NewRedisStore(client, cfg.Session.TTL)
		if err := redisStore.Ping(context.Background()); err != nil {
			log.Fatalf("Failed to reach redis at %s: %v", cfg.Redis.Addr, err)
		}
		store = redisStore
		l.Infof("session store: redis at %s", cfg.Redis.Addr)
	} else {
		memStore = session.NewMemoryStore(cfg.Session.TTL)
		store = memStore
		if cfg.IsProduction() {
			l.Warnf("REDIS_ADDR not set, sessions are process-local and drop on restart")
		}
		l.Infof("session store: in-memory, ttl %s", cfg.Session.TTL)
	}

	// Blob store: S3 when credentials are present, local disk otherwise.
	// The choice is made once and holds for the process lifetime.
	var blobs storage.BlobStore
	uploadsDir := ""
	if cfg.Storage.UseS3() {
		s3store, err := storage.NewS3Store(context.Background(), storage.S3Config{
			Region:    cfg.Storage.Region,
			Bucket:    cfg.Storage.Bucket,
			AccessKey: cfg.Storage.AccessKeyID,
			SecretKey: cfg.Storage.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to init S3 storage: %v", err)
		}
		blobs = s3store
		l.Infof("storage: s3 bucket %s (%s)", cfg.Storage.Bucket, cfg.Storage.Region)
	} else {
		local, err := storage.NewLocalStore(cfg.Storage.UploadDir)
		if err != nil {
			log.Fatalf("Failed to init local storage: %v", err)
		}
		blobs = local
		uploadsDir = local.Dir()
		l.Infof("storage: local dir %s", local.Dir())
	}

	repo := repository.NewSubmissionRepository(db)
	outcomes := services.NewOutcomeService(lti.NewOutcomeClient(cfg.LTI.Secret), l.Logger)
	submissions := services.NewSubmissionService(repo, blobs, outcomes)

	codec := session.NewCodec(cfg.Session.Secret)
	validator := lti.NewValidator(cfg.LTI.Secret)

	srv := server.New(cfg, l)
	srv.SetupRoutes(&server.Handlers{
		Launch:     handler.NewLaunchHandler(validator, store, codec, cfg),
		Submission: handler.NewSubmissionHandler(submissions),
	}, codec, store, db, uploadsDir)

	if memStore != nil {
		if err := srv.ScheduleSessionSweep(memStore); err != nil {
			log.Fatalf("Failed to schedule session sweep: %v", err)
		}
	}

	if err := srv.Start(); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
