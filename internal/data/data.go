package data

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	chatdata "github.com/lk2023060901/school-assistant-backend/internal/chatbot/data"
	"github.com/lk2023060901/school-assistant-backend/internal/conf"
	kbdata "github.com/lk2023060901/school-assistant-backend/internal/knowledge/data"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/database"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/logger"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/minio"
	"github.com/lk2023060901/school-assistant-backend/internal/pkg/redis"
)

// Data holds the shared backing stores. Each field is nil when its
// section is disabled.
type Data struct {
	DB     *database.DB
	Redis  *redis.Client
	MinIO  *minio.Client
	Bucket string
	logger *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	d := &Data{Bucket: config.MinIO.Bucket, logger: log}

	cleanup := func() {
		log.Info("cleaning up data resources")
		if d.DB != nil {
			if err := d.DB.Close(); err != nil {
				log.Warn("failed to close database", zap.Error(err))
			}
		}
		if d.Redis != nil {
			if err := d.Redis.Close(); err != nil {
				log.Warn("failed to close redis", zap.Error(err))
			}
		}
		if d.MinIO != nil {
			_ = d.MinIO.Close()
		}
	}

	if config.Database.Enabled {
		db, err := database.New(&config.Database.Config, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to init database: %w", err)
		}
		d.DB = db
		if config.Database.AutoMigrate {
			if err := db.AutoMigrate(&kbdata.KnowledgeEntryPO{}, &chatdata.ConversationPO{}); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("failed to auto migrate: %w", err)
			}
		}
		log.Info("database initialized")
	} else {
		log.Warn("database disabled, knowledge and conversations are kept in memory")
	}

	if config.Redis.Enabled {
		client, err := redis.New(&config.Redis.Config, log)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.Redis = client
		log.Info("redis initialized")
	}

	if config.MinIO.Enabled {
		client, err := minio.NewClient(config.MinIO.ClientConfig(), log.Logger)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to init minio: %w", err)
		}
		d.MinIO = client
		if err := d.ensureBucket(context.Background()); err != nil {
			cleanup()
			return nil, nil, err
		}
		log.Info("minio initialized", zap.String("bucket", d.Bucket))
	}

	return d, cleanup, nil
}

func (d *Data) ensureBucket(ctx context.Context) error {
	if err := d.MinIO.EnsureBucket(ctx, d.Bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to ensure bucket %s: %w", d.Bucket, err)
	}
	return nil
}

// Check pings every enabled store. Disabled stores report "disabled".
func (d *Data) Check(ctx context.Context) (map[string]string, bool) {
	status := map[string]string{
		"database": "disabled",
		"redis":    "disabled",
		"minio":    "disabled",
	}
	healthy := true

	if d.DB != nil {
		status["database"] = "ok"
		if err := d.DB.HealthCheck(ctx); err != nil {
			status["database"] = err.Error()
			healthy = false
		}
	}
	if d.Redis != nil {
		status["redis"] = "ok"
		if err := d.Redis.Ping(ctx); err != nil {
			status["redis"] = err.Error()
			healthy = false
		}
	}
	if d.MinIO != nil {
		status["minio"] = "ok"
		if err := d.MinIO.Ping(ctx, d.Bucket); err != nil {
			status["minio"] = err.Error()
			healthy = false
		}
	}
	return status, healthy
}
