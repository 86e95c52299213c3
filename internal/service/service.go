package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/go-resty/resty/v2"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/marcin93w/sonos-alarm/internal/config"
	"github.com/marcin93w/sonos-alarm/internal/engine"
	"github.com/marcin93w/sonos-alarm/internal/repository"
	"github.com/marcin93w/sonos-alarm/internal/sonos"
	"github.com/marcin93w/sonos-alarm/internal/store"
)

// Service 服务装配（整合各层）
type Service struct {
	cfg    *config.Config
	logger *zap.Logger

	db        *sql.DB
	kv        store.KV
	transport *resty.Client

	userRegistry *repository.UserRegistry
	rampConfigs  *repository.RampConfigRepository
	sessions     *store.SessionStore
	engine       *engine.Engine
}

// New 创建服务
func New(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	if cfg.Sonos.ClientID == "" || cfg.Sonos.ClientSecret == "" {
		return nil, fmt.Errorf("SONOS_CLIENT_ID and SONOS_CLIENT_SECRET are required")
	}

	// 1. 连接数据库
	db, err := sql.Open("postgres", buildDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := repository.EnsureSchema(db); err != nil {
		return nil, err
	}

	// 2. 选择 KV 后端
	var kv store.KV
	switch cfg.Store.Backend {
	case "memory":
		logger.Warn("using in-memory KV store, tokens will not survive restarts")
		kv = store.NewMemoryKV()
	default:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		kv = store.NewRedisKV(redisClient)
	}

	// 3. 出站 HTTP 客户端（全部上游调用共享）
	transport := sonos.NewTransport(sonos.TransportConfig{
		Timeout:     cfg.Transport.Timeout,
		Retries:     cfg.Transport.Retries,
		BackoffBase: cfg.Transport.BackoffBase,
	}, logger)

	return &Service{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		kv:           kv,
		transport:    transport,
		userRegistry: repository.NewUserRegistry(db, logger),
		rampConfigs:  repository.NewRampConfigRepository(db, logger),
		sessions:     store.NewSessionStore(kv),
		engine:       engine.NewEngine(logger),
	}, nil
}

// ClientFor 为指定用户构造 API 客户端
// 令牌、报警缓存、配置都是按用户隔离的资源，绝不跨用户共享
func (s *Service) ClientFor(userID string) *sonos.Client {
	tokenStore := store.NewTokenStore(s.kv, userID)
	lifecycle := sonos.NewTokenLifecycle(
		s.cfg.Sonos.OAuthBase,
		s.cfg.Sonos.ClientID,
		s.cfg.Sonos.ClientSecret,
		tokenStore,
		s.transport,
		s.logger.With(zap.String("user_id", userID)),
	)
	return sonos.NewClient(
		s.cfg.Sonos.OAuthBase,
		s.cfg.Sonos.APIBase,
		s.cfg.Sonos.ClientID,
		lifecycle,
		s.transport,
		s.logger.With(zap.String("user_id", userID)),
	)
}

// AlarmStoreFor 用户的报警缓存
func (s *Service) AlarmStoreFor(userID string) *store.AlarmStore {
	return store.NewAlarmStore(s.kv, userID)
}

// Sessions 会话存储
func (s *Service) Sessions() *store.SessionStore {
	return s.sessions
}

// UserRegistry 用户仓库
func (s *Service) UserRegistry() *repository.UserRegistry {
	return s.userRegistry
}

// RampConfigs 渐升配置仓库
func (s *Service) RampConfigs() *repository.RampConfigRepository {
	return s.rampConfigs
}

// Config 服务配置
func (s *Service) Config() *config.Config {
	return s.cfg
}

// AuthenticateWithCode 授权码换令牌并落到对应用户名下
// 用户ID 在拿到令牌之前未知：先用临时存储交换授权码，
// 再用新令牌查询家庭，以第一个家庭ID 作为用户ID 保存并注册
func (s *Service) AuthenticateWithCode(ctx context.Context, code string) (string, error) {
	tmpStore := store.NewTokenStore(store.NewMemoryKV(), "pending")
	lifecycle := sonos.NewTokenLifecycle(
		s.cfg.Sonos.OAuthBase,
		s.cfg.Sonos.ClientID,
		s.cfg.Sonos.ClientSecret,
		tmpStore,
		s.transport,
		s.logger,
	)

	tokenSet, err := lifecycle.ExchangeAuthCode(ctx, code, s.cfg.Sonos.RedirectURI)
	if err != nil {
		return "", fmt.Errorf("auth code exchange failed: %w", err)
	}

	client := sonos.NewClient(
		s.cfg.Sonos.OAuthBase,
		s.cfg.Sonos.APIBase,
		s.cfg.Sonos.ClientID,
		lifecycle,
		s.transport,
		s.logger,
	)
	households, err := client.GetHouseholds(ctx)
	if err != nil {
		return "", err
	}
	if len(households) == 0 {
		return "", fmt.Errorf("no sonos households found")
	}
	userID := households[0].Key()

	if err := store.NewTokenStore(s.kv, userID).SaveTokenSet(ctx, tokenSet); err != nil {
		return "", err
	}
	if err := s.userRegistry.Register(userID); err != nil {
		return "", err
	}

	s.logger.Info("user authenticated",
		zap.String("user_id", userID),
	)
	return userID, nil
}

// Close 释放资源
func (s *Service) Close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", zap.Error(err))
		}
	}
}

// buildDSN 构造 Postgres 连接串
func buildDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)
}
