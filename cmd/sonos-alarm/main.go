package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/marcin93w/sonos-alarm/internal/config"
	"github.com/marcin93w/sonos-alarm/internal/httpapi"
	"github.com/marcin93w/sonos-alarm/internal/logger"
	"github.com/marcin93w/sonos-alarm/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "sonos-alarm")
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建服务（数据库、KV、上游客户端）
	svc, err := service.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to create service", zap.Error(err))
	}
	defer svc.Close()

	// 4. 注册浏览器端点
	router := httpapi.NewRouter(log)
	handler := httpapi.NewHandler(svc, svc.Sessions(), log)
	router.RegisterRoutes(handler)

	server := service.NewServer(cfg.HTTP.Addr, router, log)
	worker := service.NewWorker(svc)

	// 5. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 6. 启动 HTTP 服务与调度循环
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		return server.Stop(shutdownCtx)
	})

	// 7. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
	case <-gctx.Done():
	}

	if err := g.Wait(); err != nil {
		log.Error("Service error", zap.Error(err))
	}
	log.Info("Service stopped")
}
