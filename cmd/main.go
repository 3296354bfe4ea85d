package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"PariMarket/internal/api"
	"PariMarket/internal/config"
	"PariMarket/internal/ledger"
	"PariMarket/internal/logging"
	"PariMarket/internal/service"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	// 1. 加载配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("加载配置文件失败: %v", err)
	}

	// 2. 初始化日志
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.Info("配置文件加载成功")

	// 3. 账本只存在于进程内存，由 main 持有并注入服务层
	market := ledger.New()
	svc := service.NewMarketService(market, service.BetLimits{
		Min: cfg.Market.MinBet,
		Max: cfg.Market.MaxBet,
	}, logger)

	// 4. 配置Gin运行模式并注册路由
	gin.SetMode(cfg.Server.Mode)
	handler := api.NewMarketHandler(svc, logger)
	r := api.NewRouter(cfg.Server, handler, logger)
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// 5. 启动服务，收到 SIGINT/SIGTERM 后优雅退出
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("服务启动成功，端口：%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("启动服务失败: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("正在关闭服务…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("服务异常退出: %v", err)
	}
	logger.Info("服务已停止")
}
