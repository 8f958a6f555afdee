package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/pkg/cache"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// cacheclear 清空全部页面缓存
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	_ = logger.Init(cfg.Log.Level, "console")
	defer logger.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := cache.NewClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer client.Close()

	start := time.Now()
	if err := cache.NewRedisStore(client, cfg.Cache.Prefix).Clear(ctx); err != nil {
		logger.Fatal("clear cache", zap.Error(err))
	}
	logger.Info("page cache cleared",
		zap.String("prefix", cfg.Cache.Prefix),
		zap.Duration("took", time.Since(start)),
	)
}
