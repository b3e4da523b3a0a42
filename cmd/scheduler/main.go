package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/remita/exchange-gateway/internal/config"
	gateway "github.com/remita/exchange-gateway/internal/gateways"
	"github.com/remita/exchange-gateway/internal/repository"
	"github.com/remita/exchange-gateway/internal/scheduler"
	"github.com/remita/exchange-gateway/pkg/logger"
	"github.com/remita/exchange-gateway/pkg/pg"
	"github.com/remita/exchange-gateway/pkg/prom"
	"github.com/remita/exchange-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	var hostname string
	hostname, err = os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	err = prom.Create(hostname, config.Get().AppEnv, config.Get().PromNamespace)
	if err != nil {
		logger.Error("failed to create prometheus metrics", "error", err)
		return
	}
	go func() {
		prom.ListenAndServer(":9100", "/metrics")
	}()

	attachments := gateway.NewAttachmentClient(
		config.Get().AttachmentStoreUrl,
		config.Get().StorageSigningSecret,
		time.Duration(config.Get().GatewayTimeout)*time.Second,
	)
	orderRepo := repository.NewOrderRepository(db)

	sched := scheduler.NewExpiryScheduler(orderRepo, attachments, redisAdap, config.Get().SchedulerRunHour)

	// --once runs a single expiry pass and exits, for cron-style deployments.
	if argContainsOnce() {
		if err := sched.Run(context.Background()); err != nil {
			logger.Error("expiry run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill, os.Interrupt, syscall.SIGTERM)

	go func() {
		sched.Start()
	}()

	select {
	case <-c:
		sched.Stop()
	}
}

func argContainsOnce() bool {
	for _, v := range os.Args {
		if v == "--once" {
			return true
		}
	}
	return false
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
