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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"channel-chat/config"
	"channel-chat/handlers"
	"channel-chat/repository"
	"channel-chat/services"
	"channel-chat/utils"
	"channel-chat/ws"
)

type stores struct {
	users       repository.UserRepository
	channels    repository.ChannelRepository
	memberships repository.MembershipRepository
	messages    repository.MessageRepository
	closers     []func() error
}

func openStores(cfg *config.Config) (*stores, error) {
	s := &stores{}
	if cfg.DBDriver == "memory" {
		s.users = repository.NewInMemoryUserRepo()
		s.channels = repository.NewInMemoryChannelRepo()
		s.memberships = repository.NewInMemoryMembershipRepo()
		s.messages = repository.NewInMemoryMessageRepo()
	} else {
		db, err := repository.OpenDB(cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, sqlDB.Close)
		s.users = repository.NewGormUserRepo(db)
		s.channels = repository.NewGormChannelRepo(db)
		s.memberships = repository.NewGormMembershipRepo(db)
		s.messages = repository.NewGormMessageRepo(db)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		s.closers = append(s.closers, rdb.Close)
		s.memberships = repository.NewCachedMembershipRepo(s.memberships, rdb, "chat:member:", cfg.MembershipCacheTTL)
		logrus.WithField("addr", cfg.RedisAddr).Info("membership cache enabled")
	}
	return s, nil
}

func (s *stores) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			logrus.WithError(err).Warn("error closing store")
		}
	}
}

func main() {
	cfg := config.Load()
	utils.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logrus.WithFields(logrus.Fields{
		"port":   cfg.Port,
		"driver": cfg.DBDriver,
	}).Info("starting chat server")

	st, err := openStores(&cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open stores")
	}
	defer st.Close()

	gate := services.NewGate(st.channels, st.memberships)
	authSvc := services.NewAuthService(st.users, &cfg)
	chanSvc := services.NewChannelService(st.channels, st.users, st.memberships, gate)
	msgSvc := services.NewMessageService(st.messages, st.users, gate, &cfg)

	hub := ws.NewHub(&cfg, gate, msgSvc, chanSvc)
	chanSvc.SetNotifier(hub)
	msgSvc.SetBroadcaster(hub)

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: handlers.NewRouter(handlers.Deps{
			Config:   &cfg,
			Auth:     authSvc,
			Channels: chanSvc,
			Messages: msgSvc,
			Hub:      hub,
		}),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logrus.Infof("chat server running on http://localhost:%s", cfg.Port)
		logrus.Infof("ws endpoint: ws://localhost:%s/ws?token=<token>", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logrus.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// hijacked websocket connections are not tracked by http.Server
		if err := server.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("http server forced to shutdown")
		}
		return hub.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Error("server exited with error")
		st.Close()
		os.Exit(1)
	}
	logrus.Info("server exited")
}
