package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"QChat/assets"
	"QChat/config"
	"QChat/logger"
	mid "QChat/middleware"
	msghandler "QChat/module/message"
	msgservice "QChat/module/message/service"
	userhandler "QChat/module/user"
	userservice "QChat/module/user/service"
	"QChat/service/chat"
	"QChat/storage/mgo"
	"QChat/storage/redisx"
	"QChat/tools/security"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Errorf("config: %v", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mgo.Connect(ctx, &mgo.Config{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDatabase,
	})
	if err != nil {
		logger.Errorf("mongo: %v", err)
		return
	}
	defer func() { _ = mongoClient.Close(context.Background()) }()

	db := mongoClient.DB()
	if err := userservice.EnsureIndexes(ctx, db); err != nil {
		logger.Errorf("user indexes: %v", err)
		return
	}
	if err := msgservice.EnsureIndexes(ctx, db); err != nil {
		logger.Errorf("message indexes: %v", err)
		return
	}

	rdb, err := redisx.Open(redisx.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		logger.Errorf("redis: %v", err)
		return
	}
	defer func() { _ = rdb.Close() }()

	assetStore := assets.NewRedisStore(rdb)

	jwtOpts := security.DefaultOptions([]byte(cfg.JWTSecret))
	jwtOpts.TTL = cfg.JWTTTL

	userSvc := userservice.New(userservice.NewMongoStore(db), assetStore, jwtOpts)

	gateway := chat.NewGateway(chat.NewPresence(), userSvc.VerifyToken)
	defer gateway.Close()

	msgSvc := msgservice.New(msgservice.NewMongoStore(db), assetStore, gateway)

	r := gin.New()
	r.Use(gin.Recovery(), mid.CORS(), mid.BodyLimit(cfg.MaxBodyBytes))

	auth := mid.Auth(userSvc)
	r.GET("/api/status", func(c *gin.Context) { c.String(http.StatusOK, "server is live") })
	r.GET("/ws", gateway.HandleWS)
	r.GET("/api/assets/:id", assets.NewHandler(assetStore).Serve)
	userhandler.NewHandler(userSvc).Register(r, auth)
	msghandler.NewHandler(msgSvc, userSvc).Register(r, auth)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		logger.Infof("[http] listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("[http] server failed: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
