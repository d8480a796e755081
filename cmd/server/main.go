package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/mkarel/portfolio-api/internal/auth"
	"github.com/mkarel/portfolio-api/internal/config"
	"github.com/mkarel/portfolio-api/internal/database"
	"github.com/mkarel/portfolio-api/internal/handler"
	"github.com/mkarel/portfolio-api/internal/queue"
	"github.com/mkarel/portfolio-api/internal/repository"
	"github.com/mkarel/portfolio-api/internal/router"
	"github.com/mkarel/portfolio-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, response cache disabled")
	}

	userRepo := repository.NewUserRepo(db)
	testimonialRepo := repository.NewTestimonialRepo(db)
	projectRepo := repository.NewProjectRepo(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	audit := service.NewAMQPAuditPublisher(cfg.AMQPURL)
	identity := service.NewIdentityService(userRepo, tokens, audit, cfg.BcryptCost)
	testimonials := service.NewTestimonialService(testimonialRepo, audit)

	go queue.StartAuditConsumer(cfg.AMQPURL)

	e := echo.New()
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(identity),
		OAuth:        handler.NewOAuthHandler(cfg, identity),
		Users:        handler.NewUserHandler(userRepo, identity),
		Testimonials: handler.NewTestimonialHandler(testimonials),
		Projects:     handler.NewProjectHandler(projectRepo),
	}, tokens, userRepo, config.LoadCacheConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
