package main

import (
	"context"
	"log"
	"net/http"

	"ticketpro/config"
	"ticketpro/internal/cache"
	"ticketpro/internal/database"
	"ticketpro/internal/handler"
	"ticketpro/internal/middleware"
	"ticketpro/internal/notification"
	"ticketpro/internal/repository"
	"ticketpro/internal/service"
	"ticketpro/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const notificationBufferSize = 1024

func main() {
	cfg := config.LoadConfig()
	ctx := context.Background()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	txm := database.NewTxManager(pool)

	eventRepo := repository.NewEventRepository(pool)
	ticketTypeRepo := repository.NewTicketTypeRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	inventoryCache := cache.NewRedisInventoryCache(rdb)

	queue := notification.NewChannelQueue(notificationBufferSize)
	notifier := notification.NewLogNotifier(logger.WithComponent("notifier"))
	worker := notification.NewWorker(notifier, queue)
	if err := worker.Start(ctx); err != nil {
		log.Fatalf("Failed to start notification worker: %v", err)
	}

	inventoryService := service.NewInventoryService(ticketTypeRepo, eventRepo, inventoryCache)
	orderService := service.NewOrderService(txm, orderRepo, ticketRepo, ticketTypeRepo, paymentRepo, inventoryCache)
	fulfillmentService := service.NewFulfillmentService(txm, paymentRepo, orderRepo, ticketRepo, ticketTypeRepo, inventoryCache, queue)
	ticketService := service.NewTicketService(txm, ticketRepo, orderRepo, ticketTypeRepo, eventRepo, queue)

	if err := inventoryService.WarmUpAll(ctx); err != nil {
		log.Fatalf("Failed to warm inventory cache: %v", err)
	}

	router := gin.Default()

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")

	// The gateway authenticates with a shared secret upstream, not with a
	// user principal.
	handler.NewPaymentHandler(fulfillmentService).RegisterRoutes(api)

	authed := api.Group("", middleware.AuthRequired())
	handler.NewOrderHandler(orderService).RegisterRoutes(authed)
	handler.NewTicketHandler(ticketService).RegisterRoutes(authed)
	handler.NewTicketTypeHandler(inventoryService).RegisterRoutes(authed)

	// Gate devices hammer these during entry; cap the rate per instance.
	gate := api.Group("", middleware.AuthRequired(), middleware.RateLimit(100, 200))
	handler.NewValidationHandler(ticketService).RegisterRoutes(gate)

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
