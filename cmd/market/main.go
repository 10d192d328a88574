package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/localharvest/market/internal/accounts"
	"github.com/localharvest/market/internal/cart"
	"github.com/localharvest/market/internal/checkout"
	"github.com/localharvest/market/internal/config"
	"github.com/localharvest/market/internal/httpx"
	"github.com/localharvest/market/internal/images"
	kafkax "github.com/localharvest/market/internal/kafka"
	"github.com/localharvest/market/internal/listings"
	"github.com/localharvest/market/internal/market"
	"github.com/localharvest/market/internal/orders"
	"github.com/localharvest/market/internal/postgres"
	"github.com/localharvest/market/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers
	pOrders := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicOrderCreated, 1024)
	pOrders.Start(ctx)
	pListings := kafkax.NewProducer(cfg.KafkaBrokers, market.TopicListingDeleted, 1024)
	pListings.Start(ctx)

	// Stores & services
	imgStore := &images.FSStore{Dir: cfg.ImageDir}
	listingStore := &listings.PGStore{DB: db}
	orderStore := &orders.PGStore{DB: db}
	cartStore := &cart.RedisStore{RDB: rdb, TTL: cfg.CartTTL}

	acct := &accounts.Service{
		Users:      &accounts.PGStore{DB: db},
		RDB:        rdb,
		SessionTTL: cfg.SessionTTL,
	}
	lifecycle := &listings.Lifecycle{
		Store:       listingStore,
		Images:      imgStore,
		Producer:    pListings,
		ServiceName: cfg.ServiceName,
	}
	co := &checkout.Service{
		Cart:        cartStore,
		Orders:      orderStore,
		Producer:    pOrders,
		ServiceName: cfg.ServiceName,
	}

	router := httpx.NewRouter()
	h := &httpx.Handler{
		Accounts:  acct,
		Cart:      cartStore,
		Listings:  listingStore,
		Lifecycle: lifecycle,
		Orders:    orderStore,
		Checkout:  co,
		Images:    imgStore,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pOrders.Close() // close inbox -> flush & close writer
	pListings.Close()
	cancel() // stop producer loops
	pOrders.WaitClosed()
	pListings.WaitClosed()
}
