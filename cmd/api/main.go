// Package main provides launch of the whole gallery application
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnendingLoop/ArtShare/internal/kafka"
	"github.com/UnendingLoop/ArtShare/internal/mwauth"
	"github.com/UnendingLoop/ArtShare/internal/mwlogger"
	"github.com/UnendingLoop/ArtShare/internal/repository"
	"github.com/UnendingLoop/ArtShare/internal/service"
	"github.com/UnendingLoop/ArtShare/internal/storage"
	"github.com/UnendingLoop/ArtShare/internal/storage/diskstorage"
	"github.com/UnendingLoop/ArtShare/internal/transport"
	"github.com/UnendingLoop/ArtShare/internal/userdir"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/zlog"
)

func main() {
	// инициализировать конфиг/ считать энвы
	appConfig := config.New()
	appConfig.EnableEnv("")
	if err := appConfig.LoadEnvFiles("./.env"); err != nil {
		log.Fatalf("Failed to load envs: %s\nExiting app...", err)
	}

	// стартуем логгер
	zlog.InitConsole()
	err := zlog.SetLevel("info")
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	// готовим заранее слушатель прерываний - контекст для всего приложения
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// подключиться к базе
	dbConn := repository.ConnectWithRetries(appConfig, 5, 10*time.Second)
	// накатываем миграцию
	repository.MigrateWithRetries(dbConn.Master, "./migrations", 10, 15*time.Second)

	// подключиться к хранилищу блобов
	strg := storage.NewImgStorage(appConfig, 10*time.Second)
	// создаем экземпляр репо
	repo := repository.NewPostgresImageRepo(dbConn)
	// каталог пользователей: база + опциональный редис-кеш
	users := userdir.New(dbConn, userdir.NewRedisCache(appConfig))

	// очередь событий опциональна: без брокера события просто не публикуются
	var pub *wbfkafka.Producer
	var eventPub service.EventPublisher
	broker := appConfig.GetString("KAFKA_BROKER")
	if broker != "" {
		kafka.WaitKafkaReady(broker, 5*time.Second)
		topic := appConfig.GetString("KAFKA_TOPIC")
		kafka.InitKafkaTopics(ctx, broker, 10*time.Second, topic)
		pub = wbfkafka.NewProducer([]string{broker}, topic)
		eventPub = pub
	}

	// создаем экземпляры сервиса и сборщика фидов
	var svc ImageAPIService = service.NewImageService(appConfig, repo, users, eventPub, strg)
	feed := service.NewFeedAssembler(appConfig, repo, users)
	// cоздаем экземпляр хендлера HTTP и мидлварь аутентификации
	handlers := transport.NewImageHandler(svc, feed)
	authMW := mwauth.New(users)
	// сетапим сервер
	mode := appConfig.GetString("GIN_MODE")
	engine := ginext.New(mode)

	engine.GET("/ping", handlers.SimplePinger)
	engine.GET("/images/random", handlers.RandomFeed)            // случайная подборка
	engine.POST("/images/upload", authMW, handlers.Upload)       // загрузка
	engine.GET("/images/user/:username", handlers.UserFeed)      // лента артиста
	engine.GET("/images/:id", handlers.GetImage)                 // деталь + просмотр
	engine.DELETE("/images/:id", authMW, handlers.Delete)        // удаление владельцем
	engine.GET("/images", handlers.GetAllImages)                 // пагинированный список
	engine.POST("/images/:id/like", authMW, handlers.Like)       // лайк
	engine.DELETE("/images/:id/like", authMW, handlers.Unlike)   // анлайк
	engine.GET("/images/:id/liked", authMW, handlers.IsLiked)    // лайкал ли я

	// дисковый бекенд раздает блобы сам, минио отдает их напрямую
	if ds, ok := strg.(*diskstorage.DiskImageStorage); ok {
		engine.Static(diskstorage.URLPrefix, ds.Dir())
	}

	srv := &http.Server{
		Addr:    ":" + appConfig.GetString("APP_PORT"),
		Handler: mwlogger.NewMWLogger(engine),
	}

	// Server launch
	go func() {
		log.Printf("Server running on http://localhost%s\n", srv.Addr)
		err := srv.ListenAndServe()
		if err != nil {
			switch {
			case errors.Is(err, http.ErrServerClosed):
				log.Println("Server gracefully stopping...")
			default:
				log.Printf("Server stopped: %v", err)
				stop()
			}
		}
	}()

	// запускаем фоновую зачистку блобов, чье best-effort удаление не удалось
	go sweepLoop(ctx, svc)

	// ждем отмены контекста для запуска грейсфул закрытия соединений бд и кафки
	<-ctx.Done()

	shutdown(pub, dbConn)
	log.Println("Exiting app...")
}

func sweepLoop(ctx context.Context, svc ImageAPIService) {
	defer func() {
		if r := recover(); r != nil {
			log.Println("Sweep loop crashed:", r)
		}
	}()

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.SweepOrphans(context.Background(), 20)
		}
	}
}

func shutdown(pub *wbfkafka.Producer, dbConn *dbpg.DB) {
	log.Println("Interrupt received!!! Starting shutdown sequence...")

	// Closing Kafka connection:
	if pub != nil {
		if err := pub.Close(); err != nil {
			log.Println("Failed to close Kafka-producer:", err)
		}
		log.Println("Kafka-producer connection closed.")
	}

	// Closing DB connection
	if err := dbConn.Master.Close(); err != nil {
		log.Println("Failed to close DB-conn correctly:", err)
		return
	}
	log.Println("DBconn closed")
}
