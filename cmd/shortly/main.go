package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/Popolzen/shortly/internal/audit"
	"github.com/Popolzen/shortly/internal/config"
	"github.com/Popolzen/shortly/internal/db"
	"github.com/Popolzen/shortly/internal/handler"
	"github.com/Popolzen/shortly/internal/logger"
	"github.com/Popolzen/shortly/internal/middleware/auth"
	"github.com/Popolzen/shortly/internal/middleware/compressor"
	"github.com/Popolzen/shortly/internal/service/allocator"
	"github.com/Popolzen/shortly/internal/service/identity"
	"github.com/Popolzen/shortly/internal/service/shortener"
	"github.com/Popolzen/shortly/internal/store"
	"github.com/Popolzen/shortly/internal/store/database"
	"github.com/Popolzen/shortly/internal/store/filestore"
	"github.com/Popolzen/shortly/internal/store/memory"
	"github.com/Popolzen/shortly/internal/store/redisstore"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

const shutdownTimeout = 10 * time.Second

func main() {
	printBuildInfo()

	// Инициализируем логгер
	if err := logger.Init(); err != nil {
		log.Fatal("Не удалось инициализировать логгер:", err)
	}
	defer logger.Close()

	gin.SetMode(gin.ReleaseMode)
	cfg := config.NewConfig()

	// Запускаем pprof сервер на настраиваемом порту
	if cfg.PprofAddr != "" {
		go func() {
			log.Printf("pprof сервер запущен на http://%s/debug/pprof/", cfg.PprofAddr)
			if err := http.ListenAndServe(cfg.PprofAddr, nil); err != nil {
				log.Printf("Ошибка запуска pprof сервера: %v", err)
			}
		}()
	}

	// Инициализируем паблишера аудита
	publisher := initAudit(cfg)

	// Инициализируем хранилища
	urlStore, userStore := initStores(cfg)

	// Создаем сервисы
	alloc := allocator.New(urlStore)
	urlService := shortener.NewService(urlStore, alloc)
	ids := identity.NewService(userStore, identity.TokenSettings{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	})

	// Настраиваем роутер
	r := setupRouter(urlService, ids, urlStore, cfg, publisher)

	app := &App{
		server: &http.Server{
			Addr:    cfg.GetAddress(),
			Handler: r,
		},
		urls:      urlStore,
		users:     userStore,
		publisher: publisher,
	}

	// Запускаем сервер
	go func() {
		log.Printf("Shortly запущен на http://%s", cfg.GetAddress())
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Не удалось запустить сервер:", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Получен сигнал остановки, завершаем работу...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		log.Printf("Ошибка при остановке: %v", err)
	}
	log.Println("Сервис остановлен gracefully")
}

func printBuildInfo() {
	version := "N/A"
	date := "N/A"
	commit := "N/A"

	if buildVersion != "" {
		version = buildVersion
	}
	if buildDate != "" {
		date = buildDate
	}
	if buildCommit != "" {
		commit = buildCommit
	}

	fmt.Printf("Build version: %s\n", version)
	fmt.Printf("Build date: %s\n", date)
	fmt.Printf("Build commit: %s\n", commit)
}

// initStores инициализирует хранилища в зависимости от конфигурации
func initStores(cfg *config.Config) (store.URLStore, store.UserStore) {
	switch {
	case cfg.DBurl != "":
		dbInstance, err := db.NewDataBase(cfg.DBurl)
		if err != nil {
			log.Fatal("Ошибка подключения к БД:", err)
		}
		if err := dbInstance.Migrate(); err != nil {
			log.Fatal("Ошибка выполнения миграций:", err)
		}
		log.Println("Используется БД хранилище")
		return database.NewURLStore(dbInstance.DB), database.NewUserStore(dbInstance.DB)

	case cfg.RedisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		log.Println("Используется Redis хранилище")
		return redisstore.NewURLStore(client), redisstore.NewUserStore(client)

	case cfg.FilePath != "":
		log.Println("Используется файловое хранилище")
		return filestore.NewURLStore(cfg.FilePath), filestore.NewUserStore(cfg.UserFilePath)

	default:
		log.Println("Используется память")
		return memory.NewURLStore(), memory.NewUserStore()
	}
}

// initAudit - функция инициализации аудита:
func initAudit(cfg *config.Config) *audit.Publisher {
	publisher := audit.NewPublisher()

	// Файловый observer
	if cfg.GetAuditFile() != "" {
		fileObs, err := audit.NewFileObserver(cfg.GetAuditFile())
		if err != nil {
			log.Printf("Не удалось создать file observer: %v", err)
		} else {
			publisher.Subscribe(fileObs)
			log.Printf("Аудит в файл: %s", cfg.GetAuditFile())
		}
	}

	// HTTP observer
	if cfg.GetAuditURL() != "" {
		httpObs := audit.NewHTTPObserver(cfg.GetAuditURL())
		publisher.Subscribe(httpObs)
		log.Printf("Аудит на сервер: %s", cfg.GetAuditURL())
	}

	return publisher
}

// setupRouter настраивает роуты и middleware
func setupRouter(urls *shortener.Service, ids *identity.Service, st store.URLStore, cfg *config.Config, pub *audit.Publisher) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.RequestResponseLogger())
	r.Use(compressor.Compresser())

	r.POST("/api/shorten", auth.OptionalAuth(ids), handler.ShortenHandler(urls, cfg, pub))
	r.GET("/:code", handler.RedirectHandler(urls, pub, cfg.SyncVisits))

	user := r.Group("/api/user", auth.RequireAuth(ids))
	user.GET("/urls", handler.GetUserURLsHandler(urls, cfg))
	user.GET("/urls/:code", handler.GetUserURLHandler(urls, cfg))
	user.PUT("/urls/:code", handler.UpdateURLHandler(urls, cfg))
	user.DELETE("/urls/:code", handler.DeleteURLHandler(urls, pub))

	r.POST("/api/auth/register", handler.RegisterHandler(ids))
	r.POST("/api/auth/login", handler.LoginHandler(ids))

	r.GET("/ping", handler.PingHandler(st))
	return r
}
