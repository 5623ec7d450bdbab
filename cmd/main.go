package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Nossos pacotes de infraestrutura e utilitários
	"gosigo/config"
	"gosigo/internal/bootstrap"
	"gosigo/internal/domain"
	"gosigo/internal/pkg/cache"
	"gosigo/internal/pkg/idgen"
	"gosigo/internal/pkg/logger"
	"gosigo/internal/pkg/password"
	"gosigo/internal/pkg/token"
	"gosigo/internal/pkg/ws"
	"gosigo/internal/seed"

	// Camadas para Injeção de Dependências
	"gosigo/internal/api/dashboard"
	"gosigo/internal/api/record"
	"gosigo/internal/api/router"
	"gosigo/internal/api/user"
	"gosigo/internal/repository/recordrepo"
	"gosigo/internal/repository/userrepo"
	"gosigo/internal/service/dashboardservice"
	"gosigo/internal/service/recordservice"
	"gosigo/internal/service/userservice"
)

// @title GoSIGO API
// @version 1.0
// @description API do Sistema de Gestão de Ocorrências: registos por categoria, utilizadores e dashboard.
// @host localhost:8080
// @BasePath /v1
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Bearer <token>
func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	log.Println("⚡ Inicializando serviço GoSIGO...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Logger
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Configuração inválida: %v", err)
	}
	logg := logger.NewLogger(cfg.LogLevel)
	defer logg.Sync()
	logg.Info("Configurações carregadas.", map[string]interface{}{"backend": cfg.StoreBackend, "env": cfg.Environment})

	loc, err := cfg.Location()
	if err != nil {
		logg.Fatal("Fuso horário inválido.", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Armazenamento
	hasher := password.NewHasher(cfg.BcryptCost)
	store, err := bootstrap.OpenStore(ctx, cfg, seed.NewSeeder(hasher, logg), logg)
	if err != nil {
		logg.Fatal("Falha ao abrir o armazenamento.", err)
	}
	defer store.Close()
	logg.Info("Armazenamento pronto.", map[string]interface{}{"backend": cfg.StoreBackend, "max_id": store.MaxID})

	ids := idgen.New()
	ids.Observe(store.MaxID)

	// 3. Cache (Redis), opcional
	var records domain.RecordRepository = store.Records
	var cacheClient cache.Client
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			logg.Warn("Redis indisponível; a continuar sem cache nem rate limiting.", map[string]interface{}{"error": err.Error()})
		} else {
			defer redisClient.Close()
			cacheClient = redisClient
			records = recordrepo.NewCachedRepository(store.Records, redisClient, cfg.CacheTTL, logg)
			logg.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
		}
	}

	// 4. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	userSvc := userservice.NewService(userrepo.NewUserRepository(records, logg), tokenSvc, hasher, ids, logg)
	recordSvc := recordservice.NewService(records, ids, loc, cfg.PageSize, logg)
	dashSvc := dashboardservice.NewService(records, store.Counter, logg)
	logg.Debug("Serviços inicializados.", nil)

	hub := ws.NewHub(logg)
	go hub.Run(ctx)

	poller := dashboardservice.NewPoller(dashSvc, hub, cacheClient, cfg.PollInterval, logg)
	go poller.Run(ctx)

	r := router.NewRouter(
		record.NewHandler(recordSvc, logg),
		user.NewHandler(userSvc, logg),
		dashboard.NewHandler(dashSvc, hub, logg),
		router.Options{
			TokenService:    tokenSvc,
			PrincipalLoader: userSvc,
			Limiter:         cacheClient,
			RateLimit:       cfg.RateLimitMaxRequests,
			RateWindow:      cfg.RateLimitPeriod,
			Logger:          logg,
		},
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		logg.Info("Servidor GoSIGO ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Fatal("Servidor falhou.", err)
		}
	}()

	<-ctx.Done()
	logg.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("Desligamento do servidor forçado.", err)
	}

	logg.Info("Servidor encerrado com sucesso.", nil)
}
