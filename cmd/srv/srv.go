package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/tuklasart/backend/config"
	"github.com/tuklasart/backend/internal/client"
	"github.com/tuklasart/backend/internal/domain"
	"github.com/tuklasart/backend/internal/repository"
	"github.com/tuklasart/backend/pkg/blockchain/eth"
	"github.com/tuklasart/backend/pkg/logger"
	"github.com/tuklasart/backend/pkg/nonce"
	"github.com/tuklasart/backend/pkg/router"
	"github.com/tuklasart/backend/pkg/xcontext"
	"github.com/tuklasart/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App
	ctx context.Context

	logger logger.Logger

	userRepo         repository.UserRepository
	artworkRepo      repository.ArtworkRepository
	approvalRepo     repository.ApprovalRepository
	listingRepo      repository.ListingRepository
	saleRepo         repository.SaleRepository
	kycRepo          repository.KycRepository
	refreshTokenRepo repository.RefreshTokenRepository

	authDomain        domain.AuthDomain
	userDomain        domain.UserDomain
	artworkDomain     domain.ArtworkDomain
	adminDomain       domain.AdminDomain
	marketplaceDomain domain.MarketplaceDomain
	kycDomain         domain.KycDomain

	nonceRegistry    nonce.Registry
	redisClient      xredis.Client
	blockchainCaller client.BlockchainCaller

	router *router.Router
}

func (s *srv) loadConfig() config.Configs {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from system environment")
	}

	cfg := config.Configs{
		Env: getEnv("ENV", "dev"),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			User:     getEnv("MYSQL_USER", "tuklas"),
			Password: getEnv("MYSQL_PASSWORD", "tuklas"),
			Database: getEnv("MYSQL_DATABASE", "tuklas"),
			LogLevel: getEnv("DATABASE_LOG_LEVEL", "error"),
		},
		ApiServer: config.ServerConfigs{
			Host: getEnv("HOST", "localhost"),
			Port: getEnv("PORT", "8080"),
			Cert: getEnv("SERVER_CERT", ""),
			Key:  getEnv("SERVER_KEY", ""),
		},
		Auth: config.AuthConfigs{
			TokenSecret: getEnv("TOKEN_SECRET", "token_secret"),
			AccessToken: config.TokenConfigs{
				Name:       "access_token",
				Expiration: getDuration("ACCESS_TOKEN_DURATION", "24h"),
			},
			RefreshToken: config.TokenConfigs{
				Name:       "refresh_token",
				Expiration: getDuration("REFRESH_TOKEN_DURATION", "720h"),
			},
			AdminAddresses: getStrings("ADMIN_ADDRESSES", ""),
		},
		Nonce: config.NonceConfigs{
			TTL: getDuration("LOGIN_CHALLENGE_TTL", "5m"),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDRESS", ""),
		},
		Eth: config.EthConfigs{
			ConfirmTimeout: getDuration("ETH_CONFIRM_TIMEOUT", "2m"),
			BlockTime:      getDuration("ETH_BLOCK_TIME", "2s"),
		},
	}

	chainCfgFile := getEnv("CHAIN_CONFIG", "chain.toml")
	if _, err := toml.DecodeFile(chainCfgFile, &cfg.Eth); err != nil {
		log.Printf("Cannot read chain config %s: %v", chainCfgFile, err)
	}

	return cfg
}

func (s *srv) loadLogger() {
	level := logger.LevelFromString(getEnv("LOG_LEVEL", "info"))
	s.logger = logger.NewLogger(level)
	s.ctx = xcontext.WithLogger(s.ctx, s.logger)
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.Database.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	return db
}

func (s *srv) loadRedis() {
	cfg := xcontext.Configs(s.ctx)
	if cfg.Redis.Addr == "" {
		return
	}

	redisClient, err := xredis.NewClient(s.ctx, cfg.Redis)
	if err != nil {
		panic(err)
	}

	s.redisClient = redisClient
}

// loadNonceRegistry prefers the redis-backed registry so challenges
// survive a restart and are shared between replicas. Without redis a
// process-local registry serves a single instance.
func (s *srv) loadNonceRegistry() {
	cfg := xcontext.Configs(s.ctx)
	if s.redisClient != nil {
		s.nonceRegistry = nonce.NewRedisRegistry(s.redisClient, cfg.Nonce.TTL)
	} else {
		s.nonceRegistry = nonce.NewMemoryRegistry(cfg.Nonce.TTL)
	}
}

func (s *srv) loadBlockchainCaller() {
	cfg := xcontext.Configs(s.ctx)
	ethClient := eth.NewEthClient(cfg.Eth)

	caller, err := client.NewBlockchainCaller(ethClient)
	if err != nil {
		panic(err)
	}

	s.blockchainCaller = caller
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.artworkRepo = repository.NewArtworkRepository()
	s.approvalRepo = repository.NewApprovalRepository()
	s.listingRepo = repository.NewListingRepository()
	s.saleRepo = repository.NewSaleRepository()
	s.kycRepo = repository.NewKycRepository()
	s.refreshTokenRepo = repository.NewRefreshTokenRepository()
}

func (s *srv) loadDomains() {
	s.authDomain = domain.NewAuthDomain(s.userRepo, s.refreshTokenRepo, s.nonceRegistry)
	s.userDomain = domain.NewUserDomain(s.userRepo)
	s.artworkDomain = domain.NewArtworkDomain(s.artworkRepo, s.approvalRepo, s.userRepo)
	s.adminDomain = domain.NewAdminDomain(
		s.artworkRepo, s.approvalRepo, s.listingRepo, s.userRepo, s.blockchainCaller)
	s.marketplaceDomain = domain.NewMarketplaceDomain(
		s.listingRepo, s.artworkRepo, s.saleRepo, s.userRepo, s.blockchainCaller)
	s.kycDomain = domain.NewKycDomain(s.kycRepo, s.userRepo)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}

	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}

	return d
}

func getStrings(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}
