package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tuklasart/backend/internal/common"
	"github.com/tuklasart/backend/internal/entity"
	"github.com/tuklasart/backend/internal/middleware"
	"github.com/tuklasart/backend/pkg/router"
	"github.com/tuklasart/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.ctx = xcontext.WithConfigs(s.ctx, s.loadConfig())
	s.loadLogger()
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedis()
	s.loadNonceRegistry()
	s.loadBlockchainCaller()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	defer s.blockchainCaller.Close()

	cfg := xcontext.Configs(s.ctx)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ApiServer.Port),
		Handler: s.router.Handler(),
	}

	log.Printf("Starting server on port: %s\n", cfg.ApiServer.Port)
	if err := httpSrv.ListenAndServe(); err != nil {
		panic(err)
	}

	return nil
}

func (s *srv) loadRouter() {
	cfg := xcontext.Configs(s.ctx)
	s.router = router.New(xcontext.DB(s.ctx), cfg, s.logger)
	s.router.AddCloser(middleware.Logger())
	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Prometheus())

	for _, counter := range common.PromCounters {
		prometheus.MustRegister(counter)
	}
	for _, histogram := range common.PromHistograms {
		prometheus.MustRegister(histogram)
	}

	// Public API
	{
		router.GET(s.router, "/auth/nonce/:address", s.authDomain.WalletLogin)
		router.POST(s.router, "/auth/login", s.authDomain.WalletVerify)
		router.POST(s.router, "/auth/refresh", s.authDomain.Refresh)
		router.GET(s.router, "/marketplace/listings", s.marketplaceDomain.GetListings)
		router.GET(s.router, "/users/:address", s.userDomain.GetByAddress)
	}

	s.router.Handle("/metrics", promhttp.Handler())

	// These following APIs need authentication with Access Token.
	authRouter := s.router.Branch()
	authVerifier := middleware.NewAuthVerifier().WithAccessToken()
	authRouter.Before(authVerifier.Middleware())
	{
		// User API
		router.GET(authRouter, "/me", s.userDomain.GetMe)
		router.PATCH(authRouter, "/me", s.userDomain.UpdateProfile)

		// Artwork API
		router.POST(authRouter, "/artworks", s.artworkDomain.Submit)
		router.GET(authRouter, "/artworks/mine", s.artworkDomain.GetMine)
		router.POST(authRouter, "/artworks/:id/approval", s.artworkDomain.RequestApproval)

		// Marketplace API
		router.POST(authRouter, "/marketplace/buy/:listing_id", s.marketplaceDomain.Buy)
		router.DELETE(authRouter, "/marketplace/cancel/:listing_id", s.marketplaceDomain.CancelListing)
		router.POST(authRouter, "/marketplace/relist/:artwork_id", s.marketplaceDomain.Relist)
		router.GET(authRouter, "/transactions/mine", s.marketplaceDomain.GetMySales)

		// KYC API
		router.POST(authRouter, "/kyc", s.kycDomain.Submit)
		router.GET(authRouter, "/kyc/status", s.kycDomain.GetStatus)
	}

	// These following APIs require the admin role.
	adminRouter := authRouter.Branch()
	adminRouter.Before(middleware.NewOnlyAdmin(s.userRepo).Middleware())
	{
		router.GET(adminRouter, "/admin/artworks", s.adminDomain.GetPendingArtworks)
		router.PATCH(adminRouter, "/admin/approve/:id", s.adminDomain.ReviewArtwork)
		router.POST(adminRouter, "/admin/mint/:id", s.adminDomain.RetryMint)
		router.GET(adminRouter, "/admin/kyc", s.kycDomain.GetPending)
		router.PATCH(adminRouter, "/admin/kyc/:id", s.kycDomain.Review)
	}
}

func (s *srv) migrateDB() {
	if err := entity.MigrateTable(s.ctx); err != nil {
		panic(err)
	}
}
