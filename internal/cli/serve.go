package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"storefront-backend/internal/account"
	"storefront-backend/internal/api"
	"storefront-backend/internal/cart"
	"storefront-backend/internal/catalog"
	"storefront-backend/internal/config"
	"storefront-backend/internal/identity"
	"storefront-backend/internal/logging"
	"storefront-backend/internal/orders"
	"storefront-backend/internal/store"
)

func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.Open(connectCtx, store.Options{
		Driver:     cfg.Store.Driver,
		MongoURI:   cfg.Store.MongoURI,
		Database:   cfg.Store.Database,
		SQLitePath: cfg.Store.SQLitePath,
	})
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Environment, cfg.LogLevel)
	log.Info("starting application", "environment", cfg.Environment, "version", Version)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := st.Close(closeCtx); err != nil {
			log.Error("close store", "error", err)
		}
	}()

	verifier, err := identity.NewJWTVerifier(identity.Options{
		HMACSecret:    cfg.Auth.HMACSecret,
		PublicKeyFile: cfg.Auth.PublicKeyFile,
		Issuer:        cfg.Auth.TokenIssuer(),
		Audience:      cfg.Auth.ProjectID,
	})
	if err != nil {
		return fmt.Errorf("token verifier: %w", err)
	}

	reader := catalog.NewReader(st.Products(), log)
	server := api.NewServer(api.Deps{
		Catalog:  reader,
		Carts:    cart.NewManager(st.Carts(), reader, log),
		Orders:   orders.NewService(st.Carts(), st.Orders(), log),
		Accounts: account.NewService(st.Users(), log),
		Verifier: verifier,
		Store:    st,
		Log:      log,
	}, api.Options{
		Environment: cfg.Environment,
		Version:     Version,
		CORSOrigins: cfg.CORSOrigins(),
	})

	log.Info("listening", "addr", cfg.Addr(), "store", cfg.Store.Driver, "cors_origins", cfg.CORSOrigins())
	if err := server.Run(ctx, cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("application shutdown")
	return nil
}
