package main

import (
	"context"
	"log/slog"
	"os"

	"briefly/config"
	"briefly/internal/delivery"
	"briefly/internal/delivery/http"
	"briefly/internal/delivery/http/middleware"
	"briefly/internal/delivery/http/router/handler"
	"briefly/internal/domain/service"
	"briefly/internal/infra/audit"
	"briefly/internal/infra/auth"
	"briefly/internal/infra/crypto"
	"briefly/internal/infra/drive"
	"briefly/internal/infra/id"
	logs "briefly/internal/infra/log"
	"briefly/internal/infra/oauth"
	"briefly/internal/infra/persistence/postgres"
	"briefly/internal/infra/pubsub"
	"briefly/internal/infra/qrcode"
	"briefly/internal/usecase/impl"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewTokenRepository,
			postgres.NewRecoveryRepository,
			postgres.NewViolationRepository,
			postgres.NewRefreshEventRepository,
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			crypto.NewTokenCipher,
			auth.NewJWTService,
			oauth.NewStateStore,
			id.NewGenerator,
			pubsub.NewAuditPublisher,
			audit.NewBlobArchiver,
			newQRCodeService,
			fx.Annotate(
				oauth.NewGoogleClient,
				fx.ResultTags(`group:"providers"`),
			),
			fx.Annotate(
				oauth.NewMicrosoftClient,
				fx.ResultTags(`group:"providers"`),
			),
			fx.Annotate(
				drive.NewGoogleLister,
				fx.ResultTags(`group:"listers"`),
			),
			fx.Annotate(
				drive.NewMicrosoftLister,
				fx.ResultTags(`group:"listers"`),
			),
		),
	)
}

// newQRCodeService creates a QR code service with dependency injection
func newQRCodeService(cfg *config.Config) service.QRCodeService {
	if cfg.QRCode == nil {
		// Use default values if not configured
		return qrcode.NewQRCodeService(256, "M")
	}

	return qrcode.NewQRCodeService(cfg.QRCode.Size, cfg.QRCode.ErrorCorrectionLevel)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewTokenService,
			impl.NewScopeService,
			impl.NewPickerService,
			impl.NewAuditService,
			impl.NewFlowMonitorService,
			impl.NewRecoveryService,
			impl.NewStorageService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewRequestIDMiddleware,
			middleware.NewSessionMiddleware,
			middleware.NewErrorMiddleware,
			middleware.NewFlowMonitorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewStorageHandler,
			handler.NewPickerHandler,
			handler.NewRecoveryHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
