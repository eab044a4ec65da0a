//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/yanqian/blobdrop/internal/bootstrap"
	"github.com/yanqian/blobdrop/internal/domain/admission"
	"github.com/yanqian/blobdrop/internal/domain/post"
	"github.com/yanqian/blobdrop/internal/infra/config"
	httpiface "github.com/yanqian/blobdrop/internal/interface/http"
	"github.com/yanqian/blobdrop/pkg/logger"
)

func initializeApp(ctx context.Context) (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		providePostgresPool,
		provideValkeyClient,
		provideMetaStore,
		provideBlobStore,
		providePostRepository,
		provideSettingsRepository,
		provideKeyRepository,
		providePostConfig,
		provideIDGenerator,
		post.NewService,
		admission.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
