// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"magic_broom_backend/internal/app"
	"magic_broom_backend/internal/application"
	"magic_broom_backend/internal/auth"
	"magic_broom_backend/internal/config"
	"magic_broom_backend/internal/filestorage"
	"magic_broom_backend/internal/firebase"
	"magic_broom_backend/internal/jobs"
	"magic_broom_backend/internal/notification"
	"magic_broom_backend/internal/platform/database"
	"magic_broom_backend/internal/platform/elasticsearch"
	"magic_broom_backend/internal/platform/logger"
	"magic_broom_backend/internal/request"
	"magic_broom_backend/internal/shared"
	"magic_broom_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform Layer
		logger.New,
		database.NewGORM,
		elasticsearch.NewClient,
		provideCleanup,

		// Firebase
		firebase.NewFirebaseService,
		wire.Bind(new(user.ClaimsSyncer), new(*firebase.FirebaseService)),

		// File storage
		filestorage.NewFromConfig,

		// Users
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(shared.Service), new(*user.ServiceImplementation)),
		wire.Bind(new(user.Service), new(*user.ServiceImplementation)),
		user.NewHandler,

		// Sessions
		auth.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,

		// Cleaning requests
		request.NewGORMRepository,
		request.NewSearchService,
		request.NewService,
		request.NewHandler,
		jobs.NewRequestSweepJob,

		// Cleaner applications
		application.NewGORMRepository,
		application.NewService,
		application.NewHandler,

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
