// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/tm-webstudio/service4me-sub000/internal/app"
	"github.com/tm-webstudio/service4me-sub000/internal/category"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/firebase"
	"github.com/tm-webstudio/service4me-sub000/internal/jobs"
	"github.com/tm-webstudio/service4me-sub000/internal/listing"
	"github.com/tm-webstudio/service4me-sub000/internal/notification"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/elasticsearch"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/logger"
	"github.com/tm-webstudio/service4me-sub000/internal/profile"
	"github.com/tm-webstudio/service4me-sub000/internal/session"
	"github.com/tm-webstudio/service4me-sub000/internal/shared"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		// Platform
		logger.New,
		provideDatabase,
		elasticsearch.NewClient,
		provideFileStorage,

		// Auth provider
		firebase.NewService,
		provideSessionClientFactory,

		// Profiles
		profile.NewGORMRepository,
		profile.NewService,
		wire.Bind(new(shared.ProfileService), new(*profile.Service)),
		profile.NewHandler,

		// Notifications
		notification.NewGORMRepository,
		notification.NewService,
		notification.NewHandler,
		wire.Bind(new(profile.Notifier), new(*notification.Service)),
		wire.Bind(new(listing.Notifier), new(*notification.Service)),

		// Sessions
		session.NewTokenService,
		session.NewRegistry,
		session.NewHandler,

		// Categories and listings
		category.NewGORMRepository,
		provideCategoryService,
		category.NewHandler,
		listing.NewGORMRepository,
		listing.NewService,
		listing.NewHandler,
		jobs.NewListingLapseJob,

		// Application
		app.NewServer,
	)
	return nil, nil, nil
}
