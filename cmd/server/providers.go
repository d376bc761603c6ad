// File: cmd/server/providers.go
package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tm-webstudio/service4me-sub000/internal/category"
	"github.com/tm-webstudio/service4me-sub000/internal/config"
	"github.com/tm-webstudio/service4me-sub000/internal/filestorage"
	"github.com/tm-webstudio/service4me-sub000/internal/firebase"
	"github.com/tm-webstudio/service4me-sub000/internal/listing"
	"github.com/tm-webstudio/service4me-sub000/internal/notification"
	"github.com/tm-webstudio/service4me-sub000/internal/platform/database"
	"github.com/tm-webstudio/service4me-sub000/internal/profile"
	"github.com/tm-webstudio/service4me-sub000/internal/provider"
	"github.com/tm-webstudio/service4me-sub000/internal/session"
)

// provideDatabase opens the GORM connection and keeps the schema current.
func provideDatabase(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.NewGORM(cfg)
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(
		&profile.Profile{},
		&profile.StylistProfile{},
		&category.Category{},
		&listing.Listing{},
		&listing.ListingImage{},
		&notification.Notification{},
	)
	if err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// provideFileStorage builds the upload store rooted at FILE_STORAGE_PATH.
func provideFileStorage(cfg *config.Config, logger *zap.Logger) (*filestorage.Service, error) {
	return filestorage.NewService(cfg.FileStoragePath, logger)
}

// provideSessionClientFactory gives each browser session its own provider
// client over the shared admin SDK handle.
func provideSessionClientFactory(cfg *config.Config, admin *firebase.Service, logger *zap.Logger) session.ClientFactory {
	return func() provider.Client {
		return firebase.NewSessionClient(cfg, admin, logger)
	}
}

// provideCategoryService builds the category service and seeds the default
// service types into an empty table.
func provideCategoryService(repo category.Repository, logger *zap.Logger) category.Service {
	svc := category.NewService(repo, logger)
	if err := svc.SeedDefaults(context.Background()); err != nil {
		logger.Warn("Failed to seed default categories", zap.Error(err))
	}
	return svc
}
