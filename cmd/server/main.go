package main

import (
	"context"
	"io"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"github.com/ArowuTest/class-picker/internal/auth"
	"github.com/ArowuTest/class-picker/internal/config"
	"github.com/ArowuTest/class-picker/internal/events"
	"github.com/ArowuTest/class-picker/internal/handlers"
	"github.com/ArowuTest/class-picker/internal/models"
	"github.com/ArowuTest/class-picker/internal/picker"
	"github.com/ArowuTest/class-picker/internal/store"
)

const defaultSlotMachines = 4

func main() {
	// Load config & init
	appCfg := config.Load()
	defer logger.Init("class-picker", appCfg.LogVerbose, false, io.Discard).Close()

	if err := appCfg.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}

	db, err := config.InitDB(appCfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		logger.Fatalf("migrate: %v", err)
	}
	auth.Init(appCfg.JWTSecret)

	st := store.New(db)
	hub := events.NewHub()
	svc := picker.NewService(st, picker.WithPublisher(hub))
	h := handlers.New(st, svc, hub)

	ctx := context.Background()
	if err := h.EnsureAdmin(ctx, appCfg.AdminUsername, appCfg.AdminPassword); err != nil {
		logger.Fatalf("bootstrap admin: %v", err)
	}
	if err := st.EnsureSetting(ctx, models.SettingNumSlotMachines, strconv.Itoa(defaultSlotMachines)); err != nil {
		logger.Fatalf("default settings: %v", err)
	}

	// Setup router
	r := gin.Default()
	r.Use(config.CORSMiddleware(appCfg))
	h.Register(r.Group("/api/v1"))

	logger.Infof("listening on :%s (db driver %s)", appCfg.Port, appCfg.DBDriver)
	if err := r.Run(":" + appCfg.Port); err != nil {
		logger.Fatalf("server: %v", err)
	}
}
