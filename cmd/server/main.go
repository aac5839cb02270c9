package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/daleel/api/activities"
	activityHandlers "github.com/daleel/api/activities/handlers"
	activityRepository "github.com/daleel/api/activities/repository"
	activityServices "github.com/daleel/api/activities/services"
	"github.com/daleel/api/actors"
	actorHandlers "github.com/daleel/api/actors/handlers"
	actorRepository "github.com/daleel/api/actors/repository"
	actorServices "github.com/daleel/api/actors/services"
	"github.com/daleel/api/bulletins"
	bulletinHandlers "github.com/daleel/api/bulletins/handlers"
	bulletinRepository "github.com/daleel/api/bulletins/repository"
	bulletinServices "github.com/daleel/api/bulletins/services"
	"github.com/daleel/api/dynamicfields"
	fieldHandlers "github.com/daleel/api/dynamicfields/handlers"
	fieldRepository "github.com/daleel/api/dynamicfields/repository"
	fieldServices "github.com/daleel/api/dynamicfields/services"
	"github.com/daleel/api/incidents"
	incidentHandlers "github.com/daleel/api/incidents/handlers"
	incidentRepository "github.com/daleel/api/incidents/repository"
	incidentServices "github.com/daleel/api/incidents/services"
	"github.com/daleel/api/internal/cache"
	"github.com/daleel/api/internal/database/postgres"
	"github.com/daleel/api/internal/middleware/authjwt"
	"github.com/daleel/api/internal/middleware/requestid"
	"github.com/daleel/api/internal/notify"
	"github.com/daleel/api/internal/pkg/log"
	platformconfig "github.com/daleel/api/internal/platform/config"
	"github.com/daleel/api/jobs"
	jobHandlers "github.com/daleel/api/jobs/handlers"
	"github.com/daleel/api/locations"
	locationHandlers "github.com/daleel/api/locations/handlers"
	locationRepository "github.com/daleel/api/locations/repository"
	locationServices "github.com/daleel/api/locations/services"
	relationRepository "github.com/daleel/api/relations/repository"
	"github.com/daleel/api/savedsearches"
	savedSearchHandlers "github.com/daleel/api/savedsearches/handlers"
	savedSearchRepository "github.com/daleel/api/savedsearches/repository"
	savedSearchServices "github.com/daleel/api/savedsearches/services"
	searchErrors "github.com/daleel/api/search/errors"
	"github.com/daleel/api/taxonomy/repository"
	taxonomyServices "github.com/daleel/api/taxonomy/services"
)

const taxonomyRefreshInterval = 5 * time.Minute

func main() {
	cfg, err := platformconfig.LoadFromEnv()
	if err != nil {
		log.Fatal("failed to load config: %v", err)
	}

	ctx := context.Background()
	pgClient, err := postgres.NewClient(ctx, &cfg.Database.Postgres)
	if err != nil {
		log.Fatal("failed to connect to postgres: %v", err)
	}
	defer pgClient.Close()

	cacheService := buildCache(cfg)
	defer cacheService.Close()

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(searchErrors.ErrorResponse{
				Code:    searchErrors.CodeInternalError,
				Message: err.Error(),
			})
		},
	})

	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.WebDomain,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	// Read-side stores consulted by the query compiler.
	taxonomyService := taxonomyServices.NewTaxonomyService(
		repository.NewPostgresRepository(pgClient), taxonomyRefreshInterval)
	relationStore := relationRepository.NewPostgresRepository(pgClient)

	activityService := activityServices.NewActivityService(
		activityRepository.NewPostgresRepository(pgClient), cfg.Activity.Actions)

	fieldService := fieldServices.NewFieldService(pgClient,
		fieldRepository.NewPostgresRepository(pgClient), activityService)

	notifier := notify.NopNotifier{}

	bulletinService := bulletinServices.NewBulletinService(
		bulletinRepository.NewPostgresRepository(pgClient),
		taxonomyService, relationStore, fieldService,
		activityService, cacheService, notifier)
	actorService := actorServices.NewActorService(
		actorRepository.NewPostgresRepository(pgClient),
		taxonomyService, relationStore, fieldService,
		activityService, cacheService, notifier)
	incidentService := incidentServices.NewIncidentService(
		incidentRepository.NewPostgresRepository(pgClient),
		taxonomyService, relationStore, fieldService,
		activityService, cacheService, notifier)
	locationService := locationServices.NewLocationService(
		locationRepository.NewPostgresRepository(pgClient),
		activityService, cacheService, notifier)
	savedSearchService := savedSearchServices.NewSavedSearchService(
		savedSearchRepository.NewPostgresRepository(pgClient))

	defaultPerPage := cfg.Search.DefaultPerPage
	maxPerPage := cfg.Search.MaxPerPage

	api := app.Group(cfg.Server.BaseRoute)
	api.Use(authjwt.New(authjwt.Config{PublicKey: cfg.JWT.PublicKey}))

	bulletins.RegisterRoutes(api, &bulletins.BulletinsHandlers{
		BulletinHandler: bulletinHandlers.NewBulletinHandler(bulletinService, defaultPerPage, maxPerPage),
	})
	actors.RegisterRoutes(api, &actors.ActorsHandlers{
		ActorHandler: actorHandlers.NewActorHandler(actorService, defaultPerPage, maxPerPage),
	})
	incidents.RegisterRoutes(api, &incidents.IncidentsHandlers{
		IncidentHandler: incidentHandlers.NewIncidentHandler(incidentService, defaultPerPage, maxPerPage),
	})
	locations.RegisterRoutes(api, &locations.LocationsHandlers{
		LocationHandler: locationHandlers.NewLocationHandler(locationService, defaultPerPage, maxPerPage),
	})
	activities.RegisterRoutes(api, &activities.ActivitiesHandlers{
		ActivityHandler: activityHandlers.NewActivityHandler(activityService, defaultPerPage, maxPerPage),
	})
	savedsearches.RegisterRoutes(api, &savedsearches.SavedSearchesHandlers{
		SavedSearchHandler: savedSearchHandlers.NewSavedSearchHandler(savedSearchService),
	})
	dynamicfields.RegisterRoutes(api, &dynamicfields.DynamicFieldsHandlers{
		FieldHandler: fieldHandlers.NewFieldHandler(fieldService),
	})
	jobs.RegisterRoutes(api, &jobs.JobsHandlers{
		JobHandler: jobHandlers.NewJobHandler(cacheService),
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pgClient.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("listening on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal("server stopped: %v", err)
	}
}

// buildCache connects to redis when enabled; a disabled cache degrades bulk
// job tracking to no-ops rather than failing startup.
func buildCache(cfg *platformconfig.Config) *cache.Service {
	if !cfg.Cache.Enabled {
		return cache.NewService(nil)
	}

	redisCache, err := cache.NewRedisCache(&cache.Config{
		Prefix:       cfg.Cache.Prefix,
		Address:      cfg.Cache.Redis.Address,
		Password:     cfg.Cache.Redis.Password,
		Database:     cfg.Cache.Redis.Database,
		PoolSize:     cfg.Cache.Redis.PoolSize,
		MinIdleConns: cfg.Cache.Redis.MinIdleConns,
		MaxConnAge:   cfg.Cache.Redis.MaxConnAge,
	})
	if err != nil {
		log.Warn("cache unavailable, continuing without it: %v", err)
		return cache.NewService(nil)
	}
	return cache.NewService(redisCache)
}
