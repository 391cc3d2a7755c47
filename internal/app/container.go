package app

import (
	"github.com/sirupsen/logrus"

	"github.com/epireve/hey-peter-scheduler/internal/adapter/httpapi"
	adapterrepo "github.com/epireve/hey-peter-scheduler/internal/adapter/repository"
	"github.com/epireve/hey-peter-scheduler/internal/entity"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/cache"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/config"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/database"
	"github.com/epireve/hey-peter-scheduler/internal/infrastructure/server"
	"github.com/epireve/hey-peter-scheduler/internal/usecase"
)

// Container aggregates the application dependencies.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Server   *server.Server
	Engine   usecase.SchedulingRulesEngine
	Importer usecase.CurriculumImporter
}

// Initialize builds the application container. The returned cleanup closes
// the database pool and the cache client.
func Initialize() (*Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logger, err := server.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	pool, closePool, err := database.NewConnection(cfg)
	if err != nil {
		if closePool != nil {
			closePool()
		}
		return nil, nil, err
	}

	analyticsCache, closeCache, err := cache.NewAnalyticsCache(cfg)
	if err != nil {
		closeCache()
		closePool()
		return nil, nil, err
	}

	students := adapterrepo.NewStudentRepository(pool)
	curriculum := adapterrepo.NewCurriculumRepository(pool)
	feedback := adapterrepo.NewFeedbackRepository(pool)
	attendance := adapterrepo.NewAttendanceRepository(pool)
	teachers := adapterrepo.NewTeacherRepository(pool)
	classes := adapterrepo.NewClassRepository(pool)
	waitlist := adapterrepo.NewWaitlistRepository(pool)

	gaps := usecase.NewGapAnalyzer(students, curriculum, feedback, attendance)
	analytics := usecase.NewAnalyticsEstimator(students, feedback, attendance, analyticsCache)
	builder := usecase.NewCompositionBuilder()
	engine := usecase.NewSchedulingRulesEngine(
		cfg.RulesEngineConfig(), nil, gaps, builder, students, teachers, nil, logger)
	recommender := usecase.NewRecommender(
		students, classes, curriculum, feedback, waitlist, analytics,
		entity.DefaultRecommendationWeights(), nil, logger)
	importer := usecase.NewCurriculumImporter(curriculum, logger)

	handler := httpapi.NewHandler(engine, gaps, analytics, recommender, importer, classes, logger)
	srv := server.NewServer(cfg, logger, handler.Routes())

	cleanup := func() {
		closeCache()
		closePool()
	}

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Server:   srv,
		Engine:   engine,
		Importer: importer,
	}, cleanup, nil
}
