package wire

import (
	"Vitrin/internal/api"
	"Vitrin/internal/api/config"
	"Vitrin/internal/api/handler"
	"Vitrin/internal/job"
	"Vitrin/internal/pkg/cron"
	"Vitrin/internal/pkg/es"
	"Vitrin/internal/pkg/kafka"
	"Vitrin/internal/pkg/mongo"
	"Vitrin/internal/repository"
	"Vitrin/internal/service"

	"github.com/gin-gonic/gin"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// ApplicationContainer 封装了应用运行所需的所有顶级组件
type ApplicationContainer struct {
	Router       *gin.Engine
	DB           *gorm.DB
	KafkaManager *kafka.ConsumerManager
	CronMgr      *cron.Manager
}

func BuildApplication(db *gorm.DB, mongoDB *mongodriver.Database, cfg *config.Config) (*ApplicationContainer, error) {
	// repository
	listingDBRepo := repository.NewListingRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	listingESRepo := es.NewListingRepo(es.Client)
	contactRepo := mongo.NewContactMessageRepo(mongoDB)
	storage := service.NewMinioStorage()

	// service
	listingService := service.NewListingService(listingDBRepo, listingESRepo, storage)
	draftService := service.NewDraftService(listingService, storage, cfg.Editor, cfg.Server.MaxUploadMB)
	adminService := service.NewAdminService(adminRepo)
	contactService := service.NewContactService(contactRepo, listingService, service.NewNotifier(cfg.Notify))

	handlers := &api.HandlersGroup{
		ListingHandler: handler.NewListingHandler(listingService),
		DraftHandler:   handler.NewDraftHandler(draftService),
		AdminHandler:   handler.NewAdminHandler(adminService),
		ContactHandler: handler.NewContactHandler(contactService),
		WsHandler:      handler.NewWsHandler(cfg.Server.AllowedOrigins),
	}

	router := api.SetupRouter(handlers, cfg.Server)

	kafkaMgr, err := kafka.NewConsumerManager(cfg, listingESRepo)
	if err != nil {
		return nil, err
	}

	cronMgr := cron.NewCronManager(job.NewMediaCleanupJob(storage))

	return &ApplicationContainer{
		Router:       router,
		DB:           db,
		KafkaManager: kafkaMgr,
		CronMgr:      cronMgr,
	}, nil
}
