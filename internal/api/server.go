package api

import (
	"fmt"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/felicity-events/felicity-api/docs"
	v1 "github.com/felicity-events/felicity-api/internal/api/handler/v1"
	"github.com/felicity-events/felicity-api/internal/api/middleware"
	"github.com/felicity-events/felicity-api/internal/config"
	"github.com/felicity-events/felicity-api/internal/filestore"
	"github.com/felicity-events/felicity-api/internal/notification"
	"github.com/felicity-events/felicity-api/internal/repository"
	"github.com/felicity-events/felicity-api/internal/repository/dao"
	"github.com/felicity-events/felicity-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine
}

func NewServer(conf *config.AppConfig, db *gorm.DB) (*Server, error) {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config: conf,
		Router: engine,
	}

	s.MountMiddlewares()

	store, err := filestore.NewLocalStore(conf.Upload)
	if err != nil {
		return nil, fmt.Errorf("filestore.NewLocalStore -> %w", err)
	}
	mailer := notification.NewMailer(conf.Mail)

	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))

	authHandler := s.initAuthHandler(db, uSvc)
	userHandler := v1.NewUserHandler(uSvc)
	eventHandler := s.initEventHandler(db, uSvc)
	registrationHandler := s.initRegistrationHandler(db, uSvc, mailer, store)
	adminHandler := s.initAdminHandler(db, uSvc, mailer)
	discussionHandler := s.initDiscussionHandler(db, uSvc)
	s.MountHandlers(authHandler, userHandler, eventHandler, registrationHandler, adminHandler, discussionHandler, store)

	return s, nil
}

func (s *Server) initAuthHandler(db *gorm.DB, uSvc v1.UserService) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc, uSvc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB, uSvc v1.UserService) *v1.EventHandler {
	repo := repository.NewEventRepository(dao.NewEventDAO(db))
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewEventService(repo, regRepo, userRepo, notification.NewDiscordNotifier())
	handler := v1.NewEventHandler(svc, uSvc)

	return handler
}

func (s *Server) initRegistrationHandler(db *gorm.DB, uSvc v1.UserService, mailer notification.Mailer, store *filestore.LocalStore) *v1.RegistrationHandler {
	repo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	svc := service.NewRegistrationService(repo, eventRepo, userRepo, mailer)
	handler := v1.NewRegistrationHandler(svc, uSvc, store)

	return handler
}

func (s *Server) initAdminHandler(db *gorm.DB, uSvc v1.UserService, mailer notification.Mailer) *v1.AdminHandler {
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	resetRepo := repository.NewPasswordResetRepository(dao.NewPasswordResetDAO(db))
	svc := service.NewAdminService(userRepo, eventRepo, resetRepo, mailer)
	handler := v1.NewAdminHandler(svc, uSvc)

	return handler
}

func (s *Server) initDiscussionHandler(db *gorm.DB, uSvc v1.UserService) *v1.DiscussionHandler {
	repo := repository.NewDiscussionRepository(dao.NewDiscussionDAO(db))
	eventRepo := repository.NewEventRepository(dao.NewEventDAO(db))
	regRepo := repository.NewRegistrationRepository(dao.NewRegistrationDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))

	// The handler is also the service's broadcaster.
	handler := v1.NewDiscussionHandler(uSvc)
	svc := service.NewDiscussionService(repo, eventRepo, regRepo, userRepo, handler)
	handler.AttachService(svc)
	go handler.Run()

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	registrationHandler *v1.RegistrationHandler,
	adminHandler *v1.AdminHandler,
	discussionHandler *v1.DiscussionHandler,
	store *filestore.LocalStore,
) {
	const basePath = "/api/v1"

	auth := s.Router.Group(basePath)
	{
		auth.POST("/auth/signup", authHandler.HandleSignup)
		auth.POST("/auth/login", authHandler.HandleLogin)
	}

	authenticated := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authenticated.PUT("/auth/password", authHandler.HandleChangePassword)

		authenticated.GET("/users/me", userHandler.HandleGetMe)
		authenticated.PUT("/users/me", userHandler.HandleUpdateMe)
		authenticated.GET("/organizers", userHandler.HandleListOrganizers)
		authenticated.PUT("/organizers/me", userHandler.HandleUpdateOrganizerProfile)
		authenticated.POST("/organizers/:organizerID/follow", userHandler.HandleToggleFollow)
		authenticated.GET("/organizers/me/events", eventHandler.HandleListMyEvents)

		authenticated.GET("/events", eventHandler.HandleBrowseEvents)
		authenticated.GET("/events/trending", eventHandler.HandleTrendingEvents)
		authenticated.POST("/events", eventHandler.HandleCreateEvent)
		authenticated.GET("/events/:eventID", eventHandler.HandleGetEvent)
		authenticated.PUT("/events/:eventID", eventHandler.HandleUpdateEvent)
		authenticated.DELETE("/events/:eventID", eventHandler.HandleDeleteEvent)
		authenticated.POST("/events/:eventID/publish", eventHandler.HandlePublishEvent)
		authenticated.POST("/events/:eventID/close", eventHandler.HandleCloseEvent)
		authenticated.GET("/events/:eventID/analytics", eventHandler.HandleEventAnalytics)

		authenticated.POST("/events/:eventID/register", registrationHandler.HandleRegister)
		authenticated.POST("/events/:eventID/order", registrationHandler.HandleOrderMerchandise)
		authenticated.POST("/events/:eventID/checkin", registrationHandler.HandleCheckIn)
		authenticated.GET("/events/:eventID/ticket", registrationHandler.HandleGetTicket)
		authenticated.GET("/events/:eventID/registrations", registrationHandler.HandleListEventRegistrations)
		authenticated.GET("/events/:eventID/registrations/export", registrationHandler.HandleExportRegistrations)
		authenticated.GET("/registrations/mine", registrationHandler.HandleMyRegistrations)
		authenticated.POST("/registrations/:registrationID/payment-proof", registrationHandler.HandleUploadPaymentProof)
		authenticated.POST("/registrations/:registrationID/approve", registrationHandler.HandleApprovePayment)
		authenticated.POST("/registrations/:registrationID/reject", registrationHandler.HandleRejectPayment)

		authenticated.GET("/events/:eventID/discussion", discussionHandler.HandleListMessages)
		authenticated.POST("/events/:eventID/discussion", discussionHandler.HandlePostMessage)
		authenticated.GET("/events/:eventID/discussion/ws", discussionHandler.HandleBoardWebSocket)
		authenticated.POST("/discussion/:messageID/pin", discussionHandler.HandlePinMessage)
		authenticated.DELETE("/discussion/:messageID", discussionHandler.HandleDeleteMessage)
		authenticated.POST("/discussion/:messageID/reactions", discussionHandler.HandleToggleReaction)

		authenticated.POST("/password-resets", adminHandler.HandleRequestPasswordReset)
		authenticated.POST("/admin/organizers", adminHandler.HandleProvisionOrganizer)
		authenticated.DELETE("/admin/organizers/:organizerID", adminHandler.HandleDeleteOrganizer)
		authenticated.GET("/admin/password-resets", adminHandler.HandleListPendingResets)
		authenticated.POST("/admin/password-resets/:requestID/approve", adminHandler.HandleApprovePasswordReset)
		authenticated.POST("/admin/password-resets/:requestID/reject", adminHandler.HandleRejectPasswordReset)
		authenticated.GET("/admin/stats", adminHandler.HandlePlatformStats)
	}

	s.Router.Static(s.Config.Upload.PublicPath, store.Dir())

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Felicity Events API"
	docs.SwaggerInfo.Description = "Campus event management platform API."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
