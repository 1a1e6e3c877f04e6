package handlers

import (
	"github.com/Freeeeeet/relay_bot/internal/controller/state"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"go.uber.org/zap"
)

// Services сервисы, которые нужны обработчикам команд
type Services struct {
	Users         *service.UserService
	Connections   *service.ConnectionService
	Usage         *service.UsageService
	Subscriptions *service.SubscriptionService
	Tasks         *service.TaskService
	Admin         *service.AdminService
	Relay         *service.RelayService
	Limits        service.LimitsSource
}

// Handlers содержит все зависимости для обработки команд
type Handlers struct {
	userService         *service.UserService
	connectionService   *service.ConnectionService
	usageService        *service.UsageService
	subscriptionService *service.SubscriptionService
	taskService         *service.TaskService
	adminService        *service.AdminService
	relayService        *service.RelayService
	limits              service.LimitsSource
	stateManager        *state.Manager
	logger              *zap.Logger
}

// NewHandlers создаёт новый обработчик команд
func NewHandlers(services Services, stateManager *state.Manager, logger *zap.Logger) *Handlers {
	return &Handlers{
		userService:         services.Users,
		connectionService:   services.Connections,
		usageService:        services.Usage,
		subscriptionService: services.Subscriptions,
		taskService:         services.Tasks,
		adminService:        services.Admin,
		relayService:        services.Relay,
		limits:              services.Limits,
		stateManager:        stateManager,
		logger:              logger,
	}
}
