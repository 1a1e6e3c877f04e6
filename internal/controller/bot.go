package controller

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Freeeeeet/relay_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/relay_bot/internal/controller/handlers"
	"github.com/Freeeeeet/relay_bot/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	logger          *zap.Logger
}

func NewBotController(services handlers.Services, logger *zap.Logger) *BotController {
	// Создаём менеджер состояний
	stateManager := state.NewManager()

	// Создаём обработчики команд
	cmdHandlers := handlers.NewHandlers(services, stateManager, logger)

	// Создаём адаптер для callback handlers
	stateAdapter := state.NewAdapter(stateManager)

	// Создаём callback handler с зависимостями
	callbackHandler := callbacks.NewHandler(
		services.Users,
		services.Connections,
		services.Relay,
		stateAdapter,
		logger,
		cmdHandlers.Notify,
	)

	return &BotController{
		handlers:        cmdHandlers,
		callbackHandler: callbackHandler,
		logger:          logger,
	}
}

// Options опции для bot.New: весь текст без команды уходит в пересылку
func (c *BotController) Options() []bot.Option {
	return []bot.Option{
		bot.WithDefaultHandler(c.handlers.HandleTextMessage),
		bot.WithCallbackQueryDataHandler("", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery),
	}
}

// commandPattern "/name", "/name аргументы" и "/name@bot_username ..."
func commandPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(fmt.Sprintf(`^/%s(@\w+)?(\s|$)`, regexp.QuoteMeta(name)))
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context, b *bot.Bot) error {
	c.bot = b

	commands := map[string]bot.HandlerFunc{
		"start":        c.handlers.HandleStart,
		"help":         c.handlers.HandleHelp,
		"cancel":       c.handlers.HandleCancel,
		"supervisor":   c.handlers.HandleSupervisor,
		"join":         c.handlers.HandleJoin,
		"slot":         c.handlers.HandleSlot,
		"connections":  c.handlers.HandleConnections,
		"disconnect":   c.handlers.HandleDisconnect,
		"task":         c.handlers.HandleTask,
		"tasks":        c.handlers.HandleTasks,
		"subscription": c.handlers.HandleSubscription,
		"feedback":     c.handlers.HandleFeedback,
		"language":     c.handlers.HandleLanguage,
		"leave":        c.handlers.HandleLeave,
	}
	for name, handler := range commands {
		c.bot.RegisterHandlerRegexp(bot.HandlerTypeMessageText, commandPattern(name), handler)
	}

	// Устанавливаем меню команд
	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "supervisor", Description: "🎓 Стать руководителем"},
		{Command: "join", Description: "🔑 Подключиться по invite-коду"},
		{Command: "slot", Description: "🎯 Выбрать подчинённого"},
		{Command: "task", Description: "📌 Поставить задачу"},
		{Command: "tasks", Description: "📋 Открытые задачи"},
		{Command: "connections", Description: "🔗 Мои связи"},
		{Command: "disconnect", Description: "🔌 Разорвать связь"},
		{Command: "subscription", Description: "💎 Тариф и лимиты"},
		{Command: "language", Description: "🌐 Язык перевода"},
		{Command: "feedback", Description: "✍️ Обратная связь"},
		{Command: "leave", Description: "👋 Удалить аккаунт"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) error {
	if c.bot == nil {
		return fmt.Errorf("bot is not registered")
	}
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
