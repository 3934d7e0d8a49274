package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/schedule_registrations/internal/controller/formatting"
	"github.com/Freeeeeet/schedule_registrations/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// StudentRegistrations - то, что бот показывает студенту
type StudentRegistrations interface {
	ListForStudent(ctx context.Context, telegramID int64) ([]*model.Registration, error)
}

// BotController - бот для студентов: id чата для привязки и статус своих записей
type BotController struct {
	bot           *bot.Bot
	registrations StudentRegistrations
	logger        *zap.Logger
}

func NewBotController(botInstance *bot.Bot, registrations StudentRegistrations, logger *zap.Logger) *BotController {
	return &BotController{
		bot:           botInstance,
		registrations: registrations,
		logger:        logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/myregistrations", bot.MatchTypeExact, c.HandleMyRegistrations)

	return c.setCommands(ctx)
}

func (c *BotController) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	text := fmt.Sprintf(
		"👋 Hi, %s!\n\n"+
			"Your chat ID is %d. Give it to the course administrator to receive notifications here.\n\n"+
			"/myregistrations - status of your registrations",
		update.Message.From.FirstName,
		update.Message.Chat.ID,
	)
	c.reply(ctx, b, update.Message.Chat.ID, text)
}

func (c *BotController) HandleMyRegistrations(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	regs, err := c.registrations.ListForStudent(ctx, chatID)
	if errors.Is(err, model.ErrUserNotFound) {
		c.reply(ctx, b, chatID, "This chat is not linked to a student account yet. Send /start to get your chat ID.")
		return
	}
	if err != nil {
		c.logger.Error("Failed to list student registrations", zap.Int64("chat_id", chatID), zap.Error(err))
		c.reply(ctx, b, chatID, "❌ Something went wrong. Please try again later.")
		return
	}

	c.reply(ctx, b, chatID, FormatRegistrations(regs))
}

// FormatRegistrations - текст ответа на /myregistrations
func FormatRegistrations(regs []*model.Registration) string {
	if len(regs) == 0 {
		return "You have no registrations yet."
	}

	var sb strings.Builder
	sb.WriteString("📅 Your registrations:\n")
	for _, reg := range regs {
		title := fmt.Sprintf("schedule #%d", reg.ScheduleID)
		if reg.Schedule != nil {
			title = reg.Schedule.Title
		}
		sb.WriteString(fmt.Sprintf("\n• %s\n  %s · %s",
			title,
			formatting.GetRegistrationStatusDisplay(reg.Status),
			formatting.GetPaymentStatusDisplay(reg.PaymentStatus),
		))
		if reg.Session != nil {
			sb.WriteString("\n  📆 " + formatting.FormatSession(reg.Session))
		}
		if reg.Schedule != nil && reg.PaymentStatus != model.PaymentStatusFree {
			sb.WriteString("\n  💵 " + formatting.FormatPrice(reg.Schedule.Price))
		}
		if reg.Status == model.RegistrationStatusApproved && reg.PaymentStatus == model.PaymentStatusPending && reg.PaymentLink != "" {
			sb.WriteString("\n  Pay here: " + reg.PaymentLink)
		}
		if reg.Status == model.RegistrationStatusRejected && reg.RejectionReason != "" {
			sb.WriteString("\n  Reason: " + reg.RejectionReason)
		}
	}
	return sb.String()
}

func (c *BotController) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		c.logger.Error("Failed to send bot reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Get your chat ID"},
		{Command: "myregistrations", Description: "📅 My registrations"},
		{Command: "help", Description: "❓ Help"},
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

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
