package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/shopipet/chatkit/internal/assistant"
	"github.com/shopipet/chatkit/internal/core"
	"github.com/shopipet/chatkit/internal/logger"
)

// PolicyService defines the interface for checking user permissions.
type PolicyService interface {
	IsAdmin(userID int64) bool
	IsAllowed(userID int64) bool
}

// Bot represents the Telegram front end of the shop assistant.
type Bot struct {
	bot       *bot.Bot
	assistant *assistant.Assistant
	policy    PolicyService
}

// NewBot creates a new bot instance.
func NewBot(token string, asst *assistant.Assistant, policy PolicyService) (*Bot, error) {
	b := &Bot{
		assistant: asst,
		policy:    policy,
	}

	botAPI, err := bot.New(token, bot.WithDefaultHandler(b.handleUpdate))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}

	b.bot = botAPI
	return b, nil
}

// Start starts the bot. It blocks until the context is canceled.
func (b *Bot) Start(ctx context.Context) {
	b.bot.Start(ctx)
}

// handleUpdate handles a Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, tgbot *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message
	chatID := message.Chat.ID
	userID := message.From.ID

	if !b.policy.IsAllowed(userID) {
		logger.TelegramInfo("Chat[%d] User[%d]: Rejected message from disallowed user.", chatID, userID)
		return
	}

	if message.Text == "" {
		logger.TelegramInfo("Chat[%d] User[%d]: Ignored unhandled message type.", chatID, userID)
		return
	}

	if message.Text[0] == '/' {
		b.handleCommand(ctx, message)
		return
	}

	b.handleTextMessage(ctx, message)
}

// handleCommand handles bot commands.
func (b *Bot) handleCommand(ctx context.Context, message *models.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID

	command := strings.TrimPrefix(message.Text, "/")
	if idx := strings.IndexAny(command, " @"); idx >= 0 {
		command = command[:idx]
	}
	logger.TelegramInfo("Chat[%d] User[%d]: Received command: /%s", chatID, userID, command)

	switch command {
	case "start", "help":
		text := "שלום! אני שופיבוט 🐾\n"
		text += "ספרו לי מה אתם מחפשים עבור חיית המחמד שלכם ואמצא מוצרים מתאימים מהחנות.\n"
		text += "\nCommands:\n/help - Show this help message"
		if b.policy.IsAdmin(userID) {
			text += "\n/sync - Rebuild the product catalog"
			text += "\n/status - Show catalog status"
			text += "\n/clear - Remove the stored catalog"
		}
		b.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})

	case "sync":
		if !b.policy.IsAdmin(userID) {
			b.bot.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "Sorry, only admins can trigger a catalog sync.",
			})
			return
		}
		b.handleSync(ctx, chatID)

	case "status":
		if !b.policy.IsAdmin(userID) {
			return
		}
		b.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   fmt.Sprintf("Catalog: %d products loaded.", b.assistant.CatalogSize()),
		})

	case "clear":
		if !b.policy.IsAdmin(userID) {
			return
		}
		if err := b.assistant.ClearCatalog(ctx); err != nil {
			b.bot.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: chatID,
				Text:   "❌ Failed to clear the catalog: " + err.Error(),
			})
			return
		}
		b.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "🗑 Catalog cleared. Run /sync to rebuild it.",
		})

	default:
		logger.TelegramInfo("Chat[%d] User[%d]: Unknown command received: /%s", chatID, userID, command)
		b.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Unknown command. Try /help to see available commands.",
		})
	}
}

// handleSync runs a catalog sync and reports the structured result.
func (b *Bot) handleSync(ctx context.Context, chatID int64) {
	b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "⏳ Starting catalog sync, this can take a few minutes...",
	})

	done := make(chan struct{})
	go b.sendContinuousTypingAction(ctx, chatID, done)
	res := b.assistant.Sync(ctx)
	close(done)

	var text string
	switch res.Status {
	case core.SyncStatusSuccess:
		text = fmt.Sprintf("✅ Sync complete: %d items stored (%.2f MB).", res.ItemsCount, res.SizeMB)
	case core.SyncStatusSkipped:
		text = "ℹ️ Catalog unchanged since last sync, nothing to do."
	case core.SyncStatusWarning:
		text = "⚠️ " + res.Message
	default:
		text = "❌ Sync failed: " + res.Message
	}
	b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// handleTextMessage answers a product question.
func (b *Bot) handleTextMessage(ctx context.Context, message *models.Message) {
	chatID := message.Chat.ID
	userID := message.From.ID
	logger.TelegramDebug("Chat[%d] User[%d]: Received text message: %q", chatID, userID, message.Text)

	done := make(chan struct{})
	go b.sendContinuousTypingAction(ctx, chatID, done)
	result := b.assistant.Chat(ctx, message.Text)
	close(done)

	text := result.Reply
	if lines := renderProductLines(result.Items); lines != "" {
		text += "\n\n" + lines
	}

	logPreview := result.Reply
	if len(logPreview) > 80 {
		logPreview = logPreview[:80] + "..."
	}
	logger.TelegramInfo("Chat[%d]: Sending reply (%d products, mode %s): %q", chatID, len(result.Items), result.Mode, logPreview)

	b.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// renderProductLines formats retrieved products as a short list with links.
func renderProductLines(items []core.ScoredProduct) string {
	if len(items) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, it := range items {
		p := it.Product
		sb.WriteString("• " + p.Name)
		if price := p.EffectivePrice(); price != "" {
			sb.WriteString(" - ₪" + price)
		}
		if p.URL != "" {
			sb.WriteString("\n  " + p.URL)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// sendContinuousTypingAction sends the typing action periodically until the done channel is closed
func (b *Bot) sendContinuousTypingAction(ctx context.Context, chatID int64, done chan struct{}) {
	b.bot.SendChatAction(ctx, &bot.SendChatActionParams{
		ChatID: chatID,
		Action: "typing",
	})

	ticker := time.NewTicker(4 * time.Second) // Telegram typing status lasts ~5 seconds
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			b.bot.SendChatAction(ctx, &bot.SendChatActionParams{
				ChatID: chatID,
				Action: "typing",
			})
		case <-ctx.Done():
			logger.TelegramDebug("Chat[%d]: Context cancelled, stopping typing action.", chatID)
			return
		}
	}
}
