package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"factcheck/api/internal/nli"
	"factcheck/api/internal/verify"
)

const defaultTimeout = 75 * time.Second

// Sender is the subset of *tgbotapi.BotAPI the router needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Verifier interface {
	VerifyWith(ctx context.Context, eng nli.Engine, c verify.Claim) (verify.Report, error)
}

type Router struct {
	Bot        Sender
	Pipeline   Verifier
	Engines    *nli.Engines
	EngManager *nli.Manager
	Log        *zap.Logger
	Timeout    time.Duration
}

func (r *Router) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return defaultTimeout
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	if msg.IsCommand() {
		r.HandleCommand(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		r.send(msg.Chat.ID, "Send me a claim as text, or a link with /link <url>.")
		return
	}
	r.check(ctx, msg.Chat.ID, verify.Claim{Text: text, IsLink: isURL(text)})
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.send(cid, r.healthText(cid))
	case "engine":
		r.handleEngineCommand(cid, args)
	case "link":
		if args == "" {
			r.send(cid, "Usage: /link <url>")
			return
		}
		r.check(ctx, cid, verify.Claim{Text: args, IsLink: true})
	case "check":
		if args == "" {
			r.send(cid, "Usage: /check <claim>")
			return
		}
		r.check(ctx, cid, verify.Claim{Text: args})
	default:
		r.send(cid, "Unknown command. Try /help.")
	}
}

const helpText = `Send me a claim and I will check it against web search results.
Commands:
/check <claim> - check a claim
/link <url> - check a link
/engine [huggingface|gemini|gpt] - show or switch the classifier
/health - service status`

func (r *Router) healthText(chatID int64) string {
	eng := r.EngManager.Get(chatID)
	if eng == nil {
		return "❌ no classifier engine"
	}
	if err := eng.Ready(); err != nil {
		return fmt.Sprintf("⚠️ %s: %v", eng.Name(), err)
	}
	return "✅ OK, engine: " + eng.Name()
}

// handleEngineCommand shows or switches the engine for one chat.
//
//	/engine
//	/engine gemini
func (r *Router) handleEngineCommand(chatID int64, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		cur := r.EngManager.Get(chatID)
		name := "none"
		if cur != nil {
			name = cur.Name()
		}
		r.send(chatID, "Current engine: "+name+"\nUsage: /engine {huggingface|gemini|gpt}")
		return
	}
	eng, err := r.Engines.GetEngine(fields[0])
	if err != nil {
		r.send(chatID, "❌ "+err.Error())
		return
	}
	if err := eng.Ready(); err != nil {
		r.send(chatID, "❌ "+eng.Name()+" is not configured on the server.")
		return
	}
	r.EngManager.Set(chatID, eng)
	r.send(chatID, fmt.Sprintf("✅ Engine: %s (%s)", eng.Name(), eng.GetModel()))
}

func (r *Router) check(ctx context.Context, chatID int64, c verify.Claim) {
	_, _ = r.Bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	rep, err := r.Pipeline.VerifyWith(ctx, r.EngManager.Get(chatID), c)
	if err != nil {
		r.SendError(chatID, err)
		return
	}
	r.send(chatID, FormatReport(rep))
}

func (r *Router) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := r.Bot.Send(msg); err != nil && r.Log != nil {
		r.Log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) SendError(chatID int64, err error) {
	if r.Log != nil {
		r.Log.Error("verification failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
	var ce *verify.ConfigError
	var ue *nli.UpstreamError
	switch {
	case errors.As(err, &ce):
		r.send(chatID, "❌ The classifier is not configured on the server. Try /engine to pick another one.")
	case errors.As(err, &ue):
		r.send(chatID, "❌ The classification service returned an error ("+ue.Details()+").")
	default:
		r.send(chatID, "❌ Something went wrong, please try again later.")
	}
}
