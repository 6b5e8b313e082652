package telegram

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hefz-bot/internal/intent"
	"hefz-bot/internal/storage"
)

const (
	greetingMsg   = "مرحبًا! أنا مساعد جمعية حفظ النعمة بحائل. كيف أقدر أخدمك؟"
	rateLimitMsg  = "⏳ فضلًا انتظر قليلًا قبل إرسال رسالة جديدة."
	genericErrMsg = "⚠️ حدث خطأ أثناء معالجة رسالتك."
	adminOnlyMsg  = "⛔ هذا الأمر متاح لمشرفي الجمعية فقط."
	statsErrMsg   = "⚠️ تعذر حساب الإحصائيات."
	backupErrMsg  = "⚠️ تعذر إنشاء النسخة الاحتياطية."
)

// handleIncomingMessage runs the intake pipeline for one text message.
// Terminal outcomes: replied, rate limited (advisory only), empty text
// (silently dropped) or errored (generic apology). The recover fence
// keeps any fault inside this message's handling.
func (b *Bot) handleIncomingMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("💥 handler panic for user %d: %v\n%s", msg.From.ID, r, debug.Stack())
			b.sendMessage(msg.Chat.ID, genericErrMsg)
		}
	}()

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	user := msg.From
	if !b.limiter.Allow(user.ID) {
		log.Printf("⏳ Rate limited user %d (@%s)", user.ID, user.UserName)
		b.sendMessage(msg.Chat.ID, rateLimitMsg)
		return
	}

	log.Printf("📩 Message from %d (@%s): %q", user.ID, user.UserName, text)

	it := intent.Classify(text)
	reply := b.gateway.Ask(ctx, text)

	rec := storage.Interaction{
		Timestamp: time.Now(),
		UserID:    user.ID,
		Username:  user.UserName,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Intent:    string(it),
		Message:   text,
		Reply:     reply,
	}
	// The reply still goes out if the append fails; the failure stays
	// in the log for the operator.
	if err := b.store.Append(rec); err != nil {
		log.Printf("❌ failed to persist interaction: %v", err)
	} else {
		log.Printf("✅ Interaction saved [intent=%s]", it)
	}

	b.sendMessage(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	user := msg.From
	log.Printf("🚀 /%s from @%s (%d)", msg.Command(), user.UserName, user.ID)

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msg.Chat.ID, greetingMsg)
	case "health":
		b.handleHealth(msg)
	case "stats":
		if !b.authSvc.IsAllowed(user.ID) {
			b.sendMessage(msg.Chat.ID, adminOnlyMsg)
			return
		}
		b.handleStats(msg)
	case "backup":
		if !b.authSvc.IsAllowed(user.ID) {
			b.sendMessage(msg.Chat.ID, adminOnlyMsg)
			return
		}
		b.handleBackup(msg)
	}
}

func (b *Bot) handleHealth(msg *tgbotapi.Message) {
	uptime := time.Since(b.startedAt).Round(time.Second)
	b.sendMessage(msg.Chat.ID, fmt.Sprintf("✅ البوت يعمل. مدة التشغيل: %s", uptime))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) {
	st, err := b.store.Statistics()
	if err != nil {
		log.Printf("❌ statistics failed: %v", err)
		b.sendMessage(msg.Chat.ID, statsErrMsg)
		return
	}
	var bld strings.Builder
	bld.WriteString("📊 إحصائيات الطلبات:\n")
	bld.WriteString(fmt.Sprintf("الإجمالي: %d\n", st.Total))
	bld.WriteString(fmt.Sprintf("اليوم: %d\n", st.Today))
	for _, it := range intent.All {
		bld.WriteString(fmt.Sprintf("%s: %d\n", it, st.ByIntent[string(it)]))
	}
	b.sendMessage(msg.Chat.ID, bld.String())
}

func (b *Bot) handleBackup(msg *tgbotapi.Message) {
	path, err := b.store.Backup(b.backupDir)
	if err != nil {
		log.Printf("❌ backup failed: %v", err)
		b.sendMessage(msg.Chat.ID, backupErrMsg)
		return
	}
	log.Printf("💾 Backup written to %s", path)
	b.sendMessage(msg.Chat.ID, "💾 تم إنشاء نسخة احتياطية: "+path)
}
