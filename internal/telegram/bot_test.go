package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hefz-bot/internal/auth"
	"hefz-bot/internal/ratelimit"
	"hefz-bot/internal/storage"
)

type fakeSender struct{ sent []string }

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	sw := c.(tgbotapi.MessageConfig)
	f.sent = append(f.sent, sw.Text)
	return tgbotapi.Message{}, nil
}

type fakeGateway struct {
	reply string
	calls int
	panic bool
}

func (f *fakeGateway) Ask(ctx context.Context, userText string) string {
	f.calls++
	if f.panic {
		panic("gateway exploded")
	}
	return f.reply
}

type fakeStore struct {
	rows       []storage.Interaction
	statsCalls int
	backups    int
	failAppend bool
}

func (f *fakeStore) Append(r storage.Interaction) error {
	if f.failAppend {
		return errors.New("disk full")
	}
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeStore) Load() ([]storage.Interaction, error) { return f.rows, nil }

func (f *fakeStore) Statistics() (storage.Statistics, error) {
	f.statsCalls++
	return storage.Statistics{Total: len(f.rows), ByIntent: map[string]int{}}, nil
}

func (f *fakeStore) Backup(dir string) (string, error) {
	f.backups++
	return dir + "/requests-test.csv", nil
}

func newTestBot(gw *fakeGateway, st *fakeStore, admins []int64) (*Bot, *fakeSender) {
	fs := &fakeSender{}
	b := &Bot{
		s:         fs,
		authSvc:   auth.New(admins),
		gateway:   gw,
		limiter:   ratelimit.New(5, time.Minute),
		store:     st,
		backupDir: "backups",
		startedAt: time.Now(),
	}
	return b, fs
}

func textMessage(userID int64, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID, UserName: "user", FirstName: "عبدالله"},
		Chat: &tgbotapi.Chat{ID: 100},
		Text: text,
	}
}

func commandMessage(userID int64, cmd string) *tgbotapi.Message {
	m := textMessage(userID, "/"+cmd)
	m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd) + 1}}
	return m
}

func TestHandleIncomingMessage_DonationFlow(t *testing.T) {
	gw := &fakeGateway{reply: "حياك الله، متى يناسبك الاستلام؟"}
	st := &fakeStore{}
	b, fs := newTestBot(gw, st, nil)

	b.handleIncomingMessage(context.Background(), textMessage(7, "أريد التبرع بوجبات"))

	if gw.calls != 1 {
		t.Fatalf("gateway calls = %d, want 1", gw.calls)
	}
	if len(st.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(st.rows))
	}
	rec := st.rows[0]
	if rec.Intent != "DONATION_FOOD" || rec.UserID != 7 || rec.Message != "أريد التبرع بوجبات" || rec.Reply != gw.reply {
		t.Fatalf("bad record: %+v", rec)
	}
	if len(fs.sent) != 1 || fs.sent[0] != gw.reply {
		t.Fatalf("reply not delivered: %+v", fs.sent)
	}
}

func TestHandleIncomingMessage_EmptyTextSilentlyDropped(t *testing.T) {
	gw := &fakeGateway{reply: "x"}
	st := &fakeStore{}
	b, fs := newTestBot(gw, st, nil)

	b.handleIncomingMessage(context.Background(), textMessage(7, "  \n\t "))

	if gw.calls != 0 || len(st.rows) != 0 || len(fs.sent) != 0 {
		t.Fatalf("empty message must be fully silent: calls=%d rows=%d sent=%v",
			gw.calls, len(st.rows), fs.sent)
	}
}

func TestHandleIncomingMessage_RateLimited(t *testing.T) {
	gw := &fakeGateway{reply: "x"}
	st := &fakeStore{}
	b, fs := newTestBot(gw, st, nil)
	b.limiter = ratelimit.New(1, time.Minute)

	b.handleIncomingMessage(context.Background(), textMessage(7, "مرحبا"))
	b.handleIncomingMessage(context.Background(), textMessage(7, "مرحبا مجددًا"))

	if gw.calls != 1 {
		t.Fatalf("denied message consumed an LLM call: %d", gw.calls)
	}
	if len(st.rows) != 1 {
		t.Fatalf("denied message was persisted: %d rows", len(st.rows))
	}
	if len(fs.sent) != 2 || fs.sent[1] != rateLimitMsg {
		t.Fatalf("advisory not sent: %+v", fs.sent)
	}
}

func TestHandleIncomingMessage_PanicIsContained(t *testing.T) {
	gw := &fakeGateway{panic: true}
	st := &fakeStore{}
	b, fs := newTestBot(gw, st, nil)

	b.handleIncomingMessage(context.Background(), textMessage(7, "مرحبا"))

	if len(fs.sent) != 1 || fs.sent[0] != genericErrMsg {
		t.Fatalf("generic apology not sent after panic: %+v", fs.sent)
	}
}

func TestHandleIncomingMessage_AppendFailureStillReplies(t *testing.T) {
	gw := &fakeGateway{reply: "رد"}
	st := &fakeStore{failAppend: true}
	b, fs := newTestBot(gw, st, nil)

	b.handleIncomingMessage(context.Background(), textMessage(7, "مرحبا"))

	if len(fs.sent) != 1 || fs.sent[0] != "رد" {
		t.Fatalf("reply lost on append failure: %+v", fs.sent)
	}
}

func TestHandleCommand_StartGreets(t *testing.T) {
	b, fs := newTestBot(&fakeGateway{}, &fakeStore{}, nil)
	b.handleCommand(commandMessage(7, "start"))
	if len(fs.sent) != 1 || fs.sent[0] != greetingMsg {
		t.Fatalf("greeting not sent: %+v", fs.sent)
	}
}

func TestHandleCommand_HealthOpenToEveryone(t *testing.T) {
	b, fs := newTestBot(&fakeGateway{}, &fakeStore{}, []int64{999})
	b.handleCommand(commandMessage(7, "health"))
	if len(fs.sent) != 1 || !strings.Contains(fs.sent[0], "يعمل") {
		t.Fatalf("health reply missing: %+v", fs.sent)
	}
}

func TestHandleCommand_StatsAdminGated(t *testing.T) {
	st := &fakeStore{rows: []storage.Interaction{{UserID: 1}}}
	b, fs := newTestBot(&fakeGateway{}, st, []int64{999})

	b.handleCommand(commandMessage(7, "stats"))
	if len(fs.sent) != 1 || fs.sent[0] != adminOnlyMsg {
		t.Fatalf("non-admin not refused: %+v", fs.sent)
	}
	if st.statsCalls != 0 {
		t.Fatalf("refused command had a side effect")
	}

	b.handleCommand(commandMessage(999, "stats"))
	if st.statsCalls != 1 {
		t.Fatalf("admin stats not computed")
	}
	if len(fs.sent) != 2 || !strings.Contains(fs.sent[1], "الإجمالي: 1") {
		t.Fatalf("stats reply missing: %+v", fs.sent)
	}
}

func TestHandleCommand_BackupAdminGated(t *testing.T) {
	st := &fakeStore{}
	b, fs := newTestBot(&fakeGateway{}, st, []int64{999})

	b.handleCommand(commandMessage(7, "backup"))
	if st.backups != 0 {
		t.Fatalf("refused backup ran anyway")
	}
	if len(fs.sent) != 1 || fs.sent[0] != adminOnlyMsg {
		t.Fatalf("non-admin not refused: %+v", fs.sent)
	}

	b.handleCommand(commandMessage(999, "backup"))
	if st.backups != 1 {
		t.Fatalf("admin backup not triggered")
	}
	if len(fs.sent) != 2 || !strings.Contains(fs.sent[1], "requests-test.csv") {
		t.Fatalf("backup path not reported: %+v", fs.sent)
	}
}
