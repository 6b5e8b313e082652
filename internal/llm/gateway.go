package llm

import (
	"context"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// SystemPrompt fixes the assistant's role, service area, hours, contact
// channel, safety policy and the intent taxonomy for every request.
const SystemPrompt = `أنت مساعد افتراضي رسمي لجمعية حفظ النعمة بمنطقة حائل. دورك خدمة:
1) المتبرعين بفائض الطعام،
2) المستفيدين (الأسر المحتاجة)،
3) المتطوعين،
4) الاستفسارات العامة والشكاوى.
منطقة الخدمة: مدينة حائل والمراكز التابعة لها.
أوقات العمل: من الأحد إلى الخميس، 8:00 صباحًا – 9:00 مساءً.
رقم التواصل/واتساب: 0551965445.
سياسات السلامة:
- قبول الطعام المعبأ أو المطهي حديثًا وفق معايير السلامة ورفض غير الآمن.
- الحفاظ على سرية البيانات.
صنّف الرسائل إلى: DONATION_FOOD / BENEFICIARY_REQUEST / VOLUNTEER_SIGNUP / OTHER.
أجب بالعربية المختصرة واطلب الحقول الناقصة.`

// Fallback is sent to the user whenever the model cannot be reached.
const Fallback = "⚠️ عذرًا، حدث خطأ أثناء الاتصال بالنموذج."

// Gateway wraps a Client with the fixed system prompt, a bounded
// timeout and a global request-rate ceiling protecting the provider
// quota across all senders.
type Gateway struct {
	client  Client
	timeout time.Duration
	limiter *rate.Limiter
}

// NewGateway builds a gateway. rps <= 0 disables the global ceiling.
func NewGateway(client Client, timeout time.Duration, rps float64) *Gateway {
	g := &Gateway{client: client, timeout: timeout}
	if rps > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return g
}

// Ask obtains a short reply for the user's text. It never fails and
// never retries: any provider error, malformed response or timeout
// yields the fixed fallback string instead.
func (g *Gateway) Ask(ctx context.Context, userText string) string {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			log.Printf("❌ Groq error: waiting for request quota: %v", err)
			return Fallback
		}
	}

	resp, err := g.client.Generate(ctx, []Message{
		{Role: "system", Content: SystemPrompt},
		{Role: "user", Content: userText},
	})
	if err != nil {
		log.Printf("❌ Groq error: %v", err)
		return Fallback
	}
	if strings.TrimSpace(resp.Content) == "" {
		log.Printf("❌ Groq error: blank completion content")
		return Fallback
	}

	log.Printf("✅ Groq reply OK [model=%s, tokens: prompt=%d, completion=%d, total=%d]",
		resp.Model, resp.PromptTokens, resp.CompletionTokens, resp.TotalTokens)
	return resp.Content
}
