package intent

import "strings"

// Intent is the coarse classification label for an inbound message.
type Intent string

const (
	DonationFood       Intent = "DONATION_FOOD"
	BeneficiaryRequest Intent = "BENEFICIARY_REQUEST"
	VolunteerSignup    Intent = "VOLUNTEER_SIGNUP"
	Other              Intent = "OTHER"
)

// All lists the intents in reporting order.
var All = []Intent{DonationFood, BeneficiaryRequest, VolunteerSignup, Other}

var (
	donationKeywords    = []string{"تبرع", "طعام", "أكل", "وجبات", "وليمة"}
	beneficiaryKeywords = []string{"سلة", "مساعدة", "معونة", "احتاج", "محتاجة"}
	volunteerKeywords   = []string{"تطوع", "متطوع", "تطوّع"}
)

// Classify maps a message to an intent by substring matching against
// fixed keyword lists. Precedence is fixed: donation keywords win over
// beneficiary ones, which win over volunteer ones, so a message that
// matches several lists always gets the earlier label. Empty or
// whitespace-only text is Other.
func Classify(text string) Intent {
	t := strings.TrimSpace(text)
	if t == "" {
		return Other
	}
	switch {
	case containsAny(t, donationKeywords):
		return DonationFood
	case containsAny(t, beneficiaryKeywords):
		return BeneficiaryRequest
	case containsAny(t, volunteerKeywords):
		return VolunteerSignup
	}
	return Other
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
