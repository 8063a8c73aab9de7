package brief

import (
	"strings"
)

// Urgency thresholds for the importance tiers
const (
	highUrgencyThreshold   = 7
	mediumUrgencyThreshold = 4
)

// DefaultVIPDomains is the built-in sender allowlist used when the user
// has not configured one.
var DefaultVIPDomains = []string{
	"board.example.com",
}

// ClassifyImportance maps an urgency score and sender address to a tier.
// A VIP sender domain promotes the thread to high regardless of urgency,
// so a quiet thread from a VIP is still surfaced.
func ClassifyImportance(urgency int, sender string, vipDomains []string) Importance {
	if urgency >= highUrgencyThreshold || IsVIPSender(sender, vipDomains) {
		return ImportanceHigh
	}
	if urgency >= mediumUrgencyThreshold {
		return ImportanceMedium
	}
	return ImportanceLow
}

// IsVIPSender checks whether the sender's domain is in the VIP allowlist
func IsVIPSender(sender string, vipDomains []string) bool {
	domain := senderDomain(sender)
	if domain == "" {
		return false
	}
	for _, vip := range vipDomains {
		if domain == strings.ToLower(strings.TrimSpace(vip)) {
			return true
		}
	}
	return false
}

// senderDomain extracts the lower-cased domain part of an address.
// Handles both bare addresses and "Name <addr@host>" forms.
func senderDomain(sender string) string {
	sender = strings.TrimSpace(sender)
	if start := strings.LastIndex(sender, "<"); start >= 0 {
		if end := strings.LastIndex(sender, ">"); end > start {
			sender = sender[start+1 : end]
		}
	}
	at := strings.LastIndex(sender, "@")
	if at < 0 || at == len(sender)-1 {
		return ""
	}
	return strings.ToLower(sender[at+1:])
}
