package smsparser

import (
	"strings"
	"time"

	"teketeke/mpesa-sms/internal/currencyutils"
	"teketeke/mpesa-sms/internal/dateutils"
	"teketeke/mpesa-sms/internal/models"
	"teketeke/mpesa-sms/internal/textutils"

	"github.com/shopspring/decimal"
)

// Marker is the case-folded token every relevant message contains.
const Marker = "m-pesa"

// directionRule maps a set of case-folded phrases to a direction.
type directionRule struct {
	direction models.Direction
	phrases   []string
}

// directionRules are evaluated in order; the first rule with a matching phrase wins.
var directionRules = []directionRule{
	{direction: models.Inbound, phrases: []string{"you have received", "received from"}},
	{direction: models.Outbound, phrases: []string{"paid to", "sent to", "send to"}},
}

// defaultDirection applies when no rule matches. Messages without a recognisable
// phrase are most often payment confirmations.
const defaultDirection = models.Outbound

// message is the immutable input every stage reads from.
type message struct {
	text   string // trimmed body
	folded string // lower-cased text
	millis int64
}

func newMessage(body string, millis int64) message {
	text := strings.TrimSpace(body)
	return message{text: text, folded: textutils.Fold(text), millis: millis}
}

// isRelevant reports whether the message is an M-PESA notification at all.
func isRelevant(m message) bool {
	return m.text != "" && strings.Contains(m.folded, Marker)
}

func classifyDirection(m message) models.Direction {
	for _, rule := range directionRules {
		if textutils.ContainsAny(m.folded, rule.phrases...) {
			return rule.direction
		}
	}
	return defaultDirection
}

func extractAmount(m message) decimal.Decimal {
	return currencyutils.ExtractAmount(m.text)
}

// acceptAmount is the rejection gate: only strictly positive amounts produce a record.
func acceptAmount(amount decimal.Decimal) bool {
	return amount.IsPositive()
}

func extractReference(m message) (string, bool) {
	return textutils.ExtractReference(m.text)
}

func extractCounterparty(m message) (string, bool) {
	return textutils.ExtractCounterparty(m.text)
}

func normalizeTimestamp(m message, loc *time.Location) string {
	return dateutils.FormatEpochMillis(m.millis, loc)
}
