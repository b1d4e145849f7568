package intent

import (
	"regexp"
	"strings"
)

// Kind identifies what the user is asking the bot to do.
type Kind string

const (
	LinkCode    Kind = "link_code"
	ListAgenda  Kind = "list_agenda"
	CreateEvent Kind = "create_event"
	Help        Kind = "help"
	Unknown     Kind = "unknown"
)

// Period narrows an agenda listing request.
type Period string

const (
	PeriodToday    Period = "today"
	PeriodTomorrow Period = "tomorrow"
	PeriodUpcoming Period = "upcoming"
)

// Intent is the classified purpose of an inbound message. Only the field
// matching Kind carries data: Code for LinkCode, Period for ListAgenda,
// RawText for CreateEvent.
type Intent struct {
	Kind    Kind
	Code    string
	Period  Period
	RawText string
}

var linkCodePattern = regexp.MustCompile(`^\d{6}$`)

var greetingKeywords = []string{"oi", "olá", "ajuda", "menu", "comandos", "help", "inicio"}

// agendaKeyword is word-bounded so the listing rule does not swallow the
// "agendar" command prefix, which shares the stem.
var agendaKeyword = regexp.MustCompile(`\bagenda\b`)

// commandPrefixes open an event-creation message unambiguously: a text
// starting with them can only be a command, so they outrank the hoje/amanhã
// substring checks. "marcar" is not in this set because "marcar hoje" is an
// ambiguous day query and resolves to today's listing instead.
var commandPrefixes = []string{"agendar", "novo evento"}

// Classify maps raw message text to exactly one Intent. It is total: any
// input, including the empty string, resolves to a value, with Unknown as
// the fallback.
//
// Rules are checked in a fixed priority order because categories overlap in
// the input space: a 6-digit code beats everything, exact-match greetings
// beat substring checks, the word "agenda" (and "compromissos") beats the
// day keywords, and the agendar/"novo evento" command prefixes beat the day
// keywords in turn. "marcar hoje" still lists today's agenda instead of
// creating an event; changing that would alter user-visible behavior, so it
// stays until product says otherwise.
func Classify(text string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(text))

	if linkCodePattern.MatchString(normalized) {
		return Intent{Kind: LinkCode, Code: normalized}
	}

	for _, keyword := range greetingKeywords {
		if normalized == keyword {
			return Intent{Kind: Help}
		}
	}

	if agendaKeyword.MatchString(normalized) || strings.Contains(normalized, "compromissos") {
		return Intent{Kind: ListAgenda, Period: PeriodUpcoming}
	}

	for _, prefix := range commandPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			// Keep the original text untouched so a later parser still
			// sees case and accents.
			return Intent{Kind: CreateEvent, RawText: text}
		}
	}

	switch {
	case strings.Contains(normalized, "hoje"):
		return Intent{Kind: ListAgenda, Period: PeriodToday}
	case strings.Contains(normalized, "amanhã") || strings.Contains(normalized, "amanha"):
		return Intent{Kind: ListAgenda, Period: PeriodTomorrow}
	}

	if strings.HasPrefix(normalized, "marcar") {
		return Intent{Kind: CreateEvent, RawText: text}
	}

	return Intent{Kind: Unknown}
}
