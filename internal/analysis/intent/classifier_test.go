package intent

import "testing"

func TestClassifySixDigitCode(t *testing.T) {
	got := Classify("  483920 ")
	if got.Kind != LinkCode {
		t.Fatalf("expected link code intent, got %s", got.Kind)
	}
	if got.Code != "483920" {
		t.Fatalf("unexpected code payload: %q", got.Code)
	}
}

func TestClassifyRejectsNonSixDigitNumbers(t *testing.T) {
	for _, text := range []string{"12345", "1234567", "12a456", "123 456"} {
		if got := Classify(text); got.Kind == LinkCode {
			t.Fatalf("%q should not classify as link code", text)
		}
	}
}

func TestClassifyGreetingsCaseAndWhitespaceInsensitive(t *testing.T) {
	for _, text := range []string{"oi", "  Olá  ", "AJUDA", "Menu", "comandos", "help", "Inicio"} {
		if got := Classify(text); got.Kind != Help {
			t.Fatalf("%q: expected help intent, got %s", text, got.Kind)
		}
	}
}

func TestClassifyAgendaKeywordWinsOverDayKeyword(t *testing.T) {
	got := Classify("agenda de hoje")
	if got.Kind != ListAgenda || got.Period != PeriodUpcoming {
		t.Fatalf("expected upcoming agenda listing, got %s/%s", got.Kind, got.Period)
	}
}

func TestClassifyCompromissosKeyword(t *testing.T) {
	got := Classify("quais são meus compromissos?")
	if got.Kind != ListAgenda || got.Period != PeriodUpcoming {
		t.Fatalf("expected upcoming agenda listing, got %s/%s", got.Kind, got.Period)
	}
}

// The listing keyword "agenda" shares its stem with the "agendar" command,
// so the word must stand alone to trigger a listing.
func TestClassifyAgendarPrefixIsNotAgendaKeyword(t *testing.T) {
	for _, text := range []string{"agendar almoço", "agendar para hoje", "agendar reunião amanhã"} {
		got := Classify(text)
		if got.Kind != CreateEvent {
			t.Fatalf("%q: expected create event intent, got %s/%s", text, got.Kind, got.Period)
		}
		if got.RawText != text {
			t.Fatalf("%q: payload must keep the original text, got %q", text, got.RawText)
		}
	}
}

func TestClassifyMarcarPrefixWithoutDayKeyword(t *testing.T) {
	got := Classify("marcar dentista às 15h")
	if got.Kind != CreateEvent {
		t.Fatalf("expected create event intent, got %s", got.Kind)
	}
}

func TestClassifyToday(t *testing.T) {
	got := Classify("hoje")
	if got.Kind != ListAgenda || got.Period != PeriodToday {
		t.Fatalf("expected today listing, got %s/%s", got.Kind, got.Period)
	}
}

func TestClassifyTomorrowWithoutAccent(t *testing.T) {
	got := Classify("amanha")
	if got.Kind != ListAgenda || got.Period != PeriodTomorrow {
		t.Fatalf("expected tomorrow listing, got %s/%s", got.Kind, got.Period)
	}
}

func TestClassifyTomorrowWithAccent(t *testing.T) {
	got := Classify("o que tenho Amanhã?")
	if got.Kind != ListAgenda || got.Period != PeriodTomorrow {
		t.Fatalf("expected tomorrow listing, got %s/%s", got.Kind, got.Period)
	}
}

func TestClassifyCreateEventKeepsOriginalText(t *testing.T) {
	raw := "Agendar dentista amanhã 15h"
	got := Classify(raw)
	if got.Kind != CreateEvent {
		t.Fatalf("expected create event intent, got %s", got.Kind)
	}
	if got.RawText != raw {
		t.Fatalf("payload must keep the original text, got %q", got.RawText)
	}
}

// "marcar hoje" hits the day-keyword rule before the event prefix rule.
// Intentional: the agenda rules have priority over event creation.
func TestClassifyMarcarHojeListsAgenda(t *testing.T) {
	got := Classify("marcar hoje")
	if got.Kind != ListAgenda || got.Period != PeriodToday {
		t.Fatalf("expected today listing, got %s/%s", got.Kind, got.Period)
	}
}

func TestClassifyUnknown(t *testing.T) {
	for _, text := range []string{"xyz123", "", "   ", "bom dia tudo bem"} {
		if got := Classify(text); got.Kind != Unknown {
			t.Fatalf("%q: expected unknown intent, got %s", text, got.Kind)
		}
	}
}
