package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidaflow/backend/internal/analysis/intent"
	"github.com/vidaflow/backend/internal/model/agenda"
	"github.com/vidaflow/backend/internal/store"
)

const helpText = "Oi! Eu sou o assistente do Vidaflow. Comandos:\n" +
	"• envie o código de 6 dígitos do app para vincular sua conta\n" +
	"• \"agenda\" para ver seus próximos compromissos\n" +
	"• \"hoje\" ou \"amanhã\" para a agenda do dia\n" +
	"• \"agendar <descrição>\" para criar um compromisso"

// Service turns inbound chat messages into replies. Classification is pure;
// this layer owns the side effects (code linking, agenda queries, event
// drafts).
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates the bot fulfillment service.
func NewService(st store.Store) *Service {
	return &Service{store: st, now: time.Now}
}

// HandleMessage classifies text from the given phone number and executes
// the matching action. It always produces a reply; store failures surface
// as errors so the webhook can report them.
func (s *Service) HandleMessage(ctx context.Context, from, text string) (string, error) {
	classified := intent.Classify(text)
	log.Printf("[bot] message from=%s intent=%s", from, classified.Kind)

	switch classified.Kind {
	case intent.LinkCode:
		return s.linkAccount(ctx, classified.Code, from)
	case intent.ListAgenda:
		return s.listAgenda(ctx, from, classified.Period)
	case intent.CreateEvent:
		return s.createDraft(ctx, from, classified.RawText)
	case intent.Help:
		return helpText, nil
	default:
		return "Não entendi 🤔 Envie \"ajuda\" para ver o que eu sei fazer.", nil
	}
}

func (s *Service) linkAccount(ctx context.Context, code, phone string) (string, error) {
	user, err := s.store.ConsumeLinkCode(ctx, code, phone)
	if errors.Is(err, store.ErrCodeInvalid) {
		return "Código inválido ou expirado. Gere um novo código no app e tente de novo.", nil
	}
	if err != nil {
		return "", fmt.Errorf("consume link code: %w", err)
	}
	return fmt.Sprintf("✅ Pronto, %s! Seu WhatsApp está vinculado à sua conta.", user.Name), nil
}

func (s *Service) listAgenda(ctx context.Context, phone string, period intent.Period) (string, error) {
	user, err := s.store.UserByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return "Este número ainda não está vinculado. Envie o código de 6 dígitos do app.", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve phone: %w", err)
	}

	from, to, label := periodRange(period, s.now())
	events, err := s.store.EventsBetween(ctx, user.ID, from, to)
	if err != nil {
		return "", fmt.Errorf("list events: %w", err)
	}

	if len(events) == 0 {
		return fmt.Sprintf("Você não tem compromissos %s. 🎉", label), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Seus compromissos %s:\n", label)
	for _, event := range events {
		fmt.Fprintf(&b, "• %s — %s\n", event.StartsAt.Local().Format("02/01 15:04"), event.Title)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func (s *Service) createDraft(ctx context.Context, phone, rawText string) (string, error) {
	user, err := s.store.UserByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return "Este número ainda não está vinculado. Envie o código de 6 dígitos do app.", nil
	}
	if err != nil {
		return "", fmt.Errorf("resolve phone: %w", err)
	}

	event := agenda.Event{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Title:    strings.TrimSpace(rawText),
		StartsAt: s.now().UTC(),
		RawText:  rawText,
		Status:   agenda.StatusDraft,
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	return "📝 Anotei! Vou guardar como rascunho e você confirma os detalhes no app.", nil
}

// periodRange converts a listing period into a concrete time range plus a
// human label for the reply.
func periodRange(period intent.Period, now time.Time) (time.Time, time.Time, string) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch period {
	case intent.PeriodToday:
		return startOfDay, startOfDay.AddDate(0, 0, 1), "hoje"
	case intent.PeriodTomorrow:
		tomorrow := startOfDay.AddDate(0, 0, 1)
		return tomorrow, tomorrow.AddDate(0, 0, 1), "amanhã"
	default:
		return now, startOfDay.AddDate(0, 0, 8), "nos próximos dias"
	}
}
