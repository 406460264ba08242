// Package events is the audit-event spine of the system: every mutation
// becomes observable by passing through the Bus.
package events

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibrs/tournament-engine/models"
)

// Recorder persists one audit record per emitted event.
type Recorder interface {
	Append(ctx context.Context, event *models.TournamentEvent) error
}

// Listener receives every event after it has been recorded. Listener
// errors are logged and swallowed; they never abort emission.
type Listener func(ctx context.Context, event models.TournamentEvent) error

// Subscription is a listener handle. Close detaches the listener.
type Subscription struct {
	bus *Bus
	id  int
}

func (s *Subscription) Close() {
	s.bus.mu.Lock()
	defer s.bus.mu.Unlock()
	delete(s.bus.listeners, s.id)
}

// Bus is owned by whoever constructs it; there is no package-level
// singleton on purpose.
type Bus struct {
	recorder Recorder
	logger   *slog.Logger

	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func NewBus(recorder Recorder, logger *slog.Logger) *Bus {
	return &Bus{
		recorder:  recorder,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

func (b *Bus) Subscribe(listener Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	b.listeners[b.nextID] = listener
	return &Subscription{bus: b, id: b.nextID}
}

// Emit classifies the event, appends one audit record, then notifies
// every listener in sequence. Only the append can fail the caller.
func (b *Bus) Emit(ctx context.Context, eventType models.EventType, tournamentID string, payload map[string]any, userID *string) error {
	if payload == nil {
		payload = map[string]any{}
	}

	event := models.TournamentEvent{
		ID:           uuid.NewString(),
		TournamentID: tournamentID,
		Type:         eventType,
		UserID:       userID,
		Payload:      payload,
		Category:     Categorize(eventType),
		Impact:       ImpactOf(eventType),
		RoundNumber:  roundFromPayload(payload),
		CreatedAt:    time.Now().UTC(),
	}

	if err := b.recorder.Append(ctx, &event); err != nil {
		return err
	}

	b.mu.RLock()
	listeners := make([]Listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		listeners = append(listeners, l)
	}
	b.mu.RUnlock()

	for _, listener := range listeners {
		b.notify(ctx, listener, event)
	}

	return nil
}

func (b *Bus) notify(ctx context.Context, listener Listener, event models.TournamentEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				slog.String("type", string(event.Type)),
				slog.Any("panic", r))
		}
	}()
	if err := listener(ctx, event); err != nil {
		b.logger.Error("event listener failed",
			slog.String("type", string(event.Type)),
			slog.String("tournament_id", event.TournamentID),
			slog.Any("error", err))
	}
}

func roundFromPayload(payload map[string]any) *int {
	for _, key := range []string{"round_number", "round"} {
		switch v := payload[key].(type) {
		case int:
			return &v
		case float64:
			round := int(v)
			return &round
		}
	}
	return nil
}

var impactMap = map[models.EventType]models.ImpactLevel{
	models.EventTournamentStateChanged: models.ImpactCritical,
	models.EventTournamentCreated:      models.ImpactHigh,
	models.EventTournamentDeleted:      models.ImpactCritical,

	models.EventBracketGenerated:    models.ImpactHigh,
	models.EventBracketReset:        models.ImpactCritical,
	models.EventRoundAdvanced:       models.ImpactHigh,
	models.EventTournamentCompleted: models.ImpactCritical,

	models.EventSwissDraftCreated:     models.ImpactMedium,
	models.EventSwissPairingsApproved: models.ImpactHigh,
	models.EventSwissPairingModified:  models.ImpactHigh,
	models.EventSwissRoundAdvanced:    models.ImpactHigh,
	models.EventSwissDraftRegenerated: models.ImpactMedium,

	models.EventMatchScoreSet:      models.ImpactMedium,
	models.EventMatchStatusChanged: models.ImpactMedium,
	models.EventMatchDisputed:      models.ImpactHigh,

	models.EventSeedingGenerated: models.ImpactMedium,
	models.EventSeedsSwapped:     models.ImpactLow,
	models.EventSeedSet:          models.ImpactLow,

	models.EventAdminOverride:      models.ImpactCritical,
	models.EventManualIntervention: models.ImpactCritical,
}

// ImpactOf returns the static impact classification for an event type,
// defaulting to medium for unknown types.
func ImpactOf(eventType models.EventType) models.ImpactLevel {
	if impact, ok := impactMap[eventType]; ok {
		return impact
	}
	return models.ImpactMedium
}

// Categorize buckets an event type by its name prefix.
func Categorize(eventType models.EventType) string {
	name := string(eventType)
	switch {
	case strings.HasPrefix(name, "TOURNAMENT_"),
		eventType == models.EventBracketGenerated,
		eventType == models.EventBracketReset:
		return "lifecycle"
	case strings.HasPrefix(name, "SWISS_"):
		return "swiss"
	case strings.HasPrefix(name, "MATCH_"):
		return "match"
	case strings.HasPrefix(name, "ROUND_"):
		return "bracket"
	case strings.HasPrefix(name, "SEED"):
		return "seeding"
	default:
		return "system"
	}
}
