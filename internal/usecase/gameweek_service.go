package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/fpl-insight/internal/domain/gameweek"
	"github.com/riskibarqy/fpl-insight/internal/platform/logging"
)

type CurrentGameweek struct {
	Gameweek int
	Name     string
	Deadline time.Time
	Status   gameweek.Status
	Source   gameweek.Source
	Detected bool
}

type GameweekService struct {
	repo   gameweek.Repository
	logger *logging.Logger
	now    func() time.Time
}

func NewGameweekService(repo gameweek.Repository, logger *logging.Logger) *GameweekService {
	if logger == nil {
		logger = logging.Default()
	}
	return &GameweekService{repo: repo, logger: logger, now: time.Now}
}

// Current never fails: when the event list cannot be read it reports the default gameweek.
func (s *GameweekService) Current(ctx context.Context) CurrentGameweek {
	ctx, span := startUsecaseSpan(ctx, "usecase.GameweekService.Current")
	defer span.End()

	var events []gameweek.Event
	if s.repo != nil {
		items, err := s.repo.ListEvents(ctx)
		if err != nil {
			recordSpanError(span, err)
			s.logger.WarnContext(ctx, "list gameweek events failed, using default gameweek", "error", err)
		} else {
			events = items
		}
	}

	resolved := gameweek.ResolveCurrent(events)
	name := resolved.Event.Name
	if name == "" {
		name = fmt.Sprintf("Gameweek %d", resolved.Gameweek)
	}
	return CurrentGameweek{
		Gameweek: resolved.Gameweek,
		Name:     name,
		Deadline: resolved.Event.Deadline,
		Status:   resolved.Event.Status(s.now()),
		Source:   resolved.Source,
		Detected: resolved.Detected(),
	}
}
