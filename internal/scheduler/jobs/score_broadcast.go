package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/smart-portfolio/internal/contracts"
	"github.com/wonny/smart-portfolio/pkg/logger"
)

// EventSellCandidates is the websocket event type carrying sell candidates
const EventSellCandidates = "sell_candidates"

// SellRanker produces the ranked, allocated sell list
type SellRanker interface {
	SellCandidates(ctx context.Context) ([]contracts.ScoredStock, error)
}

// Broadcaster pushes events to live subscribers
type Broadcaster interface {
	Broadcast(eventType string, data interface{})
	Len() int
}

// ScoreBroadcastJob recomputes sell candidates and pushes them to subscribers
type ScoreBroadcastJob struct {
	ranker   SellRanker
	hub      Broadcaster
	schedule string
	logger   *logger.Logger
}

// NewScoreBroadcastJob creates a new score broadcast job
func NewScoreBroadcastJob(ranker SellRanker, hub Broadcaster, schedule string, log *logger.Logger) *ScoreBroadcastJob {
	return &ScoreBroadcastJob{
		ranker:   ranker,
		hub:      hub,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScoreBroadcastJob) Name() string {
	return "score_broadcast"
}

// Schedule returns the cron schedule
func (j *ScoreBroadcastJob) Schedule() string {
	return j.schedule
}

// Run skips scoring entirely when nobody is listening
func (j *ScoreBroadcastJob) Run(ctx context.Context) error {
	if j.hub.Len() == 0 {
		return nil
	}

	candidates, err := j.ranker.SellCandidates(ctx)
	if err != nil {
		return fmt.Errorf("score sell candidates: %w", err)
	}

	j.hub.Broadcast(EventSellCandidates, candidates)
	j.logger.WithField("candidates", len(candidates)).Debug("Sell candidates broadcast")
	return nil
}
