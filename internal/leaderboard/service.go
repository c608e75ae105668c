package leaderboard

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Supported leaderboard windows.
const (
	WindowDaily   = "daily"
	WindowWeekly  = "weekly"
	WindowMonthly = "monthly"
	WindowAllTime = "all_time"
)

var defaultWindows = []string{WindowDaily, WindowWeekly, WindowMonthly, WindowAllTime}

// Entry is one player's duel record within a window.
type Entry struct {
	PlayerID    string
	DisplayName string
	Wins        int
	Games       int
	TotalScore  int
}

// ServiceOptions configures leaderboard service behavior.
type ServiceOptions struct {
	TopN           int
	Windows        []string
	EntryTTL       time.Duration
	RedisKeyPrefix string
}

// Service ranks players by duel wins in Redis sorted sets, one set per
// window period.
type Service struct {
	redis    redis.Cmdable
	logger   zerolog.Logger
	topN     int
	windows  []string
	entryTTL time.Duration
	prefix   string
	now      func() time.Time
}

// NewService constructs a leaderboard service instance.
func NewService(redis redis.Cmdable, logger zerolog.Logger, opts ServiceOptions) *Service {
	topN := opts.TopN
	if topN <= 0 {
		topN = 50
	}
	windows := opts.Windows
	if len(windows) == 0 {
		windows = defaultWindows
	}
	prefix := opts.RedisKeyPrefix
	if prefix == "" {
		prefix = "lb:duel"
	}

	return &Service{
		redis:    redis,
		logger:   logger.With().Str("component", "leaderboard").Logger(),
		topN:     topN,
		windows:  windows,
		entryTTL: opts.EntryTTL,
		prefix:   prefix,
		now:      time.Now,
	}
}

// RecordDuel adds one finished duel to every window. Losers are added with
// no wins so they still appear with their game count.
func (s *Service) RecordDuel(ctx context.Context, playerID, displayName string, won bool, score int) error {
	if playerID == "" {
		return fmt.Errorf("record duel: empty player id")
	}
	now := s.now().UTC()

	pipe := s.redis.TxPipeline()
	for _, window := range s.windows {
		zKey := s.leaderboardKey(window, now)
		metaKey := s.metaKey(window, now, playerID)

		pipe.ZIncrBy(ctx, zKey, float64(boolToInt(won)), playerID)
		pipe.HIncrBy(ctx, metaKey, "wins", int64(boolToInt(won)))
		pipe.HIncrBy(ctx, metaKey, "games", 1)
		pipe.HIncrBy(ctx, metaKey, "score", int64(score))
		pipe.HSet(ctx, metaKey, "display_name", displayName)
		if s.entryTTL > 0 && window != WindowAllTime {
			pipe.Expire(ctx, zKey, s.entryTTL)
			pipe.Expire(ctx, metaKey, s.entryTTL)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update duel leaderboard: %w", err)
	}
	s.logger.Debug().Str("player_id", playerID).Bool("won", won).Msg("duel leaderboard updated")
	return nil
}

// Top retrieves the top entries of the current period of window.
func (s *Service) Top(ctx context.Context, window string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}
	now := s.now().UTC()

	results, err := s.redis.ZRevRangeWithScores(ctx, s.leaderboardKey(window, now), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		data, err := s.redis.HGetAll(ctx, s.metaKey(window, now, member)).Result()
		if err != nil {
			s.logger.Warn().Err(err).Str("player_id", member).Msg("failed to read leaderboard metadata")
			continue
		}
		entries = append(entries, entryFromMeta(member, int(z.Score), data))
	}
	return entries, nil
}

func entryFromMeta(playerID string, wins int, data map[string]string) Entry {
	entry := Entry{PlayerID: playerID, Wins: wins}
	if len(data) == 0 {
		return entry
	}
	entry.DisplayName = data["display_name"]
	entry.Games = parseInt(data["games"])
	entry.TotalScore = parseInt(data["score"])
	return entry
}

// period names the bucket of window that contains t.
func period(window string, t time.Time) string {
	switch window {
	case WindowDaily:
		return t.Format("2006-01-02")
	case WindowWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case WindowMonthly:
		return t.Format("2006-01")
	default:
		return "all"
	}
}

func (s *Service) leaderboardKey(window string, t time.Time) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, window, period(window, t))
}

func (s *Service) metaKey(window string, t time.Time, playerID string) string {
	return fmt.Sprintf("%s:%s:%s:meta:%s", s.prefix, window, period(window, t), playerID)
}
