package domain

import "context"

// ScheduleSource is the remote side the aggregator pulls from.
type ScheduleSource interface {
	GetAllSchedules(ctx context.Context, token string) ([]Schedule, error)
	GetGames(ctx context.Context, token string, names []string) ([]GameInfo, error)
}
