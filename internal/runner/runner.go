package runner

import "context"

type Client interface {
	// Run executes one publish pass over all due posts
	Run(ctx context.Context) error

	// ScheduleRuns starts the fixed-interval trigger for Run
	ScheduleRuns(ctx context.Context) error
}
