package jobs

import (
	"context"

	"github.com/wonny/smart-portfolio/pkg/logger"
)

// ExpiredCleaner drops expired cache entries
type ExpiredCleaner interface {
	CleanExpired() int
}

// CacheCleanupJob evicts expired market snapshots
type CacheCleanupJob struct {
	cache  ExpiredCleaner
	logger *logger.Logger
}

// NewCacheCleanupJob creates a new cache cleanup job
func NewCacheCleanupJob(cache ExpiredCleaner, log *logger.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		cache:  cache,
		logger: log,
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Schedule returns the cron schedule (every 10 minutes)
func (j *CacheCleanupJob) Schedule() string {
	return "0 */10 * * * *"
}

// Run executes the cache cleanup
func (j *CacheCleanupJob) Run(ctx context.Context) error {
	if count := j.cache.CleanExpired(); count > 0 {
		j.logger.WithField("removed", count).Debug("Cache cleanup completed")
	}
	return nil
}
