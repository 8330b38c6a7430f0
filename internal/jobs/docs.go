// Package jobs provides scheduled background tasks for the freight engine.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
// Jobs never take part in request handling.
//
// # Available Jobs
//
// 1. ProductSyncJob - Refreshes container names, sizes and capacities from the carriers' product feeds
// 2. IdempotencyPurgeJob - Deletes stored label responses older than the retention period
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(syncHandler, purgeHandler, jobs.DefaultConfig(), logger)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules use the six-field syntax with seconds. By default product sync
// runs daily at 03:00 and the purge runs hourly at minute 15. An empty
// schedule disables a job. A tick is skipped while the previous run of the
// same job is still going.
//
// # Error Handling
//
// - Product sync logs per-carrier failures and keeps the rest of the report
// - A purge retention shorter than one hour fails StartAll
// - Failed job starts will stop any already running jobs
package jobs
