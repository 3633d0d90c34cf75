package services

import (
	"context"
	"github.com/maxaizer/jobmatch/internal/entities"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

type unscoredApplications interface {
	ListUnscored(ctx context.Context, limit int) ([]entities.Application, error)
}

type jobsByIDs interface {
	GetByIDs(ctx context.Context, ids []string) ([]entities.Job, error)
}

// Backfill re-submits applications whose background scoring never succeeded. It only
// runs when an operator asks for it.
type Backfill struct {
	applications unscoredApplications
	jobs         jobsByIDs
	queue        taskSubmitter
}

func NewBackfill(applications unscoredApplications, jobs jobsByIDs, queue taskSubmitter) *Backfill {
	return &Backfill{applications: applications, jobs: jobs, queue: queue}
}

// RescoreUnscored queues up to limit unscored applications, oldest first, and returns
// how many were accepted by the queue. Tasks carry no user token, so the scoring
// client authenticates with its service token.
func (b *Backfill) RescoreUnscored(ctx context.Context, limit int) (int, error) {

	applications, err := b.applications.ListUnscored(ctx, limit)
	if err != nil {
		return 0, errors.Wrap(err, "list unscored applications")
	}
	if len(applications) == 0 {
		return 0, nil
	}

	jobIDs := lo.Uniq(lo.Map(applications, func(a entities.Application, _ int) string { return a.JobID }))
	jobs, err := b.jobs.GetByIDs(ctx, jobIDs)
	if err != nil {
		return 0, errors.Wrap(err, "get jobs")
	}
	jobsByID := lo.KeyBy(jobs, func(job entities.Job) string { return job.ID })

	submitted := 0
	for _, application := range applications {
		job, ok := jobsByID[application.JobID]
		if !ok {
			log.Warnf("job %v of application %v no longer exists, skipping", application.JobID, application.ID)
			continue
		}
		if b.queue.Submit(ScoringTask{ApplicationID: application.ID, CandidateID: application.CandidateID, Job: job}) {
			submitted++
		}
	}

	log.Infof("queued %v of %v unscored applications", submitted, len(applications))
	return submitted, nil
}
