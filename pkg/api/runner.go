package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/hwinsight/hic/pkg/assess"
	"github.com/hwinsight/hic/pkg/infra/logger"
	"github.com/hwinsight/hic/pkg/report"
	"github.com/hwinsight/hic/pkg/store"
)

// JobRunner executes queued assessment jobs one at a time on a single
// worker goroutine. Each job gets a fresh assess.Session so privilege
// state and the execution log never leak between runs.
//
// Jobs currently execute against the local machine; SSH execution of
// the engine on remote hosts is not wired yet, matching the console's
// staged rollout.
type JobRunner struct {
	store      *store.SQLiteStore
	logger     *slog.Logger
	timeoutCap time.Duration

	queue chan string
	stop  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

func NewJobRunner(st *store.SQLiteStore, log *slog.Logger, timeoutCap time.Duration) *JobRunner {
	if log == nil {
		log = slog.Default()
	}
	r := &JobRunner{
		store:      st,
		logger:     log,
		timeoutCap: timeoutCap,
		queue:      make(chan string, 64),
		stop:       make(chan struct{}),
	}
	r.wg.Add(1)
	go r.loop()
	return r
}

// Enqueue schedules a job by ID. A full queue fails the job
// immediately rather than blocking an API handler.
func (r *JobRunner) Enqueue(jobID string) {
	select {
	case r.queue <- jobID:
	default:
		r.logger.Warn("job queue full, failing job", "job_id", jobID)
		_ = r.store.MarkJobFinished(context.Background(), jobID, store.JobFailed, "job queue full")
	}
}

// Stop waits for the in-flight job to finish and shuts the worker
// down.
func (r *JobRunner) Stop() {
	r.once.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *JobRunner) loop() {
	defer r.wg.Done()
	for {
		select {
		case <-r.stop:
			return
		case jobID := <-r.queue:
			r.runJob(jobID)
		}
	}
}

func (r *JobRunner) runJob(jobID string) {
	ctx := logger.SetJobID(context.Background(), jobID)
	log := logger.WithContext(ctx)

	job, err := r.store.GetJob(ctx, jobID)
	if err != nil {
		log.Error("job vanished before execution", "error", err)
		return
	}
	host, err := r.store.GetHost(ctx, job.HostID)
	if err != nil {
		_ = r.store.MarkJobFinished(ctx, jobID, store.JobFailed, "host not found")
		return
	}

	if err := r.store.MarkJobRunning(ctx, jobID); err != nil {
		log.Error("mark job running", "error", err)
		return
	}

	session := assess.NewSession(log)
	session.SetTimeoutCap(r.timeoutCap)
	mode := assess.SudoAuto
	if !host.AllowPrivileged {
		mode = assess.SudoSkip
	}
	// Never prompt inside the server; auto mode cannot fail.
	if _, err := session.ConfigurePrivileges(mode, false); err != nil {
		_ = r.store.MarkJobFinished(ctx, jobID, store.JobFailed, err.Error())
		return
	}

	assessment, err := session.Assess(ctx)
	if err != nil {
		_ = r.store.MarkJobFinished(ctx, jobID, store.JobFailed, err.Error())
		return
	}

	payload, err := json.Marshal(assessment)
	if err != nil {
		_ = r.store.MarkJobFinished(ctx, jobID, store.JobFailed, "serialize assessment: "+err.Error())
		return
	}

	rep := &store.Report{
		JobID:            jobID,
		RenderedMarkdown: report.Markdown(assessment),
		RawPayload:       string(payload),
	}
	if err := r.store.CreateReport(ctx, rep); err != nil {
		_ = r.store.MarkJobFinished(ctx, jobID, store.JobFailed, "store report: "+err.Error())
		return
	}

	_ = r.store.TouchHost(ctx, host.ID, assessment.GeneratedAt)
	_ = r.store.MarkJobFinished(ctx, jobID, store.JobCompleted, "")
	log.Info("assessment job completed", "host", host.Hostname,
		"commands", len(session.CommandLog()))
}
