package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/id"
	"github.com/anditianred/ao3-api/internal/search"
	"github.com/anditianred/ao3-api/internal/sse"
)

const jobIDPrefix = "search"

// Job statuses.
const (
	jobRunning  = "running"
	jobDone     = "done"
	jobFailed   = "failed"
	jobCanceled = "canceled"
)

func (s *Server) registerJobRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "submitSearchJob",
		Method:        http.MethodPost,
		Path:          "/api/v1/search/jobs",
		Summary:       "Start a background search",
		Description:   "Queues a search on the worker pool and returns its job id immediately",
		Tags:          []string{"Search"},
		DefaultStatus: http.StatusAccepted,
	}, s.handleSubmitJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "getSearchJob",
		Method:      http.MethodGet,
		Path:        "/api/v1/search/jobs/{id}",
		Summary:     "Get a background search",
		Description: "Returns the job status and, once finished, its result or error",
		Tags:        []string{"Search"},
	}, s.handleGetJob)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelSearchJob",
		Method:      http.MethodDelete,
		Path:        "/api/v1/search/jobs/{id}",
		Summary:     "Cancel a background search",
		Description: "Stops a running job; its result is discarded. Canceling a finished job has no effect.",
		Tags:        []string{"Search"},
	}, s.handleCancelJob)
}

// === DTOs ===

// SubmitJobInput contains the query of a background search.
type SubmitJobInput struct {
	SearchParams
}

// JobPathInput identifies a job.
type JobPathInput struct {
	ID string `path:"id" doc:"Job id"`
}

// JobResponse describes a background search.
type JobResponse struct {
	ID          string         `json:"id" doc:"Job id"`
	Status      string         `json:"status" doc:"running, done, failed or canceled"`
	SubmittedAt time.Time      `json:"submitted_at" doc:"When the job was queued"`
	Result      *search.Result `json:"result,omitempty" doc:"Results page, once done"`
	Error       *APIError      `json:"error,omitempty" doc:"Failure, once failed"`
}

// JobOutput wraps the job response for Huma.
type JobOutput struct {
	Body JobResponse
}

// === Handlers ===

func (s *Server) handleSubmitJob(ctx context.Context, input *SubmitJobInput) (*JobOutput, error) {
	q, err := input.toQuery()
	if err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	requestID := RequestIDFrom(ctx)
	var job *search.Job
	ready := make(chan struct{})
	job, err = s.services.Runner.Submit(ctx, q, func(res *search.Result, err error) {
		<-ready
		if err != nil {
			s.logger.Info("search job failed", "job", job.ID, "error", err, "request_id", requestID)
			s.emit(sse.EventJobFailed, job.ID, toAPIError(err))
			return
		}
		s.emit(sse.EventJobFinished, job.ID, jobSummary{
			Key:        string(res.Key),
			Page:       res.Page,
			TotalCount: res.TotalCount,
			Items:      len(res.Items),
			Cached:     res.Cached,
		})
	})
	if err != nil {
		close(ready)
		return nil, err
	}
	s.emit(sse.EventJobSubmitted, job.ID, nil)
	close(ready)

	s.logger.Debug("search job queued", "job", job.ID, "request_id", requestID)
	return &JobOutput{Body: jobResponse(job)}, nil
}

func (s *Server) handleGetJob(_ context.Context, input *JobPathInput) (*JobOutput, error) {
	job, err := s.lookupJob(input.ID)
	if err != nil {
		return nil, err
	}
	return &JobOutput{Body: jobResponse(job)}, nil
}

func (s *Server) handleCancelJob(_ context.Context, input *JobPathInput) (*JobOutput, error) {
	job, err := s.lookupJob(input.ID)
	if err != nil {
		return nil, err
	}
	wasRunning := !isDone(job)
	job.Cancel()
	resp := jobResponse(job)
	if wasRunning && resp.Status == jobCanceled {
		s.emit(sse.EventJobCanceled, job.ID, nil)
	}
	return &JobOutput{Body: resp}, nil
}

// jobSummary is the payload of a job.finished event; the full page is
// fetched from the job endpoint.
type jobSummary struct {
	Key        string `json:"key"`
	Page       int    `json:"page"`
	TotalCount int    `json:"total_count"`
	Items      int    `json:"items"`
	Cached     bool   `json:"cached"`
}

func (s *Server) emit(t sse.EventType, jobID string, data any) {
	if s.services.Events == nil {
		return
	}
	s.services.Events.Emit(sse.NewJobEvent(t, jobID, data))
}

func isDone(job *search.Job) bool {
	select {
	case <-job.Done():
		return true
	default:
		return false
	}
}

func (s *Server) lookupJob(jobID string) (*search.Job, error) {
	if !id.Valid(jobID, jobIDPrefix) {
		return nil, domainerrors.Validationf("malformed job id %q", jobID)
	}
	return s.services.Runner.Job(jobID)
}

func jobResponse(job *search.Job) JobResponse {
	resp := JobResponse{
		ID:          job.ID,
		SubmittedAt: job.Submitted,
	}

	res, err := job.Result()
	switch {
	case errors.Is(err, search.ErrJobPending):
		resp.Status = jobRunning
	case job.Canceled():
		resp.Status = jobCanceled
	case err != nil:
		resp.Status = jobFailed
		resp.Error = toAPIError(err)
	default:
		resp.Status = jobDone
		resp.Result = res
	}
	return resp
}
