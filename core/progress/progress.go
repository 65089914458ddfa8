// Package progress derives job, sub-job and project statuses from step
// completion state. Stored job statuses are caches; this package is the
// single place that computes them.
package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"fabtrack/core/models"
)

// ErrSequentialOrder is returned when a step is marked complete before all
// preceding steps in its checklist are complete.
var ErrSequentialOrder = errors.New("previous steps must be completed in order")

// ClassifySubJob derives a sub-job's status from its steps: completed when
// the list is non-empty and fully checked, pending when nothing is checked,
// in-progress otherwise.
func ClassifySubJob(sj models.SubJob) models.JobStatus {
	completed, total := countSteps(sj.Steps)
	switch {
	case total > 0 && completed == total:
		return models.JobStatusCompleted
	case completed == 0:
		return models.JobStatusPending
	default:
		return models.JobStatusInProgress
	}
}

// Recompute derives a job's status from its step tree. Jobs in the sub-job
// shape are classified per sub-job; legacy flat jobs directly from their
// step counts. Call sites must persist the result rather than computing
// status ad hoc.
func Recompute(job *models.Job) models.JobStatus {
	if job.HasSubJobs() {
		return statusFromSubJobs(job.SubJobs)
	}
	return statusFromSteps(job.Steps)
}

func statusFromSubJobs(subJobs []models.SubJob) models.JobStatus {
	allCompleted := true
	anyCompleted := false
	for _, sj := range subJobs {
		completed, total := countSteps(sj.Steps)
		if total == 0 || completed < total {
			allCompleted = false
		}
		if completed > 0 {
			anyCompleted = true
		}
	}

	switch {
	case allCompleted:
		return models.JobStatusCompleted
	case anyCompleted:
		return models.JobStatusInProgress
	default:
		return models.JobStatusPending
	}
}

func statusFromSteps(steps []models.Step) models.JobStatus {
	completed, total := countSteps(steps)
	switch {
	case total > 0 && completed == total:
		return models.JobStatusCompleted
	case completed > 0:
		return models.JobStatusInProgress
	default:
		return models.JobStatusPending
	}
}

// ToggleStep flips one step of a sub-job and recomputes the job status.
// Completing a step requires every earlier step in the same sub-job to be
// complete already; un-completing is never gated. The job is only mutated
// when the toggle is accepted.
func ToggleStep(job *models.Job, subJobIndex, stepIndex int, now time.Time) error {
	if subJobIndex < 0 || subJobIndex >= len(job.SubJobs) {
		return fmt.Errorf("sub-job index %d out of range", subJobIndex)
	}
	sj := &job.SubJobs[subJobIndex]
	if err := toggle(sj.Steps, stepIndex, now); err != nil {
		return err
	}
	job.Status = Recompute(job)
	return nil
}

// ToggleFlatStep is ToggleStep for legacy jobs that carry a flat step list.
func ToggleFlatStep(job *models.Job, stepIndex int, now time.Time) error {
	if err := toggle(job.Steps, stepIndex, now); err != nil {
		return err
	}
	job.Status = Recompute(job)
	return nil
}

func toggle(steps []models.Step, stepIndex int, now time.Time) error {
	if stepIndex < 0 || stepIndex >= len(steps) {
		return fmt.Errorf("step index %d out of range", stepIndex)
	}

	step := &steps[stepIndex]

	// The sequential gate applies only to the completing transition;
	// reversals are always allowed.
	if !step.Completed && stepIndex > 0 {
		for i := 0; i < stepIndex; i++ {
			if !steps[i].Completed {
				return fmt.Errorf("step %d: %w", stepIndex, ErrSequentialOrder)
			}
		}
	}

	step.Completed = !step.Completed
	if step.Completed {
		at := now
		step.CompletedAt = &at
	} else {
		step.CompletedAt = nil
	}
	return nil
}

// Percent returns the rounded completion percentage, 0 for an empty list.
func Percent(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}

// SubJobProgress returns completed and total step counts for one sub-job.
func SubJobProgress(sj models.SubJob) (completed, total int) {
	return countSteps(sj.Steps)
}

// JobProgress returns completed and total step counts across the whole job,
// covering both the sub-job and legacy flat shapes.
func JobProgress(job *models.Job) (completed, total int) {
	if job.HasSubJobs() {
		for _, sj := range job.SubJobs {
			c, t := countSteps(sj.Steps)
			completed += c
			total += t
		}
		return completed, total
	}
	return countSteps(job.Steps)
}

func countSteps(steps []models.Step) (completed, total int) {
	for _, s := range steps {
		if s.Completed {
			completed++
		}
	}
	return completed, len(steps)
}
