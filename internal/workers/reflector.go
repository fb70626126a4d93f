package workers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/daysense/daysense-api/internal/database"
	"github.com/daysense/daysense-api/internal/inference"
	"github.com/daysense/daysense-api/internal/models"
	"github.com/daysense/daysense-api/internal/queue"
	"github.com/daysense/daysense-api/internal/services/ai"
	"github.com/daysense/daysense-api/internal/tracking"
)

// Reflector processes end-of-day reflection and energy inference jobs
type Reflector struct {
	remote         ai.NarrationProvider // nil when no API key is configured
	fallback       *ai.FallbackProvider
	taskRepo       database.TaskRepositoryInterface
	energyRepo     database.EnergyEntryRepositoryInterface
	flowRepo       database.FlowScoreRepositoryInterface
	reflectionRepo database.ReflectionRepositoryInterface
	profileRepo    database.ProfileRepositoryInterface
	signalRepo     database.SignalSnapshotRepositoryInterface
	jobQueue       queue.JobQueue // For re-enqueueing jobs with delays
}

// NewReflector creates a new reflector worker
func NewReflector(
	remote ai.NarrationProvider,
	taskRepo database.TaskRepositoryInterface,
	energyRepo database.EnergyEntryRepositoryInterface,
	flowRepo database.FlowScoreRepositoryInterface,
	reflectionRepo database.ReflectionRepositoryInterface,
	profileRepo database.ProfileRepositoryInterface,
	signalRepo database.SignalSnapshotRepositoryInterface,
	jobQueue queue.JobQueue,
) *Reflector {
	return &Reflector{
		remote:         remote,
		fallback:       ai.NewFallbackProvider(),
		taskRepo:       taskRepo,
		energyRepo:     energyRepo,
		flowRepo:       flowRepo,
		reflectionRepo: reflectionRepo,
		profileRepo:    profileRepo,
		signalRepo:     signalRepo,
		jobQueue:       jobQueue,
	}
}

// ProcessDailyReflectionJob computes the day's flow score, generates the
// reflection narrative, and persists both.
func (r *Reflector) ProcessDailyReflectionJob(ctx context.Context, job *queue.Job) error {
	day := time.Now()
	date := day.Format("2006-01-02")
	if raw, ok := job.Metadata["date"].(string); ok && raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("invalid reflection date %q: %w", raw, err)
		}
		day = parsed
		date = raw
	}

	tasks, err := r.taskRepo.GetByUserID(ctx, job.UserID, nil)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}

	timeline, err := r.energyRepo.GetTimelineForDay(ctx, job.UserID, day)
	if err != nil {
		return fmt.Errorf("failed to load energy timeline: %w", err)
	}

	// Rebuild the user's tracking day from storage and let it derive the
	// scores. Focus consistency needs the latest behavioral snapshot; a user
	// never sampled scores neutral.
	tracker := tracking.NewDayTracker(job.UserID, nil)
	tracker.SnapshotTasks(tasks)
	tracker.SeedTimeline(timeline)
	if signals, err := r.signalRepo.GetLatest(ctx, job.UserID); err == nil {
		tracker.SetSignals(*signals)
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Printf("Failed to load signal snapshot for user %s, scoring without signals: %v", job.UserID, err)
	}
	completed, pending := tracker.Tasks()
	scores, err := tracker.Scores()
	if err != nil {
		return fmt.Errorf("failed to calculate flow score: %w", err)
	}
	if _, err := tracker.CommitDaily(ctx, day, func(ctx context.Context, record *models.FlowScoreRecord) error {
		return r.flowRepo.Upsert(ctx, record)
	}); err != nil {
		return fmt.Errorf("failed to store flow score: %w", err)
	}

	var northStar *string
	if profile, err := r.profileRepo.GetByUserID(ctx, job.UserID); err == nil {
		northStar = profile.NorthStar
	}

	req := ai.ReflectionRequest{
		Timeline:  timeline,
		Completed: completed,
		Pending:   pending,
		FlowScore: scores.Composite,
		NorthStar: northStar,
	}

	draft, err := r.generateReflection(ctx, job, req)
	if err != nil {
		return err
	}

	reflection := &models.Reflection{
		ID:                 uuid.New(),
		UserID:             job.UserID,
		Date:               date,
		Summary:            draft.Summary,
		EnergyDrains:       draft.EnergyDrains,
		EnergyBoosts:       draft.EnergyBoosts,
		ReflectiveQuestion: draft.ReflectiveQuestion,
		TomorrowFocus:      draft.TomorrowFocus,
		Generated:          draft.Generated,
		CreatedAt:          time.Now(),
	}
	if err := r.reflectionRepo.Upsert(ctx, reflection); err != nil {
		return fmt.Errorf("failed to store reflection: %w", err)
	}

	if err := r.profileRepo.IncrementStreak(ctx, job.UserID); err != nil {
		log.Printf("Failed to increment streak for user %s: %v", job.UserID, err)
	}

	// The reflection closes the tracking day: clear the aggregate while its
	// daily history survives. Stored rows stay put; timeline and score
	// queries are already day-scoped.
	tracker.Reset()

	log.Printf("Stored reflection for user %s on %s (flow score %d, generated=%v)",
		job.UserID, date, scores.Composite, draft.Generated)
	return nil
}

// generateReflection calls the remote provider first. Transient API errors
// surface to the retry machinery while the job still has retries left;
// everything else degrades to the deterministic fallback, which cannot fail.
func (r *Reflector) generateReflection(ctx context.Context, job *queue.Job, req ai.ReflectionRequest) (*ai.ReflectionDraft, error) {
	ctx = ai.WithNarrationMeta(ctx, job.UserID.String(), job.ID.String())
	if r.remote != nil {
		draft, err := r.remote.GenerateReflection(ctx, req)
		if err == nil {
			return draft, nil
		}
		if (ai.IsRateLimitError(err) || ai.IsQuotaError(err)) && job.CanRetry() {
			return nil, fmt.Errorf("remote reflection failed: %w", err)
		}
		log.Printf("Remote reflection failed for user %s, using fallback: %v", job.UserID, err)
	}
	draft, _ := r.fallback.GenerateReflection(ctx, req)
	return draft, nil
}

// ProcessEnergyInferenceJob runs passive inference over the behavioral
// snapshot carried in the job and appends an inferred timeline entry.
func (r *Reflector) ProcessEnergyInferenceJob(ctx context.Context, job *queue.Job) error {
	signals, err := signalsFromMetadata(job.Metadata)
	if err != nil {
		return fmt.Errorf("failed to decode signals: %w", err)
	}

	result := inference.InferEnergy(signals)

	// Consecutive identical inferences add no information; skip them.
	latest, err := r.energyRepo.LatestLevel(ctx, job.UserID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check latest energy level: %w", err)
	}
	if err == nil && latest == result.EnergyLevel {
		log.Printf("Skipping duplicate inferred energy level %d for user %s", result.EnergyLevel, job.UserID)
		return nil
	}

	confidence := result.Confidence
	entry := &models.EnergyEntry{
		ID:         uuid.New(),
		UserID:     job.UserID,
		Timestamp:  time.Now(),
		Level:      result.EnergyLevel,
		Source:     models.EnergySourceInferred,
		Confidence: &confidence,
	}
	if err := r.energyRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append inferred entry: %w", err)
	}

	if err := r.profileRepo.SetEnergyLevel(ctx, job.UserID, result.EnergyLevel); err != nil {
		log.Printf("Failed to update profile energy level for user %s: %v", job.UserID, err)
	}

	log.Printf("Inferred energy %d (confidence %d) for user %s: %s",
		result.EnergyLevel, result.Confidence, job.UserID, result.SignalSummary)
	return nil
}

// signalsFromMetadata decodes the behavioral snapshot a sampling tick
// attached to the job.
func signalsFromMetadata(metadata map[string]any) (models.BehavioralSignals, error) {
	var signals models.BehavioralSignals
	raw, ok := metadata["signals"]
	if !ok {
		return signals, fmt.Errorf("signals metadata missing")
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return signals, err
	}
	if err := json.Unmarshal(encoded, &signals); err != nil {
		return signals, err
	}
	return signals, nil
}

// ProcessJob processes a job based on its type
func (r *Reflector) ProcessJob(ctx context.Context, msg *queue.Message) error {
	job := msg.Job

	// Check if job should be processed now (respect NotBefore)
	if !job.ShouldProcess() {
		log.Printf("Job %s not ready yet (NotBefore: %v), skipping", job.ID, job.NotBefore)
		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job for later processing: %v", ackErr)
		}
		return nil
	}

	switch job.Type {
	case queue.JobTypeDailyReflection:
		if err := r.ProcessDailyReflectionJob(ctx, job); err != nil {
			return r.handleJobError(ctx, msg, job, err, "daily reflection")
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack job: %w", ackErr)
		}
		return nil

	case queue.JobTypeEnergyInference:
		if err := r.ProcessEnergyInferenceJob(ctx, job); err != nil {
			// Inference runs again on the next sampling tick; no delayed retry.
			if nackErr := msg.Nack(false); nackErr != nil {
				log.Printf("Failed to nack inference job: %v", nackErr)
			}
			return fmt.Errorf("inference failed: %w", err)
		}
		if ackErr := msg.Ack(); ackErr != nil {
			return fmt.Errorf("failed to ack inference job: %w", ackErr)
		}
		return nil

	default:
		if nackErr := msg.Nack(false); nackErr != nil { // Unknown job type, send to DLQ
			log.Printf("Failed to nack unknown job type: %v", nackErr)
		}
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

// handleJobError handles errors from job processing with intelligent retry logic
func (r *Reflector) handleJobError(ctx context.Context, msg *queue.Message, job *queue.Job, err error, jobType string) error {
	// Quota errors should not retry immediately
	if ai.IsQuotaError(err) {
		log.Printf("Quota exceeded for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)
		notBefore := time.Now().Add(retryDelay)

		log.Printf("Re-enqueueing %s job %s with NotBefore=%v (quota exhausted, retry in %v)",
			jobType, job.ID, notBefore, retryDelay)

		delayedJob := &queue.Job{
			ID:         job.ID,
			Type:       job.Type,
			UserID:     job.UserID,
			NotBefore:  &notBefore,
			NotAfter:   job.NotAfter,
			Metadata:   job.Metadata,
			CreatedAt:  job.CreatedAt,
			RetryCount: job.RetryCount + 1,
			MaxRetries: job.MaxRetries,
		}

		if ackErr := msg.Ack(); ackErr != nil {
			log.Printf("Failed to ack job before re-enqueue: %v", ackErr)
		}

		if r.jobQueue != nil {
			if enqueueErr := r.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue job %s with delay: %v", job.ID, enqueueErr)
				return fmt.Errorf("quota exhausted, failed to re-enqueue: %w", enqueueErr)
			}
			log.Printf("Successfully re-enqueued %s job %s for retry at %v", jobType, job.ID, notBefore)
			return nil
		}

		log.Printf("Warning: No queue access, cannot re-enqueue job with delay. Sending to DLQ.")
		if nackErr := msg.Nack(false); nackErr != nil {
			log.Printf("Failed to nack quota error job: %v", nackErr)
		}

		return fmt.Errorf("quota exhausted (job %s): %w", job.ID, err)
	}

	// Rate limit errors retry with backoff
	if ai.IsRateLimitError(err) {
		log.Printf("Rate limited for %s job %s: %v", jobType, job.ID, err)

		retryDelay := ai.GetRetryDelay(err, job.RetryCount)

		if job.CanRetry() && r.jobQueue != nil {
			notBefore := time.Now().Add(retryDelay)
			delayedJob := &queue.Job{
				ID:         job.ID,
				Type:       job.Type,
				UserID:     job.UserID,
				NotBefore:  &notBefore,
				NotAfter:   job.NotAfter,
				Metadata:   job.Metadata,
				CreatedAt:  job.CreatedAt,
				RetryCount: job.RetryCount + 1,
				MaxRetries: job.MaxRetries,
			}

			if ackErr := msg.Ack(); ackErr != nil {
				log.Printf("Failed to ack rate limited job: %v", ackErr)
			}

			if enqueueErr := r.jobQueue.Enqueue(ctx, delayedJob); enqueueErr != nil {
				log.Printf("Failed to re-enqueue rate limited job %s: %v", job.ID, enqueueErr)
				if nackErr := msg.Nack(true); nackErr != nil {
					log.Printf("Failed to nack rate limited job: %v", nackErr)
				}
				return fmt.Errorf("rate limited, failed to re-enqueue: %w", enqueueErr)
			}

			log.Printf("Rate limited: re-enqueued %s job %s for retry at %v (delay: %v)",
				jobType, job.ID, notBefore, retryDelay)
			return nil
		}

		if job.CanRetry() {
			job.IncrementRetry()
			log.Printf("Rate limit: will retry job %s immediately (attempt %d/%d)",
				job.ID, job.RetryCount, job.MaxRetries)
			if nackErr := msg.Nack(true); nackErr != nil {
				log.Printf("Failed to nack rate limited job: %v", nackErr)
			}
			return fmt.Errorf("rate limited (will retry): %w", err)
		}
	}

	// Standard retry logic for everything else
	if job.CanRetry() {
		job.IncrementRetry()
		log.Printf("%s job %s failed (attempt %d/%d): %v, will retry", jobType, job.ID, job.RetryCount, job.MaxRetries, err)
		if nackErr := msg.Nack(true); nackErr != nil {
			log.Printf("Failed to nack job: %v", nackErr)
		}
		return fmt.Errorf("job failed (will retry): %w", err)
	}

	// Max retries exceeded, send to DLQ
	log.Printf("%s job %s failed after %d retries: %v, sending to DLQ", jobType, job.ID, job.MaxRetries, err)
	if nackErr := msg.Nack(false); nackErr != nil {
		log.Printf("Failed to nack job to DLQ: %v", nackErr)
	}
	return fmt.Errorf("job failed (max retries): %w", err)
}
