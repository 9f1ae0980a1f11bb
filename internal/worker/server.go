package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"referral-service/internal/services"

	"github.com/hibiken/asynq"
)

type Worker struct {
	Summary    *services.SummaryService
	Redemption *services.RedemptionService
}

func NewWorker(summary *services.SummaryService, redemption *services.RedemptionService) *Worker {
	return &Worker{
		Summary:    summary,
		Redemption: redemption,
	}
}

// HandleSummaryRefresh recomputes one partner's summary row. A failed
// recompute is logged and retried by asynq; the summary stays stale until
// the next successful run or the next stale read.
func (w *Worker) HandleSummaryRefresh(ctx context.Context, t *asynq.Task) error {
	var p services.SummaryRefreshPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.Summary.Recompute(p.PartnerId); err != nil {
		log.Printf("Summary recompute failed for partner %d: %v", p.PartnerId, err)
		return err
	}
	return nil
}

func (w *Worker) HandleEarningPaid(ctx context.Context, t *asynq.Task) error {
	var p EarningPaidPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.Redemption.OnEarningPaid(p.EarningId); err != nil {
		log.Printf("Earning-paid handling failed for earning %d: %v", p.EarningId, err)
		return err
	}
	return nil
}

func StartWorker(redisOpt asynq.RedisClientOpt, summary *services.SummaryService, redemption *services.RedemptionService) {
	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// Summary recompute is total, not incremental, so same-partner
			// tasks may run in any order and still converge.
			Concurrency: 10,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
		},
	)

	worker := NewWorker(summary, redemption)
	mux := asynq.NewServeMux()

	mux.HandleFunc(TypeSummaryRefresh, worker.HandleSummaryRefresh)
	mux.HandleFunc(TypeEarningPaid, worker.HandleEarningPaid)

	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
