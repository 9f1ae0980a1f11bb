package worker

import (
	"encoding/json"

	"referral-service/internal/services"

	"github.com/hibiken/asynq"
)

// Task Types
const (
	TypeSummaryRefresh = "referral:summary-refresh"
	TypeEarningPaid    = "referral:earning-paid"
)

type EarningPaidPayload struct {
	EarningId int `json:"earningId"`
}

// Task Creators

func NewSummaryRefreshTask(payload services.SummaryRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeSummaryRefresh, data), nil
}

func NewEarningPaidTask(payload EarningPaidPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEarningPaid, data), nil
}
