package task

import "resale/monitor/internal/domain"

// RelistTask asks the worker to re-check one sourcing item and drive its
// destination listing to match the outcome.
type RelistTask struct {
	Item      domain.Item      `json:"item"`
	User      domain.User      `json:"user"`
	AppParams domain.AppParams `json:"appParams"`
}

func (t *RelistTask) TaskType() string {
	return "RelistTask"
}

func (t *RelistTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
