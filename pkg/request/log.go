package request

import (
	"sync"

	"content_trans_api/models/tables"

	"xorm.io/xorm"
)

// LogStore records request activity (submission failures, dropped
// notification events) for operators. Append failures are never allowed
// to fail the operation being logged.
type LogStore interface {
	Append(requestID, level, message, detail string) error
	List(requestID string, limit int) ([]tables.RequestLog, error)
}

type XormLogStore struct {
	Engine *xorm.Engine
}

func NewXormLogStore(engine *xorm.Engine) *XormLogStore {
	return &XormLogStore{Engine: engine}
}

func (s *XormLogStore) Append(requestID, level, message, detail string) error {
	_, err := s.Engine.Insert(&tables.RequestLog{
		RequestId: requestID,
		Level:     level,
		Message:   message,
		Detail:    detail,
	})
	return err
}

func (s *XormLogStore) List(requestID string, limit int) ([]tables.RequestLog, error) {
	var rows []tables.RequestLog
	err := s.Engine.Where("request_id = ?", requestID).
		Desc("id").Limit(limit, 0).Find(&rows)
	return rows, err
}

type MemoryLogStore struct {
	mu   sync.Mutex
	rows []tables.RequestLog
}

func NewMemoryLogStore() *MemoryLogStore {
	return &MemoryLogStore{}
}

func (s *MemoryLogStore) Append(requestID, level, message, detail string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, tables.RequestLog{
		Id:        int64(len(s.rows) + 1),
		RequestId: requestID,
		Level:     level,
		Message:   message,
		Detail:    detail,
	})
	return nil
}

func (s *MemoryLogStore) List(requestID string, limit int) ([]tables.RequestLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []tables.RequestLog
	for i := len(s.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if s.rows[i].RequestId == requestID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}
