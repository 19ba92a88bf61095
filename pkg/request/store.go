package request

import (
	"encoding/json"
	"fmt"
	"sync"

	"content_trans_api/models/models"
	"content_trans_api/models/tables"
	"content_trans_api/pkg/document"
	"content_trans_api/pkg/trerr"

	"xorm.io/xorm"
)

// Store persists translation requests. One record per request with the
// ordered language list and the document blob embedded; the table is
// append-only, superseded requests keep their rows.
type Store interface {
	Insert(req *models.TranslationRequest) error
	Get(id string) (*models.TranslationRequest, error)
	Update(req *models.TranslationRequest) error
	List(limit, offset int) ([]*models.TranslationRequest, int64, error)
	// OpenRequestExists reports whether a non-terminal request already
	// targets the same entity and revision. Guards against concurrent
	// duplicate submissions to the same provider dossier.
	OpenRequestExists(entity models.EntityRef, excludeID string) (bool, error)
}

func openStatuses() []string {
	return []string{string(models.RequestDraft), string(models.RequestActive)}
}

// XormStore is the mysql-backed store.
type XormStore struct {
	Engine *xorm.Engine
}

func NewXormStore(engine *xorm.Engine) *XormStore {
	return &XormStore{Engine: engine}
}

func toRow(req *models.TranslationRequest) (*tables.TranslationRequests, error) {
	langsJson, err := json.Marshal(req.TargetLanguages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal language statuses: %v", err)
	}
	docJson := []byte("")
	if req.Document != nil {
		docJson, err = json.Marshal(req.Document)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %v", err)
		}
	}

	return &tables.TranslationRequests{
		Id:                req.ID,
		Provider:          req.Provider,
		Status:            string(req.Status),
		SourceLang:        req.SourceLanguage,
		LanguagesJson:     string(langsJson),
		DocumentJson:      string(docJson),
		EntityType:        req.Entity.EntityType,
		EntityId:          req.Entity.EntityID,
		RevisionId:        req.Entity.RevisionID,
		AutoAccept:        req.AutoAccept,
		AutoSync:          req.AutoSync,
		Deadline:          req.Deadline,
		Message:           req.Message,
		ProviderReference: req.ProviderReference,
		Supersedes:        req.Supersedes,
	}, nil
}

func fromRow(row *tables.TranslationRequests) (*models.TranslationRequest, error) {
	req := &models.TranslationRequest{
		ID:                row.Id,
		Provider:          row.Provider,
		Status:            models.RequestStatus(row.Status),
		SourceLanguage:    row.SourceLang,
		ProviderReference: row.ProviderReference,
		Entity: models.EntityRef{
			EntityType: row.EntityType,
			EntityID:   row.EntityId,
			RevisionID: row.RevisionId,
		},
		AutoAccept: row.AutoAccept,
		AutoSync:   row.AutoSync,
		Deadline:   row.Deadline,
		Message:    row.Message,
		Supersedes: row.Supersedes,
		CreatedAt:  row.CreatedTime,
	}

	if row.LanguagesJson != "" {
		if err := json.Unmarshal([]byte(row.LanguagesJson), &req.TargetLanguages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal language statuses for %s: %v", row.Id, err)
		}
	}
	if row.DocumentJson != "" {
		req.Document = document.New()
		if err := json.Unmarshal([]byte(row.DocumentJson), req.Document); err != nil {
			return nil, fmt.Errorf("failed to unmarshal document for %s: %v", row.Id, err)
		}
	}
	return req, nil
}

func (s *XormStore) Insert(req *models.TranslationRequest) error {
	row, err := toRow(req)
	if err != nil {
		return err
	}
	_, err = s.Engine.Insert(row)
	return err
}

func (s *XormStore) Get(id string) (*models.TranslationRequest, error) {
	row := &tables.TranslationRequests{}
	has, err := s.Engine.ID(id).Get(row)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, &trerr.NotFoundError{Reference: id}
	}
	return fromRow(row)
}

// Update writes the whole aggregate in a single row update, so a status
// transition and its document merge land atomically.
func (s *XormStore) Update(req *models.TranslationRequest) error {
	row, err := toRow(req)
	if err != nil {
		return err
	}
	_, err = s.Engine.ID(req.ID).AllCols().Update(row)
	return err
}

func (s *XormStore) List(limit, offset int) ([]*models.TranslationRequest, int64, error) {
	var rows []tables.TranslationRequests
	if err := s.Engine.Desc("created_time").Limit(limit, offset).Find(&rows); err != nil {
		return nil, 0, err
	}
	total, err := s.Engine.Count(&tables.TranslationRequests{})
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.TranslationRequest, 0, len(rows))
	for i := range rows {
		req, err := fromRow(&rows[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, total, nil
}

func (s *XormStore) OpenRequestExists(entity models.EntityRef, excludeID string) (bool, error) {
	session := s.Engine.Where("entity_type = ? AND entity_id = ? AND revision_id = ?",
		entity.EntityType, entity.EntityID, entity.RevisionID).
		In("status", openStatuses())
	if excludeID != "" {
		session = session.And("id <> ?", excludeID)
	}
	return session.Exist(&tables.TranslationRequests{})
}

// MemoryStore backs tests and the dev mode. Aggregates are deep-copied
// through JSON on the way in and out so callers cannot mutate stored
// state behind the store's back.
type MemoryStore struct {
	mu   sync.RWMutex
	reqs map[string]*models.TranslationRequest
	ord  []string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reqs: make(map[string]*models.TranslationRequest)}
}

func cloneRequest(req *models.TranslationRequest) (*models.TranslationRequest, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	out := &models.TranslationRequest{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) Insert(req *models.TranslationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reqs[req.ID]; ok {
		return fmt.Errorf("request %s already exists", req.ID)
	}
	clone, err := cloneRequest(req)
	if err != nil {
		return err
	}
	s.reqs[req.ID] = clone
	s.ord = append(s.ord, req.ID)
	return nil
}

func (s *MemoryStore) Get(id string) (*models.TranslationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.reqs[id]
	if !ok {
		return nil, &trerr.NotFoundError{Reference: id}
	}
	return cloneRequest(req)
}

func (s *MemoryStore) Update(req *models.TranslationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reqs[req.ID]; !ok {
		return &trerr.NotFoundError{Reference: req.ID}
	}
	clone, err := cloneRequest(req)
	if err != nil {
		return err
	}
	s.reqs[req.ID] = clone
	return nil
}

func (s *MemoryStore) List(limit, offset int) ([]*models.TranslationRequest, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.TranslationRequest
	for i := len(s.ord) - 1 - offset; i >= 0 && len(out) < limit; i-- {
		req, err := cloneRequest(s.reqs[s.ord[i]])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, req)
	}
	return out, int64(len(s.ord)), nil
}

func (s *MemoryStore) OpenRequestExists(entity models.EntityRef, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, req := range s.reqs {
		if req.ID == excludeID {
			continue
		}
		if req.Entity != entity {
			continue
		}
		if req.Status == models.RequestDraft || req.Status == models.RequestActive {
			return true, nil
		}
	}
	return false, nil
}
