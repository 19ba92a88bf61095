package contentstore

// HTTP client for the external content management system's REST API. This
// is the production implementation of extract.ContentStore; the entities
// themselves are owned by the CMS, we only read revisions and push
// translations back.

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"content_trans_api/config"
	"content_trans_api/pkg/document"
	"content_trans_api/pkg/extract"
	"content_trans_api/pkg/httpclient"
	"content_trans_api/pkg/logger"
)

type HttpStore struct {
	BaseUrl string
	Token   string
}

func New() *HttpStore {
	return &HttpStore{
		BaseUrl: config.Cfg.Cms.Url,
		Token:   config.Cfg.Cms.Token,
	}
}

func (s *HttpStore) do(method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewBuffer(body)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return httpclient.Client.Do(req)
}

func (s *HttpStore) GetRevision(entityType, id, revisionID string) (*extract.Entity, error) {
	url := fmt.Sprintf("%s/api/content/%s/%s/revisions/%s", s.BaseUrl, entityType, id, revisionID)
	resp, err := s.do("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("cms request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("cms returned %s: %s", resp.Status, string(bodyBytes))
	}

	entity := &extract.Entity{}
	if err := json.NewDecoder(resp.Body).Decode(entity); err != nil {
		return nil, fmt.Errorf("failed to parse cms revision: %v", err)
	}
	return entity, nil
}

func (s *HttpStore) SaveTranslation(entityType, id, revisionID, langcode string, doc *document.Document) bool {
	payload, err := json.Marshal(map[string]interface{}{
		"revision_id": revisionID,
		"langcode":    langcode,
		"document":    doc,
	})
	if err != nil {
		logger.Logger.Error("failed to marshal translation payload", "error", err.Error())
		return false
	}

	url := fmt.Sprintf("%s/api/content/%s/%s/translations/%s", s.BaseUrl, entityType, id, langcode)
	resp, err := s.do("POST", url, payload)
	if err != nil {
		logger.Logger.Error("cms translation save failed", "error", err.Error(),
			"entity_type", entityType, "entity_id", id, "langcode", langcode)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		logger.Logger.Error("cms rejected translation save", "status", resp.Status,
			"body", string(bodyBytes), "entity_id", id, "langcode", langcode)
		return false
	}
	return true
}

func (s *HttpStore) LatestRevisionID(entityType, id string) (string, error) {
	url := fmt.Sprintf("%s/api/content/%s/%s/latest", s.BaseUrl, entityType, id)
	resp, err := s.do("GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("cms request error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cms returned %s", resp.Status)
	}

	var result struct {
		RevisionID string `json:"revision_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to parse cms response: %v", err)
	}
	return result.RevisionID, nil
}
