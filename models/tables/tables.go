package tables

import "time"

// TranslationRequests is append-only: a request superseded by a new
// version keeps its row, the successor points back via Supersedes.
type TranslationRequests struct {
	Id                string     `xorm:"pk varchar(36) 'id'" json:"id"`
	Provider          string     `xorm:"varchar(32) index" json:"provider"`
	Status            string     `xorm:"varchar(16) index" json:"status"`
	SourceLang        string     `xorm:"varchar(12)" json:"source_lang"`
	LanguagesJson     string     `xorm:"longtext" json:"-"`
	DocumentJson      string     `xorm:"longtext" json:"-"`
	EntityType        string     `xorm:"varchar(64) index(entity)" json:"entity_type"`
	EntityId          string     `xorm:"varchar(64) index(entity)" json:"entity_id"`
	RevisionId        string     `xorm:"varchar(64) index(entity)" json:"revision_id"`
	AutoAccept        bool       `json:"auto_accept"`
	AutoSync          bool       `json:"auto_sync"`
	Deadline          *time.Time `json:"deadline,omitempty"`
	Message           string     `xorm:"varchar(1024)" json:"message"`
	ProviderReference string     `xorm:"varchar(128) index" json:"provider_reference"`
	Supersedes        string     `xorm:"varchar(36)" json:"supersedes"`
	CreatedTime       time.Time  `xorm:"created" json:"create_time"`
	UpdateTime        time.Time  `xorm:"updated" json:"update_time"`
}

// ProviderReferences maps a provider-assigned composite reference to an
// internal request. One-to-one, immutable once written.
type ProviderReferences struct {
	RequestId       string    `xorm:"pk varchar(36)" json:"request_id"`
	Reference       string    `xorm:"varchar(128) index" json:"reference"`
	RequesterCode   string    `xorm:"varchar(32)" json:"requester_code"`
	Year            int       `json:"year"`
	Number          int64     `json:"number"`
	Version         int       `json:"version"`
	Part            int       `json:"part"`
	ServiceType     string    `xorm:"varchar(16)" json:"service_type"`
	LegacyReference string    `xorm:"varchar(128)" json:"legacy_reference"`
	CreatedTime     time.Time `xorm:"created" json:"create_time"`
}

// RequestLog records submission errors and dropped notification events on
// the request for operators.
type RequestLog struct {
	Id          int64     `xorm:"pk autoincr" json:"id"`
	RequestId   string    `xorm:"varchar(36) index" json:"request_id"`
	Level       string    `xorm:"varchar(12)" json:"level"`
	Message     string    `xorm:"varchar(1024)" json:"message"`
	Detail      string    `xorm:"longtext" json:"detail"`
	CreatedTime time.Time `xorm:"created" json:"create_time"`
}

// WebhookConfig holds operator webhook endpoints notified on delivery.
type WebhookConfig struct {
	Id          int64     `xorm:"pk autoincr" json:"id"`
	WebhookUrl  string    `xorm:"varchar(512)" json:"webhook_url"`
	CreatedTime time.Time `xorm:"created" json:"create_time"`
}
