package models

import "time"

// MaxShortKeyLength is the longest short key the url_mappings table accepts
const MaxShortKeyLength = 10

// Mapping links a short key to the original URL it redirects to
type Mapping struct {
	ID          int64      `json:"id" db:"id"`
	ShortKey    string     `json:"shortKey" db:"short_key"`
	OriginalURL string     `json:"originalUrl" db:"original_url"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	Hits        int64      `json:"hits" db:"hits"`
}

// IsExpired reports whether the mapping has an expiry that is not after now
func (m *Mapping) IsExpired(now time.Time) bool {
	return m.ExpiresAt != nil && !now.Before(*m.ExpiresAt)
}

// Clone returns a deep copy of the mapping
func (m *Mapping) Clone() *Mapping {
	c := *m
	if m.ExpiresAt != nil {
		t := *m.ExpiresAt
		c.ExpiresAt = &t
	}
	return &c
}
