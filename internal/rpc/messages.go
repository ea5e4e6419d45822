package rpc

import (
	"time"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/utils"
)

// CreateRequest asks for the short key of an URL
type CreateRequest struct {
	URL       string     `json:"url"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// GetURL returns the URL to shorten
func (r *CreateRequest) GetURL() string {
	if r == nil {
		return ""
	}
	return r.URL
}

// ShortKeyRequest addresses one mapping by its short key
type ShortKeyRequest struct {
	ShortKey string `json:"shortKey"`
}

// GetShortKey returns the addressed short key
func (r *ShortKeyRequest) GetShortKey() string {
	if r == nil {
		return ""
	}
	return r.ShortKey
}

// Mapping is the wire form of a mapping
type Mapping struct {
	ShortKey    string     `json:"shortKey"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	Hits        int64      `json:"hits"`
}

// DeleteResponse reports the outcome of a delete
type DeleteResponse struct {
	Deleted bool `json:"deleted"`
}

func toMapping(m *models.Mapping, baseURL string) *Mapping {
	return &Mapping{
		ShortKey:    m.ShortKey,
		ShortURL:    utils.ShortURL(baseURL, m.ShortKey),
		OriginalURL: m.OriginalURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ExpiresAt:   m.ExpiresAt,
		Hits:        m.Hits,
	}
}
