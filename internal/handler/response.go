package handler

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/hohotang/shortlink-service/internal/models"
	"github.com/hohotang/shortlink-service/internal/service"
	"github.com/hohotang/shortlink-service/internal/utils"
)

// Error messages returned to API clients
const (
	msgEmptyBody      = "request body is empty"
	msgInvalidBody    = "request body is not valid JSON"
	msgValidation     = "request validation failed"
	msgNotFound       = "short key not found"
	msgKeyExhaustion  = "no short key available, try again later"
	msgInternalServer = "internal server error"
)

// urlResponse is the JSON form of a mapping
type urlResponse struct {
	ShortKey    string     `json:"shortKey"`
	ShortURL    string     `json:"shortUrl"`
	OriginalURL string     `json:"originalUrl"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Hits        int64      `json:"hits"`
}

func toURLResponse(m *models.Mapping, baseURL string) urlResponse {
	return urlResponse{
		ShortKey:    m.ShortKey,
		ShortURL:    utils.ShortURL(baseURL, m.ShortKey),
		OriginalURL: m.OriginalURL,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		ExpiresAt:   m.ExpiresAt,
		Hits:        m.Hits,
	}
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error  string       `json:"error"`
	Errors []fieldError `json:"errors,omitempty"`
}

func newErrorResponse(msg string) errorResponse {
	return errorResponse{Error: msg}
}

// validationErrorResponse lists the offending fields of a validator or service error
func validationErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: msgValidation}

	var verrs validator.ValidationErrors
	var serr *service.ValidationError
	switch {
	case errors.As(err, &verrs):
		for _, fe := range verrs {
			resp.Errors = append(resp.Errors, fieldError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
	case errors.As(err, &serr):
		resp.Errors = append(resp.Errors, fieldError{Field: serr.Field, Message: serr.Message})
	}

	return resp
}
