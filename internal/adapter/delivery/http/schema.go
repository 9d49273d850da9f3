package http

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/vadimbarashkov/shorten-api/internal/entity"
	"github.com/vadimbarashkov/shorten-api/internal/validation"
)

// TimeLayout is the wire format of createdAt and updatedAt: UTC with microseconds.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// urlRequest is the body of create and update requests.
type urlRequest struct {
	URL string `json:"url" validate:"required,abs_url"`
}

// urlResponse is the single serialization of a URL record used by every endpoint.
type urlResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ShortCode   string `json:"shortCode"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	AccessCount int64  `json:"accessCount"`
}

func toURLResponse(url *entity.URL) urlResponse {
	return urlResponse{
		ID:          strconv.FormatInt(url.ID, 10),
		URL:         url.OriginalURL,
		ShortCode:   url.ShortCode,
		CreatedAt:   url.CreatedAt.UTC().Format(TimeLayout),
		UpdatedAt:   url.UpdatedAt.UTC().Format(TimeLayout),
		AccessCount: url.AccessCount,
	}
}

type indexResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
}

var apiIndex = indexResponse{
	Message: "URL Shortener API is running!",
	Endpoints: map[string]string{
		"create": "POST /shorten",
		"get":    "GET /shorten/{shortCode}",
		"update": "PUT /shorten/{shortCode}",
		"delete": "DELETE /shorten/{shortCode}",
		"stats":  "GET /shorten/{shortCode}/stats",
	},
}

type validationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string            `json:"error"`
	Details []validationError `json:"details,omitempty"`
}

const (
	msgURLRequired = "url is required"
	msgInvalidURL  = "invalid url format, url must be an absolute http:// or https:// url"
)

var (
	emptyRequestBodyResponse   = errorResponse{Error: "empty request body"}
	invalidRequestBodyResponse = errorResponse{Error: "invalid request body"}
	urlNotFoundResponse        = errorResponse{Error: "short url not found"}
	serverErrorResponse        = errorResponse{Error: "internal server error"}
	invalidURLResponse         = errorResponse{
		Error:   msgInvalidURL,
		Details: []validationError{{Field: "url", Message: msgInvalidURL}},
	}
)

func messageForTag(tag string) string {
	switch tag {
	case "required":
		return msgURLRequired
	case validation.TagAbsURL:
		return msgInvalidURL
	default:
		return "invalid value"
	}
}

// validationErrorResponse lists every failed field; the top-level message is
// the first one.
func validationErrorResponse(err error) errorResponse {
	resp := errorResponse{Error: "validation error"}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return resp
	}

	for _, e := range errs {
		resp.Details = append(resp.Details, validationError{
			Field:   e.Field(),
			Message: messageForTag(e.Tag()),
		})
	}

	if len(resp.Details) > 0 {
		resp.Error = resp.Details[0].Message
	}

	return resp
}
