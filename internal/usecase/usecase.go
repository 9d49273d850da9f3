package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/vadimbarashkov/shorten-api/internal/entity"
	"github.com/vadimbarashkov/shorten-api/internal/validation"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// ShortCodeAlphabet is the set of characters short codes are drawn from.
	ShortCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	// ShortCodeLength is the length of every generated short code.
	ShortCodeLength = 6

	maxRetries = 10
)

// ErrMaxRetriesExceeded is returned when no generated short code could be saved within maxRetries attempts.
var ErrMaxRetriesExceeded = errors.New("maximum retries exceeded for generating short code")

type urlRepository interface {
	Save(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	Exists(ctx context.Context, shortCode string) (bool, error)
	RetrieveByShortCode(ctx context.Context, shortCode string) (*entity.URL, error)
	RetrieveAndUpdateStats(ctx context.Context, shortCode string) (*entity.URL, error)
	Update(ctx context.Context, shortCode, originalURL string) (*entity.URL, error)
	Remove(ctx context.Context, shortCode string) error
}

// URLUseCase implements the URL shortening operations on top of a repository.
type URLUseCase struct {
	generate func(length int) (string, error)
	urlRepo  urlRepository
}

// Option configures a URLUseCase.
type Option func(*URLUseCase)

// WithGenerator replaces the random short code generator.
func WithGenerator(fn func(length int) (string, error)) Option {
	return func(uc *URLUseCase) {
		uc.generate = fn
	}
}

func NewURLUseCase(urlRepo urlRepository, opts ...Option) *URLUseCase {
	uc := &URLUseCase{
		generate: GenerateShortCode,
		urlRepo:  urlRepo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// GenerateShortCode returns a random code of the given length drawn uniformly from ShortCodeAlphabet.
func GenerateShortCode(length int) (string, error) {
	return gonanoid.Generate(ShortCodeAlphabet, length)
}

// ShortenURL stores originalURL under a newly generated short code.
//
// Every attempt draws a fresh code, skips it if the repository already knows it
// and otherwise tries to save it. A code taken between the check and the insert
// costs one attempt like any other collision.
func (uc *URLUseCase) ShortenURL(ctx context.Context, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ShortenURL"

	if !validation.IsValidURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	for i := 0; i < maxRetries; i++ {
		shortCode, err := uc.generate(ShortCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to generate short code: %w", op, err)
		}

		exists, err := uc.urlRepo.Exists(ctx, shortCode)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to check short code: %w", op, err)
		}
		if exists {
			continue
		}

		url, err := uc.urlRepo.Save(ctx, shortCode, originalURL)
		if err != nil {
			if errors.Is(err, entity.ErrShortCodeExists) {
				continue
			}

			return nil, fmt.Errorf("%s: failed to shorten url: %w", op, err)
		}

		return url, nil
	}

	return nil, fmt.Errorf("%s: %w", op, ErrMaxRetriesExceeded)
}

// ResolveShortCode returns the URL behind shortCode and counts the access.
func (uc *URLUseCase) ResolveShortCode(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ResolveShortCode"

	url, err := uc.urlRepo.RetrieveAndUpdateStats(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to resolve short code: %w", op, err)
	}

	return url, nil
}

// ModifyURL points shortCode at originalURL.
func (uc *URLUseCase) ModifyURL(ctx context.Context, shortCode, originalURL string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.ModifyURL"

	if !validation.IsValidURL(originalURL) {
		return nil, fmt.Errorf("%s: %w", op, entity.ErrInvalidURL)
	}

	url, err := uc.urlRepo.Update(ctx, shortCode, originalURL)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to modify url: %w", op, err)
	}

	return url, nil
}

// DeleteURL removes the URL stored under shortCode.
func (uc *URLUseCase) DeleteURL(ctx context.Context, shortCode string) error {
	const op = "usecase.URLUseCase.DeleteURL"

	if err := uc.urlRepo.Remove(ctx, shortCode); err != nil {
		return fmt.Errorf("%s: failed to delete url: %w", op, err)
	}

	return nil
}

// GetURLStats returns the URL behind shortCode without counting an access.
func (uc *URLUseCase) GetURLStats(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "usecase.URLUseCase.GetURLStats"

	url, err := uc.urlRepo.RetrieveByShortCode(ctx, shortCode)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get url stats: %w", op, err)
	}

	return url, nil
}
