package agi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Class is the failure category of one model attempt.
type Class string

const (
	ClassAuth        Class = "auth"
	ClassNetwork     Class = "network"
	ClassQuota       Class = "quota"
	ClassModel       Class = "model"
	ClassUnavailable Class = "unavailable"
	ClassInvalid     Class = "invalid"
	ClassEmpty       Class = "empty"
)

// classPriority orders classes from most to least specific.
var classPriority = []Class{ClassAuth, ClassNetwork, ClassQuota, ClassModel, ClassUnavailable, ClassInvalid, ClassEmpty}

var errEmptyReply = errors.New("model returned an empty reply")

// ProviderError is an HTTP-level rejection from the model provider.
type ProviderError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider returned %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("provider returned %d", e.Status)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Classify maps an attempt error to its failure class.
func Classify(err error) Class {
	var pe *ProviderError
	if errors.As(err, &pe) {
		switch {
		case pe.Status == 401 || pe.Status == 403:
			return ClassAuth
		case pe.Status == 402 || pe.Status == 429:
			return ClassQuota
		case pe.Status == 404:
			return ClassModel
		case pe.Status >= 500:
			return ClassUnavailable
		case strings.Contains(strings.ToLower(pe.Error()), "model"):
			return ClassModel
		default:
			return ClassInvalid
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ClassUnavailable
	}
	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return ClassNetwork
	}
	if errors.Is(err, errEmptyReply) {
		return ClassEmpty
	}
	// Anything the SDK could not turn into an API error never reached the provider.
	return ClassNetwork
}

type Attempt struct {
	Model string
	Class Class
	Err   error
}

// ExhaustedError is returned when every configured model failed.
type ExhaustedError struct {
	Attempts []Attempt
}

// Class is the most specific failure class among the attempts.
func (e *ExhaustedError) Class() Class {
	for _, c := range classPriority {
		for _, a := range e.Attempts {
			if a.Class == c {
				return c
			}
		}
	}
	return ClassEmpty
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %s", a.Model, a.Class))
	}
	return fmt.Sprintf("all %d generation models failed (%s): %s",
		len(e.Attempts), e.Class(), strings.Join(parts, ", "))
}

// Hint is remediation text for the end user.
func (e *ExhaustedError) Hint() string {
	return HintFor(e.Class())
}

func HintFor(c Class) string {
	switch c {
	case ClassAuth:
		return "The AI provider rejected the credential. Check that OPENAI_API_KEY is set to a valid key."
	case ClassNetwork:
		return "The AI provider could not be reached. Check outbound network access and that the API host is allowlisted."
	case ClassQuota:
		return "The AI provider quota or rate limit was exceeded. Check billing or retry later."
	case ClassModel:
		return "None of the configured models are available to this key. Adjust AI_MODELS."
	case ClassUnavailable:
		return "The AI provider is temporarily unavailable or timed out. Retry later."
	case ClassInvalid:
		return "The AI provider rejected the request as malformed."
	default:
		return "The AI provider returned no content. Retry the request."
	}
}
