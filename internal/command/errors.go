package command

import (
	"errors"
	"fmt"

	"github.com/bagcord/bagcord-discord/internal/bags"
	"github.com/bagcord/bagcord-discord/internal/security"
	"github.com/bagcord/bagcord-discord/internal/session"
)

const genericErrorMessage = "❌ There was an error executing this command!"

// ValidationError is a malformed user input. Its message is shown verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// PolicyError is a refusal by the access policy or the denylist.
type PolicyError struct {
	Message string
}

func (e *PolicyError) Error() string {
	return e.Message
}

// CooldownError is returned while an action is still cooling down.
// Label names the cooldown for users, e.g. "Launch cooldown".
type CooldownError struct {
	Label     string
	Action    security.Action
	Remaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("%s active for %d more second(s)", e.Label, e.Remaining)
}

// SessionError wraps session.ErrNotFound, session.ErrExpired or session.ErrForbidden
// for the given session kind.
type SessionError struct {
	Kind string
	Err  error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("%s session: %s", e.Kind, e.Err.Error())
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

var sessionMessages = map[string]map[error]string{
	quoteKind: {
		session.ErrNotFound:  "❌ Quote not found or expired. Please create a new quote with `/quote`",
		session.ErrExpired:   "❌ Quote expired. Please create a new quote with `/quote`",
		session.ErrForbidden: "❌ This quote belongs to another user",
	},
	launchKind: {
		session.ErrNotFound:  "❌ Launch data not found or expired. Please start over.",
		session.ErrExpired:   "❌ Launch data expired. Please start over.",
		session.ErrForbidden: "❌ This launch belongs to another user.",
	},
}

// userMessage renders err as the text shown to the user.
func userMessage(err error) string {
	var validationErr *ValidationError
	var policyErr *PolicyError
	var cooldownErr *CooldownError
	var sessionErr *SessionError
	var remoteErr *bags.Error

	switch {
	case errors.As(err, &validationErr):
		return "❌ " + validationErr.Message

	case errors.As(err, &policyErr):
		return "❌ " + policyErr.Message

	case errors.As(err, &cooldownErr):
		return fmt.Sprintf("⏳ %s active. Please wait %s", cooldownErr.Label, security.FormatRemaining(cooldownErr.Remaining))

	case errors.As(err, &sessionErr):
		for sentinel, msg := range sessionMessages[sessionErr.Kind] {
			if errors.Is(sessionErr.Err, sentinel) {
				return msg
			}
		}
		return "❌ This session is no longer valid. Please start over."

	case errors.As(err, &remoteErr):
		if remoteErr.Message == "" {
			return "❌ Error: Unknown error"
		}
		return "❌ Error: " + remoteErr.Message

	default:
		return genericErrorMessage
	}
}

const (
	outcomeOK         = "ok"
	outcomeValidation = "validation"
	outcomePolicy     = "policy"
	outcomeCooldown   = "cooldown"
	outcomeSession    = "session"
	outcomeRemote     = "remote"
	outcomeError      = "error"
	outcomePanic      = "panic"
)

// outcome classifies err for the commands_total metric.
func outcome(err error) string {
	var validationErr *ValidationError
	var policyErr *PolicyError
	var cooldownErr *CooldownError
	var sessionErr *SessionError
	var remoteErr *bags.Error

	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &validationErr):
		return outcomeValidation
	case errors.As(err, &policyErr):
		return outcomePolicy
	case errors.As(err, &cooldownErr):
		return outcomeCooldown
	case errors.As(err, &sessionErr):
		return outcomeSession
	case errors.As(err, &remoteErr):
		return outcomeRemote
	default:
		return outcomeError
	}
}
