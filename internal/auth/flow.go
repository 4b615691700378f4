// Package auth issues confirmation codes and trades them for session tokens.
package auth

import (
	"context"
	"errors"

	"yamdb/internal/apperr"
	"yamdb/internal/metrics"
	"yamdb/internal/models"
	"yamdb/internal/store"

	"github.com/rs/zerolog/log"
)

// Mailer delivers a confirmation code to an account's address.
type Mailer interface {
	SendConfirmationCode(ctx context.Context, to, username, code string) error
}

// Flow runs signup and token exchange against the account store.
type Flow struct {
	accounts store.AccountStore
	tokens   *TokenManager
	mailer   Mailer

	generate func() (string, error)
}

func NewFlow(accounts store.AccountStore, tokens *TokenManager, mailer Mailer) *Flow {
	return &Flow{
		accounts: accounts,
		tokens:   tokens,
		mailer:   mailer,
		generate: GenerateCode,
	}
}

// Signup creates the account on first contact or re-issues a code when the
// exact (username, email) pair already exists. A pair that only half matches
// an existing account is rejected without touching it.
func (f *Flow) Signup(ctx context.Context, username, email string) (*models.User, error) {
	matches, err := f.accounts.FindUsers(ctx, username, email)
	if err != nil {
		return nil, err
	}

	var user *models.User
	result := metrics.SignupResent
	switch {
	case len(matches) == 0:
		user = &models.User{Username: username, Email: email, Role: models.RoleUser}
		if err := f.accounts.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrConflict) {
				// Lost a race with a concurrent signup for the same handle or address.
				metrics.RecordSignup(metrics.SignupRejected)
				return nil, apperr.Validation("username or email is already in use")
			}
			return nil, err
		}
		result = metrics.SignupCreated
	case len(matches) == 1 && matches[0].Username == username && matches[0].Email == email:
		user = &matches[0]
	default:
		metrics.RecordSignup(metrics.SignupRejected)
		return nil, collision(matches, username, email)
	}

	if err := f.issueCode(ctx, user); err != nil {
		return nil, err
	}
	metrics.RecordSignup(result)
	log.Info().Str("username", user.Username).Str("result", result).Msg("confirmation code issued")
	return user, nil
}

func collision(matches []models.User, username, email string) error {
	fields := map[string][]string{}
	for _, m := range matches {
		if m.Username == username && m.Email != email {
			fields["username"] = []string{"a user with this username is registered with a different email"}
		}
		if m.Email == email && m.Username != username {
			fields["email"] = []string{"a user with this email is registered with a different username"}
		}
	}
	if len(fields) == 0 {
		return apperr.Validation("username or email is already in use")
	}
	return apperr.FieldErrors(fields)
}

func (f *Flow) issueCode(ctx context.Context, user *models.User) error {
	code, err := f.generate()
	if err != nil {
		return err
	}
	hash, err := HashCode(code)
	if err != nil {
		return err
	}
	if err := f.accounts.SetConfirmationCode(ctx, user.ID, hash); err != nil {
		return err
	}
	user.ConfirmationCode = hash
	return f.mailer.SendConfirmationCode(ctx, user.Email, user.Username, code)
}

// Exchange checks the code and returns a session token. A used code is
// cleared so it cannot be replayed.
func (f *Flow) Exchange(ctx context.Context, username, code string) (string, error) {
	user, err := f.accounts.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		metrics.RecordTokenExchange(metrics.TokenRejected)
		return "", apperr.NotFound("user not found")
	}
	if err != nil {
		return "", err
	}

	ok, err := CheckCode(user.ConfirmationCode, code)
	if err != nil {
		return "", err
	}
	if !ok {
		metrics.RecordTokenExchange(metrics.TokenRejected)
		return "", apperr.Field("confirmation_code", "invalid confirmation code")
	}

	token, err := f.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return "", err
	}
	if err := f.accounts.SetConfirmationCode(ctx, user.ID, ""); err != nil {
		return "", err
	}
	metrics.RecordTokenExchange(metrics.TokenIssued)
	return token, nil
}
