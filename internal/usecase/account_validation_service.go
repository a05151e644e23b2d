package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/riskibarqy/fantasy-companion/internal/domain/account"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
)

// UsernameNotFoundMessage is the only text a caller ever sees when a
// username check fails, whatever the underlying cause.
const UsernameNotFoundMessage = "username does not exist"

// ValidationFailure is the opaque, user-facing result of a failed check.
type ValidationFailure struct {
	Field   string
	Message string
}

func (e *ValidationFailure) Error() string {
	return e.Message
}

func (e *ValidationFailure) Unwrap() error {
	return ErrValidationFailed
}

type statusCoder interface {
	HTTPStatus() int
}

type AccountValidationService struct {
	directory account.Directory
	logger    *logging.Logger
}

func NewAccountValidationService(directory account.Directory, logger *logging.Logger) *AccountValidationService {
	return &AccountValidationService{
		directory: directory,
		logger:    logging.OrDefault(logger),
	}
}

// Validate confirms username exists upstream and returns its identity.
func (s *AccountValidationService) Validate(ctx context.Context, username string) (account.UpstreamUser, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AccountValidationService.Validate")
	defer span.End()

	username = strings.TrimSpace(username)
	if username == "" {
		s.logger.InfoContext(ctx, "username validation rejected empty input")
		return account.UpstreamUser{}, newUsernameFailure()
	}

	user, err := s.directory.LookupUser(ctx, username)
	if err == nil && strings.TrimSpace(user.UserID) == "" {
		err = errors.New("upstream user has no user_id")
	}
	if err != nil {
		args := []any{"username", username, "error", err}
		var coder statusCoder
		if errors.As(err, &coder) {
			args = append(args, "status", coder.HTTPStatus())
		}
		s.logger.WarnContext(ctx, "username validation failed", args...)
		return account.UpstreamUser{}, newUsernameFailure()
	}

	if strings.TrimSpace(user.Username) == "" {
		user.Username = username
	}
	return user, nil
}

func newUsernameFailure() *ValidationFailure {
	return &ValidationFailure{Field: "username", Message: UsernameNotFoundMessage}
}
