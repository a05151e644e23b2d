package usecase

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/riskibarqy/fantasy-companion/internal/domain/account"
	"github.com/riskibarqy/fantasy-companion/internal/platform/logging"
	accountmock "github.com/riskibarqy/fantasy-companion/internal/mocks/domain/account"
	"github.com/stretchr/testify/mock"
)

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string   { return "upstream status " + e.body }
func (e *statusError) HTTPStatus() int { return e.status }

func TestAccountValidationService_Success(t *testing.T) {
	t.Parallel()

	directory := accountmock.NewDirectory(t)
	directory.
		On("LookupUser", mock.Anything, "gridiron_guru").
		Return(account.UpstreamUser{UserID: "738211", Username: "gridiron_guru"}, nil).
		Once()

	service := NewAccountValidationService(directory, logging.NewNop())
	user, err := service.Validate(context.Background(), "  gridiron_guru ")
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if user.UserID != "738211" || user.Username != "gridiron_guru" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestAccountValidationService_NotFoundHidesDetails(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	directory := accountmock.NewDirectory(t)
	directory.
		On("LookupUser", mock.Anything, "nonexistent_user").
		Return(account.UpstreamUser{}, &statusError{status: 404, body: "sleeper internal trace xyz"}).
		Once()

	service := NewAccountValidationService(directory, logging.NewJSONWriter(&logs, logging.LevelDebug))
	_, err := service.Validate(context.Background(), "nonexistent_user")

	var failure *ValidationFailure
	if !errors.As(err, &failure) {
		t.Fatalf("expected ValidationFailure, got %T %v", err, err)
	}
	if !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed in chain")
	}
	if err.Error() != UsernameNotFoundMessage {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if strings.Contains(err.Error(), "404") || strings.Contains(err.Error(), "xyz") {
		t.Fatalf("internal detail leaked: %q", err.Error())
	}
	if !strings.Contains(logs.String(), `"status":404`) {
		t.Fatalf("expected status in logs, got %s", logs.String())
	}
}

func TestAccountValidationService_EveryFailureLooksTheSame(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		user account.UpstreamUser
		err  error
	}{
		"transport":       {err: errors.New("dial tcp: i/o timeout")},
		"server error":    {err: &statusError{status: 503, body: "unavailable"}},
		"missing user_id": {user: account.UpstreamUser{Username: "ghost"}},
	}

	for name, tc := range cases {
		directory := accountmock.NewDirectory(t)
		directory.On("LookupUser", mock.Anything, "ghost").Return(tc.user, tc.err).Once()

		service := NewAccountValidationService(directory, logging.NewNop())
		_, err := service.Validate(context.Background(), "ghost")
		if err == nil || err.Error() != UsernameNotFoundMessage {
			t.Fatalf("%s: expected generic failure, got %v", name, err)
		}
	}
}

func TestAccountValidationService_EmptyUsernameSkipsLookup(t *testing.T) {
	t.Parallel()

	directory := accountmock.NewDirectory(t)
	service := NewAccountValidationService(directory, logging.NewNop())

	if _, err := service.Validate(context.Background(), "   "); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
	directory.AssertNotCalled(t, "LookupUser", mock.Anything, mock.Anything)
}
