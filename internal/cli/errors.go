package cli

import (
	"errors"

	"github.com/alexanderramin/fieldops/internal/apiclient"
	"github.com/alexanderramin/fieldops/internal/domain"
)

const (
	msgLogin       = "You must log in: set FIELDOPS_TOKEN to a valid token."
	msgUnreachable = "Could not reach the server. Check your connection and try again."
	msgBadPayload  = "The server sent a response the console could not read."
)

// UserMessage turns any command error into the single line shown to the
// user. Server rejections are passed through verbatim.
func UserMessage(err error) string {
	var (
		verr   *domain.ValidationError
		remote *apiclient.RemoteError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, apiclient.ErrUnauthenticated):
		return msgLogin
	case errors.As(err, &remote):
		return remote.Message
	case errors.Is(err, apiclient.ErrTransport):
		return msgUnreachable
	case errors.Is(err, apiclient.ErrInvalidPayload):
		return msgBadPayload
	default:
		return err.Error()
	}
}
