package mongostore

import (
	"errors"

	"github.com/google/uuid"
)

var ErrMalformedDocument = errors.New("malformed enrollment document")

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.Join(ErrMalformedDocument, err)
	}
	return id, nil
}
