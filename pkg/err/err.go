package errprocess

import (
	"errors"

	"ephemeral_chat/pkg/logger"
)

// Set logs the error message and returns it as an error value.
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}
