package main

import (
	"errors"

	"github.com/biotel/biotel/internal/transport"
)

// FormatUserError turns internal errors into a message suitable for the
// terminal. Transport failures carry the failed operation; everything
// else is printed as-is.
func FormatUserError(err error) string {
	var te *transport.Error
	if errors.As(err, &te) {
		switch te.Op {
		case transport.OpConnect:
			return "could not connect to the sensor: " + te.Err.Error()
		case transport.OpDiscover:
			return "connected, but service discovery failed: " + te.Err.Error()
		case transport.OpWrite:
			return "sending a command to the sensor failed: " + te.Err.Error()
		case transport.OpSubscribe:
			return "subscribing to sensor telemetry failed: " + te.Err.Error()
		}
	}
	return err.Error()
}
