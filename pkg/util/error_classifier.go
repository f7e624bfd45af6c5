package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/textproto"
	"strings"
)

// IsRetryableError classifies a delivery error. It returns whether a retry
// could succeed and a short label for logs and metrics.
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// SMTP replies: 4xx transient, 5xx permanent.
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		if protoErr.Code >= 400 && protoErr.Code < 500 {
			return true, "smtp_transient"
		}
		return false, "smtp_rejected"
	}

	// go-mail send errors report temporariness themselves.
	var tempErr interface{ IsTemp() bool }
	if errors.As(err, &tempErr) {
		if tempErr.IsTemp() {
			return true, "smtp_transient"
		}
		return false, "smtp_rejected"
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true, "network_error"
	}

	if strings.Contains(err.Error(), "connection refused") || strings.Contains(err.Error(), "connection reset") {
		return true, "network_error"
	}

	return false, "unknown_error"
}
