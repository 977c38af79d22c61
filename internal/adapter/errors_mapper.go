package adapter

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func mapHTTPError(resp *resty.Response) error {
	return mapHTTPStatus(resp.StatusCode(), resp.Body())
}

func mapHTTPStatus(code int, rawBody []byte) error {
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(rawBody))

	switch code {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrForbidden, body)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, body)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: %s", ErrInternalServerError, body)
	default:
		if body == "" {
			body = http.StatusText(code)
		}
		return fmt.Errorf("http %d: %s", code, body)
	}
}

// mapRedisError translates go-redis errors. Redis reports auth failures as
// plain error replies, so the reply prefix is the only signal available.
func mapRedisError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "NOAUTH"), strings.HasPrefix(msg, "WRONGPASS"):
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	case strings.HasPrefix(msg, "NOPERM"):
		return fmt.Errorf("%w: %v", ErrForbidden, err)
	default:
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
}

// mapPostgresError translates pgx errors by SQLSTATE. Connection failures
// that carry no SQLSTATE are network errors.
func mapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.InvalidAuthorizationSpecification, pgerrcode.InvalidPassword:
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case pgerrcode.InsufficientPrivilege:
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case pgerrcode.InvalidTextRepresentation, pgerrcode.InvalidJSONText:
			return fmt.Errorf("%w: %v", ErrBadRequest, err)
		}
		if pgerrcode.IsConnectionException(pgErr.Code) {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return fmt.Errorf("%w: %v", ErrInternalServerError, err)
	}

	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

// isEmptyNode reports whether a JSON document denotes an empty node.
func isEmptyNode(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// normalizeNode returns nil for an empty node and data otherwise.
func normalizeNode(data []byte) []byte {
	if isEmptyNode(data) {
		return nil
	}
	return data
}
