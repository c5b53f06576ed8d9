// Package repo implements the domain repositories on top of the sqlinline
// statements and an infra.SQLExecutor.
package repo

import (
	"encoding/json"
	"errors"
	"fmt"

	"wathaci/internal/domain"
	"wathaci/internal/infra"
)

// mapErr translates driver errors into domain sentinels.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case infra.IsNoRows(err):
		return domain.ErrNotFound
	case infra.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", domain.ErrConflict, err)
	default:
		return err
	}
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte(`{}`), nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return b, nil
}

func unmarshalJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode json column: %w", err)
	}
	return nil
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

var errNilEntity = errors.New("repo: nil entity")
