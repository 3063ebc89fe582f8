package types

import (
	"context"
	"encoding/json"
)

// Setting is one named value of the settings collection.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

func (s *Setting) RecordID() string   { return s.Key }
func (s *Setting) Collection() string { return CollectionSettings }

func (s *Setting) Validate() error {
	return requireField("key", s.Key)
}

// Well-known setting keys.
const (
	SettingMonthlyBudget = "monthlyBudget"
)

// SettingAs reads a setting and converts it to T. Like GetSetting it falls
// back to def when the key is absent or the value does not fit T.
func SettingAs[T any](ctx context.Context, s Store, key string, def T) T {
	raw := s.GetSetting(ctx, key, nil)
	if raw == nil {
		return def
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return def
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		return def
	}
	return out
}
