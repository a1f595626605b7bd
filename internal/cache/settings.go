package cache

import (
	"context"
	"encoding/json"

	"diorder/internal/domain"
)

const settingsKey = "settings"

// SaveSettings caches the settings singleton in the scalar area.
func (c *Cache) SaveSettings(ctx context.Context, s domain.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return &StorageError{Op: "save settings marshal", Err: err}
	}
	return c.SetValue(ctx, settingsKey, string(raw))
}

// LoadSettings reads the cached settings; ok is false when none are stored.
func (c *Cache) LoadSettings(ctx context.Context) (domain.Settings, bool, error) {
	value, ok, err := c.GetValue(ctx, settingsKey)
	if err != nil || !ok {
		return domain.Settings{}, false, err
	}
	var s domain.Settings
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return domain.Settings{}, false, &StorageError{Op: "load settings unmarshal", Err: err}
	}
	return s, true, nil
}
