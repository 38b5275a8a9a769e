package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Role modes for choosing the anchor and orbiter markers.
const (
	RolesPositional = "positional"
	RolesByID       = "id"
)

// ViewConfig is the part of the pipeline the viewer may change at runtime.
type ViewConfig struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Undistort bool   `json:"undistort"`
	RoleMode  string `json:"role_mode"`
	AnchorID  int    `json:"anchor_id"`
	OrbiterID int    `json:"orbiter_id"`
}

// Validate checks if the view values are usable.
func (v *ViewConfig) Validate() []string {
	var errors []string

	if v.Width < 16 || v.Width > MaxWidth {
		errors = append(errors, "width must be between 16 and 4096")
	}
	if v.Height < 16 || v.Height > MaxHeight {
		errors = append(errors, "height must be between 16 and 2160")
	}
	if v.RoleMode != RolesPositional && v.RoleMode != RolesByID {
		errors = append(errors, "role_mode must be positional or id")
	}
	if v.RoleMode == RolesByID && v.AnchorID == v.OrbiterID {
		errors = append(errors, "anchor_id and orbiter_id must differ")
	}

	return errors
}

// Manager holds the current view configuration and handles updates.
type Manager struct {
	config ViewConfig
	mu     sync.RWMutex

	// Callback when config changes (for applying to the compositor)
	OnConfigChange func(cfg ViewConfig) error
}

// NewManager creates a new manager starting from cfg.
func NewManager(cfg ViewConfig) *Manager {
	return &Manager{
		config: cfg,
	}
}

// GetConfig returns the current view configuration.
func (m *Manager) GetConfig() ViewConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg, then notifies OnConfigChange.
func (m *Manager) SetConfig(cfg ViewConfig) error {
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// Store records cfg as the current configuration without validating it or
// notifying OnConfigChange. Use it to report what was actually applied.
func (m *Manager) Store(cfg ViewConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = cfg
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values, as decoded from a JSON body.
// A "preset" key sets width and height from a capture preset first.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg.Width = preset.Width
		cfg.Height = preset.Height
		delete(params, "preset")
	}

	for key, value := range params {
		switch key {
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "undistort":
			if v, ok := value.(bool); ok {
				cfg.Undistort = v
			}
		case "role_mode":
			if v, ok := value.(string); ok {
				cfg.RoleMode = v
			}
		case "anchor_id":
			if v, ok := toInt(value); ok {
				cfg.AnchorID = v
			}
		case "orbiter_id":
			if v, ok := toInt(value); ok {
				cfg.OrbiterID = v
			}
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
