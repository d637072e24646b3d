package dataprofile

import (
	"encoding/json"
	"fmt"
	"io"
)

// LoadApnConfig decodes a JSON array of provisioning records and builds one
// ApnSetting per record. Unknown fields are rejected.
func LoadApnConfig(r io.Reader, opts ...Option) ([]*ApnSetting, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var cfgs []ApnConfig
	if err := dec.Decode(&cfgs); err != nil {
		return nil, fmt.Errorf("decode apn config: %w", err)
	}

	settings := make([]*ApnSetting, 0, len(cfgs))
	for i, cfg := range cfgs {
		if cfg.APN == "" {
			return nil, fmt.Errorf("apn config entry %d: empty apn", i)
		}
		settings = append(settings, NewApnSetting(cfg, opts...))
	}
	return settings, nil
}
