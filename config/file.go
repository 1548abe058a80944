package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// LoadFile overlays the TOML file at path onto cfg.  Keys absent from
// the file leave cfg alone; unknown keys are an error so a typo does not
// silently fall back to a default.
//
//	timeout = "5s"
//	retries = 3
//
//	[tls]
//	ca_file   = "/etc/roverctl/ca.pem"
//	cert_file = "/etc/roverctl/operator.pem"
//	key_file  = "/etc/roverctl/operator-key.pem"
//
//	[drive]
//	distance = 20
//	power    = 60
func LoadFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return fmt.Errorf("config file %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return nil
}
