package database

import (
	"database/sql/driver"
	"encoding/json"

	"golang.org/x/xerrors"
)

// Supply is one consumable as last reported by an agent. Level and Max are
// nil when the agent did not report a usable number.
type Supply struct {
	Name  string   `json:"name"`
	Level *float64 `json:"level"`
	Max   *float64 `json:"max,omitempty"`
}

// Percent returns the fill level in the range 0..100. When Max is unknown or
// non-positive the level is taken as an absolute percentage. The second
// return is false when no level was reported.
func (s Supply) Percent() (float64, bool) {
	if s.Level == nil {
		return 0, false
	}
	pct := *s.Level
	if s.Max != nil && *s.Max > 0 {
		pct = *s.Level / *s.Max * 100
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, true
}

// Supplies is an ordered list of consumables stored as a JSON array.
type Supplies []Supply

func (s *Supplies) Scan(src interface{}) error {
	if src == nil {
		*s = Supplies{}
		return nil
	}
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), s)
	case []byte:
		return json.Unmarshal(v, s)
	}
	return xerrors.Errorf("unexpected type %T", src)
}

func (s Supplies) Value() (driver.Value, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}
