package browser

import (
	"encoding/json"
	"fmt"
	"sort"
)

// StorageState is the persisted form of a browsing context: the same JSON
// shape Playwright reads and writes, so sessions stay portable between the
// playwright and rod engines.
type StorageState struct {
	Cookies []StorageCookie `json:"cookies"`
	Origins []StorageOrigin `json:"origins"`
}

// StorageCookie is one persisted cookie. Expires is a unix timestamp in
// seconds, or -1 for a session cookie.
type StorageCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"httpOnly"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"sameSite"`
}

// StorageOrigin holds the local storage of one origin.
type StorageOrigin struct {
	Origin       string         `json:"origin"`
	LocalStorage []StorageEntry `json:"localStorage"`
}

// StorageEntry is one local storage item.
type StorageEntry struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ParseStorageState decodes a storage-state blob. An empty blob yields an
// empty state.
func ParseStorageState(blob []byte) (*StorageState, error) {
	state := &StorageState{}
	if len(blob) == 0 {
		return state, nil
	}
	if err := json.Unmarshal(blob, state); err != nil {
		return nil, fmt.Errorf("failed to decode storage state: %w", err)
	}
	return state, nil
}

// Marshal encodes the state with stable indentation.
func (s *StorageState) Marshal() ([]byte, error) {
	if s.Cookies == nil {
		s.Cookies = []StorageCookie{}
	}
	if s.Origins == nil {
		s.Origins = []StorageOrigin{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode storage state: %w", err)
	}
	return data, nil
}

// SetOrigin replaces the local storage recorded for origin, keeping the
// origins sorted so exports are deterministic.
func (s *StorageState) SetOrigin(origin string, entries []StorageEntry) {
	for i := range s.Origins {
		if s.Origins[i].Origin == origin {
			s.Origins[i].LocalStorage = entries
			return
		}
	}
	s.Origins = append(s.Origins, StorageOrigin{Origin: origin, LocalStorage: entries})
	sort.Slice(s.Origins, func(i, j int) bool {
		return s.Origins[i].Origin < s.Origins[j].Origin
	})
}
