package params

import (
	"bytes"
	"encoding/json"
	"fmt"

	"crosstrade/config"
)

// StoreState captures the subset of state manager capabilities required by the
// parameter helpers.
type StoreState interface {
	ParamStoreSet(name string, value []byte) error
	ParamStoreGet(name string) ([]byte, bool, error)
}

// Store provides typed accessors for persisted parameters.
type Store struct {
	state StoreState
}

// NewStore constructs a parameter store wrapper using the supplied state
// backend.
func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("params: state not configured")
	}
	return s.state, nil
}

func (s *Store) put(key string, value interface{}) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("params: encode %s: %w", key, err)
	}
	return state.ParamStoreSet(key, encoded)
}

func (s *Store) load(key string, out interface{}) (bool, error) {
	state, err := s.withState()
	if err != nil {
		return false, err
	}
	raw, ok, err := state.ParamStoreGet(key)
	if err != nil {
		return false, err
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("params: decode %s: %w", key, err)
	}
	return true, nil
}

// SetPauses persists the supplied pause configuration.
func (s *Store) SetPauses(pauses config.Pauses) error {
	return s.put(ParamsKeyPauses, pauses)
}

// Pauses loads the persisted pause configuration. When unset, a zero-value
// configuration is returned.
func (s *Store) Pauses() (config.Pauses, error) {
	var pauses config.Pauses
	if _, err := s.load(ParamsKeyPauses, &pauses); err != nil {
		return config.Pauses{}, err
	}
	return pauses, nil
}

// IsPaused reports whether module is paused in the persisted configuration.
// A store that cannot be read reports every module as paused.
func (s *Store) IsPaused(module string) bool {
	pauses, err := s.Pauses()
	if err != nil {
		return true
	}
	return pauses.IsPaused(module)
}

// SetProtocol persists the protocol parameters.
func (s *Store) SetProtocol(protocol config.Protocol) error {
	if err := protocol.Validate(); err != nil {
		return err
	}
	return s.put(ParamsKeyProtocol, protocol)
}

// Protocol loads the persisted protocol parameters. The boolean reports
// whether any were stored.
func (s *Store) Protocol() (config.Protocol, bool, error) {
	var protocol config.Protocol
	ok, err := s.load(ParamsKeyProtocol, &protocol)
	if err != nil {
		return config.Protocol{}, false, err
	}
	return protocol, ok, nil
}
