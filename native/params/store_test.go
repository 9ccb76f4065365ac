package params

import (
	"testing"

	"crosstrade/config"
)

type memParams map[string][]byte

func (m memParams) ParamStoreSet(name string, value []byte) error {
	m[name] = append([]byte(nil), value...)
	return nil
}

func (m memParams) ParamStoreGet(name string) ([]byte, bool, error) {
	v, ok := m[name]
	return v, ok, nil
}

func TestStorePausesRoundTrip(t *testing.T) {
	store := NewStore(memParams{})
	if store.IsPaused("escrow") {
		t.Fatalf("expected escrow unpaused by default")
	}
	if err := store.SetPauses(config.Pauses{Escrow: true}); err != nil {
		t.Fatalf("set pauses: %v", err)
	}
	if !store.IsPaused("escrow") {
		t.Fatalf("expected escrow paused")
	}
	if store.IsPaused("relay") {
		t.Fatalf("expected relay unpaused")
	}
}

func TestStoreProtocolPersisted(t *testing.T) {
	store := NewStore(memParams{})
	if _, ok, err := store.Protocol(); err != nil || ok {
		t.Fatalf("expected no protocol, ok=%v err=%v", ok, err)
	}
	protocol := config.Default().Protocol
	protocol.RewardRateBps = 250
	if err := store.SetProtocol(protocol); err != nil {
		t.Fatalf("set protocol: %v", err)
	}
	loaded, ok, err := store.Protocol()
	if err != nil || !ok {
		t.Fatalf("load protocol: ok=%v err=%v", ok, err)
	}
	if loaded.RewardRateBps != 250 {
		t.Fatalf("unexpected reward rate %d", loaded.RewardRateBps)
	}
}

func TestStoreRejectsInvalidProtocol(t *testing.T) {
	store := NewStore(memParams{})
	protocol := config.Default().Protocol
	protocol.RewardRateBps = 20_000
	if err := store.SetProtocol(protocol); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestStoreUnreadableReportsPaused(t *testing.T) {
	state := memParams{ParamsKeyPauses: []byte("{not json")}
	if !NewStore(state).IsPaused("collateral") {
		t.Fatalf("expected fail-closed pause")
	}
}

func TestNilStoreErrors(t *testing.T) {
	var store *Store
	if _, err := store.Pauses(); err == nil {
		t.Fatalf("expected error from nil store")
	}
}
