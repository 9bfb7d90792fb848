package secretstore

import "sync"

// MemoryStore is an in-process Store used by tests and by any caller
// that wants to run the vault engine without a real OS credential
// store available (e.g. headless CI).
type MemoryStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryStore returns an empty in-memory Store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (s *MemoryStore) StoreSecret(vaultID string, slot Slot, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := account(vaultID, slot)
	delete(s.data, key)
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

func (s *MemoryStore) RetrieveSecret(vaultID string, slot Slot, authCtx *AuthContext) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := account(vaultID, slot)
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, nil
}

func (s *MemoryStore) DeleteSecret(vaultID string, slot Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, account(vaultID, slot))
	return nil
}

func (s *MemoryStore) DeleteAll(vaultID string) error {
	for _, slot := range []Slot{SlotMasterKey, SlotSalt, SlotWrappedMasterKey} {
		if err := s.DeleteSecret(vaultID, slot); err != nil {
			return err
		}
	}
	return nil
}
