package domain

// AccountIndex resolves raw value keys to accounts within one template's
// account set. Codes take precedence over short aliases.
type AccountIndex struct {
	byCode  map[string]*Account
	byShort map[string]*Account
}

// NewAccountIndex builds an index over a template's accounts.
func NewAccountIndex(accounts []*Account) *AccountIndex {
	idx := &AccountIndex{
		byCode:  make(map[string]*Account, len(accounts)),
		byShort: make(map[string]*Account),
	}
	for _, a := range accounts {
		if a.Code != "" {
			idx.byCode[a.Code] = a
		}
		if a.Short != "" {
			idx.byShort[a.Short] = a
		}
	}
	return idx
}

// Resolve finds an account by exact code match, falling back to a short
// alias match. Returns nil when the key matches neither.
func (idx *AccountIndex) Resolve(key string) *Account {
	if a, ok := idx.byCode[key]; ok {
		return a
	}
	if a, ok := idx.byShort[key]; ok {
		return a
	}
	return nil
}
