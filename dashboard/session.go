package dashboard

// StoreSession reports the authenticated store.
type StoreSession interface {
	StoreID() (string, bool)
}

func currentStore(s StoreSession) (string, error) {
	id, ok := s.StoreID()
	if !ok || id == "" {
		return "", ErrNotAuthenticated
	}
	return id, nil
}
