package sqlitestorage

// WithDSN points the backend at a private in-memory database.
func (b *Backend) WithDSN(dsn string) *Backend {
	b.dsn = dsn
	return b
}
