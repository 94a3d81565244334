package wvgo

// Close releases the vector memory reserved from the resource controller
// configured with WithResourceController. The store remains usable, and
// calling Close again is a no-op.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.opts.resource.ReleaseMemory(s.reserved)
	s.reserved = 0
	return nil
}
