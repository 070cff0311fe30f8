package gridstore

// Close waits for any outstanding background save and returns its error.
// The dataset stays usable afterwards; Close exists so callers can flush
// with a defer.
func (d *Dataset) Close() error {
	return d.WaitForSaveToFinish()
}
