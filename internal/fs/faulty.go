package fs

import (
	"errors"
	"os"
	"strings"
	"sync"
)

// ErrInjected is the default error produced by FaultyFS.
var ErrInjected = errors.New("injected fault")

// Fault describes when a matched operation fails.
type Fault struct {
	FailWrite bool
	FailMkdir bool
	FailRead  bool
	Err       error // defaults to ErrInjected
}

// FaultyFS wraps a FileSystem and injects errors for file names matching
// registered substring patterns. It is a test utility.
type FaultyFS struct {
	FS FileSystem

	mu    sync.Mutex
	rules map[string]Fault

	// Writes counts WriteFile calls that reached the inner FS.
	Writes int
}

// NewFaultyFS wraps fsys (Default if nil).
func NewFaultyFS(fsys FileSystem) *FaultyFS {
	if fsys == nil {
		fsys = Default
	}
	return &FaultyFS{FS: fsys, rules: make(map[string]Fault)}
}

// AddRule registers a fault for file names containing pattern.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if fault.Err == nil {
		fault.Err = ErrInjected
	}
	f.rules[pattern] = fault
}

// ClearRules removes all fault rules.
func (f *FaultyFS) ClearRules() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules = make(map[string]Fault)
}

// WriteCount returns the number of successful writes so far.
func (f *FaultyFS) WriteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Writes
}

func (f *FaultyFS) match(name string) (Fault, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pattern, fault := range f.rules {
		if strings.Contains(name, pattern) {
			return fault, true
		}
	}
	return Fault{}, false
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	if fault, ok := f.match(name); ok && fault.FailWrite && flag&(os.O_WRONLY|os.O_RDWR) != 0 {
		return nil, fault.Err
	}
	return f.FS.OpenFile(name, flag, perm)
}

func (f *FaultyFS) WriteFile(name string, data []byte, perm os.FileMode) error {
	if fault, ok := f.match(name); ok && fault.FailWrite {
		return fault.Err
	}
	err := f.FS.WriteFile(name, data, perm)
	if err == nil {
		f.mu.Lock()
		f.Writes++
		f.mu.Unlock()
	}
	return err
}

func (f *FaultyFS) ReadFile(name string) ([]byte, error) {
	if fault, ok := f.match(name); ok && fault.FailRead {
		return nil, fault.Err
	}
	return f.FS.ReadFile(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	if fault, ok := f.match(path); ok && fault.FailMkdir {
		return fault.Err
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultyFS) RemoveAll(path string) error {
	return f.FS.RemoveAll(path)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) ReadDir(name string) ([]os.DirEntry, error) {
	return f.FS.ReadDir(name)
}
