package lock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriterLock_LockUnlock(t *testing.T) {
	lock := NewWriterLock(t.TempDir())

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}

	if _, err := os.Stat(lock.Path()); os.IsNotExist(err) {
		t.Error("Lock file was not created")
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
}

func TestWriterLock_UnlockWithoutLock(t *testing.T) {
	lock := NewWriterLock(t.TempDir())

	if err := lock.Unlock(); err != nil {
		t.Errorf("Unlock() without Lock() should not error: %v", err)
	}
}

func TestWriterLock_DoubleUnlock(t *testing.T) {
	lock := NewWriterLock(t.TempDir())

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("First Unlock() failed: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Errorf("Second Unlock() should not error: %v", err)
	}
}

func TestWriterLock_TryLock_AlreadyLocked(t *testing.T) {
	dir := t.TempDir()

	lock1 := NewWriterLock(dir)
	if err := lock1.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	defer func() { _ = lock1.Unlock() }()

	lock2 := NewWriterLock(dir)
	acquired, err := lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock() error: %v", err)
	}
	if acquired {
		t.Error("TryLock() should return false when lock is held")
		_ = lock2.Unlock()
	}
	if lock2.IsLocked() {
		t.Error("Failed TryLock() should not mark lock as locked")
	}
}

func TestWriterLock_Path(t *testing.T) {
	lock := NewWriterLock("/data/root")

	expected := filepath.Join("/data/root", ".writer.lock")
	if lock.Path() != expected {
		t.Errorf("Path() = %q, want %q", lock.Path(), expected)
	}
}

func TestWriterLock_CreatesDirectory(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "data", "raw")

	lock := NewWriterLock(nested)
	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed to create directory: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Error("Lock() did not create the data root")
	}
}

func TestWriterLock_IsLocked(t *testing.T) {
	lock := NewWriterLock(t.TempDir())

	if lock.IsLocked() {
		t.Error("New lock should not be locked")
	}

	if err := lock.Lock(); err != nil {
		t.Fatalf("Lock() failed: %v", err)
	}
	if !lock.IsLocked() {
		t.Error("Lock should be locked after Lock()")
	}

	if err := lock.Unlock(); err != nil {
		t.Fatalf("Unlock() failed: %v", err)
	}
	if lock.IsLocked() {
		t.Error("Lock should not be locked after Unlock()")
	}
}
