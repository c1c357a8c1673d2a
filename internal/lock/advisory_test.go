// Package lock provides MySQL advisory locking functionality for GoPipeline.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// ============================================================================
// Test Configuration and Helpers
// ============================================================================

// getTestDSN returns the DSN for the test MySQL server
// Uses environment variables or defaults to local test server
func getTestDSN() string {
	host := getEnv("TEST_MYSQL_HOST", "127.0.0.1")
	port := getEnv("TEST_MYSQL_PORT", "3306")
	user := getEnv("TEST_MYSQL_USER", "root")
	pass := getEnv("TEST_MYSQL_PASS", "")

	return fmt.Sprintf("%s:%s@tcp(%s:%s)/?parseTime=true&multiStatements=true", user, pass, host, port)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// connectToTestDB establishes a connection to the test MySQL server
func connectToTestDB(t *testing.T) *sql.DB {
	dsn := getTestDSN()
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("Failed to open database connection: %v", err)
	}

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		t.Skipf("MySQL test server not available: %v", err)
	}

	return db
}

// generateUniqueLockName creates a unique lock name for test isolation
// MySQL limits lock names to 64 characters, so we keep these short
func generateUniqueLockName(t *testing.T) string {
	testName := t.Name()
	if len(testName) > 15 {
		testName = testName[:15]
	}
	return fmt.Sprintf("t_%s_%d", testName, time.Now().UnixNano()%1000000)
}

// isLockFree checks if a lock is currently free
func isLockFree(db *sql.DB, lockName string) (bool, error) {
	var result sql.NullInt64
	err := db.QueryRow("SELECT IS_FREE_LOCK(?)", lockName).Scan(&result)
	if err != nil {
		return false, err
	}
	if !result.Valid {
		return false, fmt.Errorf("IS_FREE_LOCK returned NULL")
	}
	return result.Int64 == 1, nil
}

// ============================================================================
// Constructor Tests
// ============================================================================

func TestNewAdvisoryLock(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lockName := "test_constructor_lock"
	lock := NewAdvisoryLock(db, lockName)

	if lock == nil {
		t.Fatal("NewAdvisoryLock returned nil")
	}

	if lock.db != db {
		t.Error("Lock should store database connection")
	}

	if lock.lockName != lockName {
		t.Errorf("Lock name mismatch: got %q, expected %q", lock.lockName, lockName)
	}

	if lock.held {
		t.Error("New lock should not be marked as held")
	}
}

// ============================================================================
// Lock Acquisition and Release Tests
// ============================================================================

func TestAdvisoryLock_AcquireRelease(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lockName := generateUniqueLockName(t)
	lock := NewAdvisoryLock(db, lockName)
	ctx := context.Background()

	acquired, err := lock.AcquireLock(ctx, 5)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("Expected to acquire lock")
	}
	if !lock.IsHeld() {
		t.Error("Lock should be held after acquisition")
	}

	released, err := lock.ReleaseLock(ctx)
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if !released {
		t.Error("Expected ReleaseLock to return true")
	}
	if lock.IsHeld() {
		t.Error("Lock should not be held after release")
	}

	free, err := isLockFree(db, lockName)
	if err != nil {
		t.Fatalf("isLockFree failed: %v", err)
	}
	if !free {
		t.Error("Lock should be free after release")
	}
}

func TestAdvisoryLock_AcquireTwiceIsIdempotent(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lockName := generateUniqueLockName(t)
	lock := NewAdvisoryLock(db, lockName)
	ctx := context.Background()

	if _, err := lock.AcquireLock(ctx, 5); err != nil {
		t.Fatalf("First AcquireLock failed: %v", err)
	}
	defer lock.ReleaseLock(ctx)

	// Second acquisition on the same instance should short-circuit
	acquired, err := lock.AcquireLock(ctx, 5)
	if err != nil {
		t.Fatalf("Second AcquireLock failed: %v", err)
	}
	if !acquired {
		t.Error("Second AcquireLock should report held")
	}
}

func TestAdvisoryLock_ContentionTimesOut(t *testing.T) {
	db1 := connectToTestDB(t)
	defer db1.Close()
	db2 := connectToTestDB(t)
	defer db2.Close()

	// Advisory locks are per-connection; pin each lock to one connection
	db1.SetMaxOpenConns(1)
	db2.SetMaxOpenConns(1)

	lockName := generateUniqueLockName(t)
	ctx := context.Background()

	first := NewAdvisoryLock(db1, lockName)
	acquired, err := first.AcquireLock(ctx, 5)
	if err != nil || !acquired {
		t.Fatalf("First instance could not acquire lock: acquired=%v err=%v", acquired, err)
	}
	defer first.ReleaseLock(ctx)

	second := NewAdvisoryLock(db2, lockName)
	acquired, err = second.AcquireLock(ctx, TimeoutImmediate)
	if err != nil {
		t.Fatalf("Second AcquireLock failed: %v", err)
	}
	if acquired {
		t.Error("Second instance should not acquire a held lock")
	}
}

func TestAdvisoryLock_ReleaseWithoutAcquire(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lock := NewAdvisoryLock(db, generateUniqueLockName(t))

	released, err := lock.ReleaseLock(context.Background())
	if err != nil {
		t.Fatalf("ReleaseLock failed: %v", err)
	}
	if released {
		t.Error("ReleaseLock should return false when lock was never acquired")
	}
}

func TestAdvisoryLock_AcquireOrFail(t *testing.T) {
	db1 := connectToTestDB(t)
	defer db1.Close()
	db2 := connectToTestDB(t)
	defer db2.Close()

	db1.SetMaxOpenConns(1)
	db2.SetMaxOpenConns(1)

	lockName := generateUniqueLockName(t)
	ctx := context.Background()

	first := NewAdvisoryLock(db1, lockName)
	if err := first.AcquireOrFail(ctx); err != nil {
		t.Fatalf("First AcquireOrFail failed: %v", err)
	}
	defer first.ReleaseLock(ctx)

	second := NewAdvisoryLock(db2, lockName)
	err := second.AcquireOrFail(ctx)
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("Expected ErrLockTimeout, got %v", err)
	}
}

// ============================================================================
// WithLock Tests
// ============================================================================

func TestWithLock_ReleasesAfterFunction(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lockName := generateUniqueLockName(t)
	lock := NewAdvisoryLock(db, lockName)

	executed := false
	err := lock.WithLock(context.Background(), TimeoutShort, func() error {
		executed = true
		if !lock.IsHeld() {
			t.Error("Lock should be held inside the function")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLock failed: %v", err)
	}
	if !executed {
		t.Error("Function was not executed")
	}
	if lock.IsHeld() {
		t.Error("Lock should be released after WithLock returns")
	}
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lockName := generateUniqueLockName(t)
	lock := NewAdvisoryLock(db, lockName)

	wantErr := errors.New("load failed")
	err := lock.WithLock(context.Background(), TimeoutShort, func() error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("WithLock should return the function error, got %v", err)
	}
	if lock.IsHeld() {
		t.Error("Lock should be released after function error")
	}
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	db := connectToTestDB(t)
	defer db.Close()

	lockName := generateUniqueLockName(t)
	lock := NewAdvisoryLock(db, lockName)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("Expected panic to propagate")
			}
		}()
		lock.WithLock(context.Background(), TimeoutShort, func() error {
			panic("boom")
		})
	}()

	if lock.IsHeld() {
		t.Error("Lock should be released after panic")
	}

	free, err := isLockFree(db, lockName)
	if err != nil {
		t.Fatalf("isLockFree failed: %v", err)
	}
	if !free {
		t.Error("Lock should be free in MySQL after panic")
	}
}

// ============================================================================
// IsLoadRunning Tests
// ============================================================================

func TestIsLoadRunning(t *testing.T) {
	db1 := connectToTestDB(t)
	defer db1.Close()
	db2 := connectToTestDB(t)
	defer db2.Close()

	db1.SetMaxOpenConns(1)
	db2.SetMaxOpenConns(1)

	table := fmt.Sprintf("t%d", time.Now().UnixNano()%1000000)
	ctx := context.Background()

	running, err := IsLoadRunning(ctx, db1, table)
	if err != nil {
		t.Fatalf("IsLoadRunning failed: %v", err)
	}
	if running {
		t.Error("No load should be running initially")
	}

	lock := NewLoadLock(db1, table)
	if err := lock.AcquireOrFail(ctx); err != nil {
		t.Fatalf("Failed to acquire load lock: %v", err)
	}
	defer lock.ReleaseLock(ctx)

	running, err = IsLoadRunning(ctx, db2, table)
	if err != nil {
		t.Fatalf("IsLoadRunning failed: %v", err)
	}
	if !running {
		t.Error("Load should be reported as running while lock is held")
	}
}
