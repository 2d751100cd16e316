package cache

import (
	"testing"
	"time"
)

func TestUserCache_GetSet(t *testing.T) {
	c := NewUserCache[[]byte](2, time.Minute)

	c.Set("u1", "trend", []byte("a"))
	c.Set("u1", "categories", []byte("b"))

	if got, ok := c.Get("u1", "trend"); !ok || string(got) != "a" {
		t.Fatalf("Get() = %q, %v", got, ok)
	}

	// "categories" is now least recently used.
	c.Set("u2", "trend", []byte("c"))
	if _, ok := c.Get("u1", "categories"); ok {
		t.Error("expected least recently used entry to be evicted")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.Set("u2", "trend", []byte("d"))
	if got, _ := c.Get("u2", "trend"); string(got) != "d" {
		t.Errorf("overwrite: got %q", got)
	}
	if c.Len() != 2 {
		t.Errorf("Len() after overwrite = %d, want 2", c.Len())
	}
}

func TestUserCache_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewUserCache[string](10, 10*time.Minute)
	c.now = func() time.Time { return now }

	c.Set("u1", "k", "v")
	now = now.Add(9 * time.Minute)
	if _, ok := c.Get("u1", "k"); !ok {
		t.Fatal("entry expired too early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("u1", "k"); ok {
		t.Error("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry still counted: %d", c.Len())
	}
}

func TestUserCache_CleanExpired(t *testing.T) {
	now := time.Now()
	c := NewUserCache[int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set("u1", "a", 1)
	c.Set("u2", "b", 2)
	now = now.Add(2 * time.Minute)
	c.Set("u1", "c", 3)

	if n := c.CleanExpired(); n != 2 {
		t.Errorf("CleanExpired() = %d, want 2", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
	if _, ok := c.Get("u1", "c"); !ok {
		t.Error("fresh entry was removed")
	}
}

func TestUserCache_InvalidateUser(t *testing.T) {
	c := NewUserCache[string](10, time.Minute)
	c.Set("user-1", "insights|2024-03", "x")
	c.Set("user-1", "trend", "y")
	c.Set("user-10", "trend", "z")
	c.Set("user-2", "trend", "w")

	if n := c.InvalidateUser("user-1"); n != 2 {
		t.Errorf("InvalidateUser() = %d, want 2", n)
	}
	if _, ok := c.Get("user-10", "trend"); !ok {
		t.Error("InvalidateUser removed an entry of another user")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
	if n := c.InvalidateUser("nobody"); n != 0 {
		t.Errorf("InvalidateUser(unknown) = %d", n)
	}
}

func TestManager_Sweep(t *testing.T) {
	now := time.Now()
	c := NewUserCache[int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set("u1", "a", 1)
	now = now.Add(time.Minute)

	m := NewManager()
	m.Register(c)
	if n := m.sweep(); n != 1 {
		t.Errorf("sweep() = %d, want 1", n)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
}
