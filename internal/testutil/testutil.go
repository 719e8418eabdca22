package testutil

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/repository/sqlite"
)

// Password is the plaintext password of every user created by CreateUser.
const Password = "correct-horse-battery"

// Fixture holds the master data seeded by Seed.
type Fixture struct {
	ZoneA, ZoneB       domain.Zone
	BranchA1, BranchA2 domain.Branch
	BranchB1           domain.Branch
	LineA1, LineA2     domain.Line
	LineB1             domain.Line
	FarmerA1, FarmerA2 domain.Farmer
	FarmerB1           domain.Farmer
}

// NewStore opens a fresh sqlite store in a temporary directory.
func NewStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "complaints.db"))
	if err != nil {
		t.Fatalf("Failed to open sqlite store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

// Seed creates two zones with branches, lines and farmers.
//
//	zone-5: branch-5a (line-5a1, farmer-a1), branch-5b (line-5b1, farmer-a2)
//	zone-6: branch-6a (line-6a1, farmer-b1)
func Seed(t *testing.T, store repository.Store) Fixture {
	t.Helper()
	f := Fixture{
		ZoneA:    domain.Zone{ID: "zone-5", Name: "North"},
		ZoneB:    domain.Zone{ID: "zone-6", Name: "South"},
		BranchA1: domain.Branch{ID: "branch-5a", ZoneID: "zone-5", Name: "North A"},
		BranchA2: domain.Branch{ID: "branch-5b", ZoneID: "zone-5", Name: "North B"},
		BranchB1: domain.Branch{ID: "branch-6a", ZoneID: "zone-6", Name: "South A"},
		LineA1:   domain.Line{ID: "line-5a1", BranchID: "branch-5a", Name: "Route 1"},
		LineA2:   domain.Line{ID: "line-5b1", BranchID: "branch-5b", Name: "Route 2"},
		LineB1:   domain.Line{ID: "line-6a1", BranchID: "branch-6a", Name: "Route 3"},
		FarmerA1: domain.Farmer{ID: "farmer-a1", Name: "Ravi Kumar", Phone: "9800000001",
			ZoneID: "zone-5", BranchID: "branch-5a", LineID: "line-5a1"},
		FarmerA2: domain.Farmer{ID: "farmer-a2", Name: "Sita Devi", Phone: "9800000002",
			ZoneID: "zone-5", BranchID: "branch-5b", LineID: "line-5b1"},
		FarmerB1: domain.Farmer{ID: "farmer-b1", Name: "Arjun Patil", Phone: "9700000003",
			ZoneID: "zone-6", BranchID: "branch-6a", LineID: "line-6a1"},
	}

	ctx := context.Background()
	md := store.MasterData()
	for _, z := range []domain.Zone{f.ZoneA, f.ZoneB} {
		if err := md.CreateZone(ctx, &z); err != nil {
			t.Fatalf("Failed to seed zone %s: %v", z.ID, err)
		}
	}
	for _, b := range []domain.Branch{f.BranchA1, f.BranchA2, f.BranchB1} {
		if err := md.CreateBranch(ctx, &b); err != nil {
			t.Fatalf("Failed to seed branch %s: %v", b.ID, err)
		}
	}
	for _, l := range []domain.Line{f.LineA1, f.LineA2, f.LineB1} {
		if err := md.CreateLine(ctx, &l); err != nil {
			t.Fatalf("Failed to seed line %s: %v", l.ID, err)
		}
	}
	for _, fm := range []domain.Farmer{f.FarmerA1, f.FarmerA2, f.FarmerB1} {
		if err := md.CreateFarmer(ctx, &fm); err != nil {
			t.Fatalf("Failed to seed farmer %s: %v", fm.ID, err)
		}
	}
	return f
}

// CreateUser inserts an active user with Password and grants perms.
func CreateUser(t *testing.T, store repository.Store, user domain.User, perms ...domain.Permission) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user.PasswordHash = string(hash)
	user.Active = true
	if user.Email == "" {
		user.Email = user.ID + "@example.com"
	}
	if user.Name == "" {
		user.Name = user.ID
	}
	ctx := context.Background()
	if err := store.Users().Create(ctx, &user); err != nil {
		t.Fatalf("Failed to create user %s: %v", user.ID, err)
	}
	if len(perms) > 0 {
		if err := store.Permissions().Grant(ctx, user.ID, perms...); err != nil {
			t.Fatalf("Failed to grant permissions to %s: %v", user.ID, err)
		}
	}
	return &user
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string { return &s }

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at t.
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
