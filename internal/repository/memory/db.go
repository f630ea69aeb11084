package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/ignite/voucher-console/internal/domain"
)

// DB is an in-memory dataset guarded by a single lock.
type DB struct {
	mu        sync.RWMutex
	campaigns map[string]domain.Campaign
	vouchers  map[string]domain.Voucher
	customers map[string]domain.Customer
	logs      []domain.VoucherLog
	users     map[string]userRecord
}

type userRecord struct {
	user domain.User
	hash string
}

// New returns an empty DB.
func New() *DB {
	return &DB{
		campaigns: make(map[string]domain.Campaign),
		vouchers:  make(map[string]domain.Voucher),
		customers: make(map[string]domain.Customer),
		users:     make(map[string]userRecord),
	}
}

// Campaigns returns the campaign repository.
func (db *DB) Campaigns() *CampaignRepo { return &CampaignRepo{db: db} }

// Vouchers returns the voucher repository.
func (db *DB) Vouchers() *VoucherRepo { return &VoucherRepo{db: db} }

// Customers returns the customer repository.
func (db *DB) Customers() *CustomerRepo { return &CustomerRepo{db: db} }

// Logs returns the voucher log repository.
func (db *DB) Logs() *LogRepo { return &LogRepo{db: db} }

// Users returns the user repository.
func (db *DB) Users() *UserRepo { return &UserRepo{db: db} }

// Ping always succeeds; it lets a DB stand in for a database health check.
func (db *DB) Ping() error { return nil }

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}

func contains(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}

// sortNewest orders by created time descending with key as the tiebreak.
func sortNewest[T any](items []T, created func(T) int64, key func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		a, b := created(items[i]), created(items[j])
		if a != b {
			return a > b
		}
		return key(items[i]) < key(items[j])
	})
}
