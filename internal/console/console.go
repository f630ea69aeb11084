package console

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/voucher-console/internal/apiclient"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/notify"
	"github.com/ignite/voucher-console/internal/pkg/logger"
	"github.com/ignite/voucher-console/internal/pkg/validate"
	"github.com/ignite/voucher-console/internal/querycache"
	"github.com/ignite/voucher-console/internal/querykey"
)

// Client-side validation failures. No request is sent when they occur.
var (
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrNotSignedIn      = errors.New("not signed in")
)

// Resource key factories shared by the bindings.
var (
	campaignKeys = querykey.For("campaigns")
	voucherKeys  = querykey.For("vouchers")
	customerKeys = querykey.For("customers")
	logKeys      = querykey.For("logs")
)

// Options configures a Console.
type Options struct {
	// Cache holds query results. Nil uses an in-memory cache.
	Cache *querycache.Cache
	// Notifier receives success and error notifications. Nil logs them.
	Notifier notify.Notifier
	// StaleTime overrides the cache freshness window for every resource.
	StaleTime time.Duration
	// Now overrides the clock used for export filenames.
	Now func() time.Time
}

// Console is the client application: session plus resource bindings.
type Console struct {
	client   *apiclient.Client
	session  *Session
	cache    *querycache.Cache
	notifier notify.Notifier
	now      func() time.Time

	Campaigns *Campaigns
	Vouchers  *Vouchers
	Customers *Customers
	Logs      *Logs
}

// New creates a console over client. The client should take its tokens from
// session.
func New(client *apiclient.Client, session *Session, opts Options) *Console {
	if opts.Cache == nil {
		opts.Cache = querycache.New(querycache.NewMemoryStore(0), querycache.Options{RefetchOnInvalidate: true})
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.LogNotifier{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	c := &Console{
		client:   client,
		session:  session,
		cache:    opts.Cache,
		notifier: opts.Notifier,
		now:      opts.Now,
	}
	c.Campaigns = newCampaigns(c, opts.StaleTime)
	c.Vouchers = newVouchers(c, opts.StaleTime)
	c.Customers = newCustomers(c, opts.StaleTime)
	c.Logs = newLogs(c, opts.StaleTime)
	return c
}

// Session returns the application state container.
func (c *Console) Session() *Session { return c.session }

// Cache returns the query cache.
func (c *Console) Cache() *querycache.Cache { return c.cache }

// Client returns the API client.
func (c *Console) Client() *apiclient.Client { return c.client }

// Close stops background cache reloads.
func (c *Console) Close() { c.cache.Close() }

// Login authenticates and persists the token. The profile is refreshed
// afterwards; if that fails the session stays signed in with the user from
// the login response.
func (c *Console) Login(ctx context.Context, cr domain.Credentials) (domain.User, error) {
	if err := validate.Struct(cr); err != nil {
		c.fail("auth", "login", err, "Please enter your username and password")
		return domain.User{}, err
	}
	tok, err := c.client.Login(ctx, cr)
	if err != nil {
		c.fail("auth", "login", err, "Login failed")
		return domain.User{}, err
	}
	if err := c.session.SetAuth(ctx, tok); err != nil {
		c.fail("auth", "login", err, "Could not save the session")
		return domain.User{}, err
	}
	if err := c.cache.Clear(ctx); err != nil {
		logger.Warn("[console] cache clear failed", "error", err)
	}

	u := tok.User
	if me, err := c.client.Me(ctx); err != nil {
		logger.Warn("[console] profile fetch failed", "user_id", u.ID, "error", err)
		c.notify(notify.Warning, "auth", "profile", "Signed in, but your profile could not be loaded")
	} else {
		u = me
		if err := c.session.SetUser(ctx, me); err != nil {
			logger.Warn("[console] profile save failed", "user_id", u.ID, "error", err)
		}
	}
	c.notify(notify.Success, "auth", "login", "Welcome back, "+displayName(u))
	return u, nil
}

// Register creates an account. Mismatched passwords and missing fields are
// rejected before any request is made.
func (c *Console) Register(ctx context.Context, reg domain.Registration) (domain.User, error) {
	if reg.Password != reg.ConfirmPassword {
		c.fail("auth", "register", ErrPasswordMismatch, "Passwords do not match")
		return domain.User{}, ErrPasswordMismatch
	}
	if err := validate.Struct(reg); err != nil {
		c.fail("auth", "register", err, "Please complete the form")
		return domain.User{}, err
	}
	u, err := c.client.Register(ctx, reg)
	if err != nil {
		c.fail("auth", "register", err, "Registration failed")
		return domain.User{}, err
	}
	c.notify(notify.Success, "auth", "register", "Account created, you can now sign in")
	return u, nil
}

// Logout revokes the token, clears the session and drops every cached
// query. The local state is cleared even when the server call fails.
func (c *Console) Logout(ctx context.Context) error {
	if c.session.Authenticated() {
		if err := c.client.Logout(ctx); err != nil {
			logger.Warn("[console] server logout failed", "error", err)
		}
	}
	if err := c.cache.Clear(ctx); err != nil {
		logger.Warn("[console] cache clear failed", "error", err)
	}
	if err := c.session.Clear(ctx); err != nil {
		c.fail("auth", "logout", err, "Could not clear the session")
		return err
	}
	c.notify(notify.Info, "auth", "logout", "Signed out")
	return nil
}

// Can reports whether the signed-in user's role grants cap.
func (c *Console) Can(cap domain.Capability) bool {
	if !c.session.Authenticated() {
		return false
	}
	u, ok := c.session.User()
	if !ok {
		return false
	}
	return domain.CapabilitiesOf(u.Role()).Has(cap)
}

// Require returns ErrNotSignedIn or a permission error when cap is missing.
func (c *Console) Require(cap domain.Capability) error {
	if !c.session.Authenticated() {
		return ErrNotSignedIn
	}
	if !c.Can(cap) {
		return &apiclient.APIError{Status: 403, Message: "your role does not allow this action"}
	}
	return nil
}

func (c *Console) notify(level notify.Level, resource, op, msg string) {
	c.notifier.Notify(notify.Notification{Level: level, Message: msg, Resource: resource, Op: op})
}

func (c *Console) fail(resource, op string, err error, fallback string) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.notify(notify.Error, resource, op, notify.MessageFrom(err, fallback))
}

func (c *Console) invalidate(ctx context.Context, keys ...querykey.Key) {
	for _, k := range keys {
		if err := c.cache.Invalidate(ctx, k); err != nil {
			logger.Warn("[console] invalidate failed", "key", k.String(), "error", err)
		}
	}
}

func displayName(u domain.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
