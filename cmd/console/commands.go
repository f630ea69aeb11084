package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/ignite/voucher-console/internal/console"
	"github.com/ignite/voucher-console/internal/domain"
	"github.com/ignite/voucher-console/internal/export"
)

var errUsage = errors.New("usage")

type commands struct {
	console *console.Console
	out     io.Writer
}

func (c *commands) run(ctx context.Context, name string, args []string) error {
	switch name {
	case "login":
		return c.login(ctx, args)
	case "logout":
		return c.console.Logout(ctx)
	case "whoami":
		return c.whoami()
	case "list":
		return c.list(ctx, args)
	case "get":
		return c.get(ctx, args)
	case "stats":
		return c.stats(ctx, args)
	case "export":
		return c.export(ctx, args)
	case "qr":
		return c.qr(ctx, args)
	case "redeem":
		return c.redeem(ctx, args)
	default:
		return errUsage
	}
}

func (c *commands) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "username")
	pass := fs.String("p", os.Getenv("VOUCHER_PASSWORD"), "password")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	u, err := c.console.Login(ctx, domain.Credentials{Username: *user, Password: *pass})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "signed in as %s (%s)\n", u.Username, u.RoleName)
	return nil
}

func (c *commands) whoami() error {
	u, ok := c.console.Session().User()
	if !ok || !c.console.Session().Authenticated() {
		return console.ErrNotSignedIn
	}
	st := c.console.Session().State()
	fmt.Fprintf(c.out, "%s (%s), role %s, session expires %s\n",
		u.Username, u.Name, u.RoleName, st.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

// filters holds the list and export flags shared by every resource.
type filters struct {
	search, status, campaign, customer, tag, voucher, action string
	page, limit                                              int
}

func parseFilters(name string, args []string) (filters, []string, error) {
	var f filters
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&f.search, "q", "", "search text")
	fs.StringVar(&f.status, "status", "", "status filter")
	fs.StringVar(&f.campaign, "campaign", "", "campaign id (vouchers)")
	fs.StringVar(&f.customer, "customer", "", "customer id (vouchers)")
	fs.StringVar(&f.tag, "tag", "", "tag (customers)")
	fs.StringVar(&f.voucher, "voucher", "", "voucher code (logs)")
	fs.StringVar(&f.action, "action", "", "action (logs)")
	fs.IntVar(&f.page, "page", 1, "page number")
	fs.IntVar(&f.limit, "limit", 0, "page size")
	if err := fs.Parse(args); err != nil {
		return f, nil, errUsage
	}
	return f, fs.Args(), nil
}

func (f filters) campaigns() domain.CampaignFilter {
	return domain.CampaignFilter{Status: domain.CampaignStatus(f.status), Search: f.search, Page: f.page, Limit: f.limit}
}

func (f filters) vouchers() domain.VoucherFilter {
	return domain.VoucherFilter{Status: domain.VoucherStatus(f.status), CampaignID: f.campaign, CustomerID: f.customer,
		Search: f.search, Page: f.page, Limit: f.limit}
}

func (f filters) customers() domain.CustomerFilter {
	return domain.CustomerFilter{Status: domain.CustomerStatus(f.status), Tag: f.tag, Search: f.search, Page: f.page, Limit: f.limit}
}

func (f filters) logs() domain.LogFilter {
	return domain.LogFilter{VoucherCode: f.voucher, Action: domain.LogAction(f.action), Page: f.page, Limit: f.limit}
}

// splitResource takes the leading resource argument so flags may follow it.
func splitResource(args []string) (string, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}

func (c *commands) list(ctx context.Context, args []string) error {
	res, rest, err := splitResource(args)
	if err != nil {
		return err
	}
	f, _, err := parseFilters("list", rest)
	if err != nil {
		return err
	}
	switch res {
	case "campaigns":
		p, err := c.console.Campaigns.List(ctx, f.campaigns())
		return printPage(c.out, export.CampaignTable, p, err)
	case "vouchers":
		p, err := c.console.Vouchers.List(ctx, f.vouchers())
		return printPage(c.out, export.VoucherTable, p, err)
	case "customers":
		p, err := c.console.Customers.List(ctx, f.customers())
		return printPage(c.out, export.CustomerTable, p, err)
	case "logs":
		p, err := c.console.Logs.List(ctx, f.logs())
		return printPage(c.out, export.LogTable, p, err)
	}
	return fmt.Errorf("unknown resource %q", res)
}

func (c *commands) get(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	var (
		v   any
		err error
	)
	switch args[0] {
	case "campaign", "campaigns":
		v, err = c.console.Campaigns.Get(ctx, args[1])
	case "voucher", "vouchers":
		v, err = c.console.Vouchers.Get(ctx, args[1])
	case "customer", "customers":
		v, err = c.console.Customers.Get(ctx, args[1])
	case "log", "logs":
		v, err = c.console.Logs.Get(ctx, args[1])
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, v)
}

func (c *commands) stats(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	var (
		v   any
		err error
	)
	switch args[0] {
	case "campaigns":
		v, err = c.console.Campaigns.Stats(ctx)
	case "vouchers":
		v, err = c.console.Vouchers.Stats(ctx)
	case "customers":
		v, err = c.console.Customers.Stats(ctx)
	case "logs":
		v, err = c.console.Logs.Stats(ctx)
	default:
		return fmt.Errorf("unknown resource %q", args[0])
	}
	if err != nil {
		return err
	}
	return printJSON(c.out, v)
}

func (c *commands) export(ctx context.Context, args []string) error {
	res, rest, err := splitResource(args)
	if err != nil {
		return err
	}
	dir := "."
	if len(rest) >= 2 && rest[0] == "-o" {
		dir, rest = rest[1], rest[2:]
	}
	f, _, err := parseFilters("export", rest)
	if err != nil {
		return err
	}
	if err := c.console.Require(domain.CapExport); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".export-*.csv")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	var name string
	var n int
	switch res {
	case "campaigns":
		name, n, err = c.console.Campaigns.ExportCSV(ctx, tmp, f.campaigns())
	case "vouchers":
		name, n, err = c.console.Vouchers.ExportCSV(ctx, tmp, f.vouchers())
	case "customers":
		name, n, err = c.console.Customers.ExportCSV(ctx, tmp, f.customers())
	case "logs":
		name, n, err = c.console.Logs.ExportCSV(ctx, tmp, f.logs())
	default:
		err = fmt.Errorf("unknown resource %q", res)
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %d rows to %s\n", n, path)
	return nil
}

func (c *commands) qr(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	code := args[0]
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	out := fs.String("o", "", "output file (default CODE.png)")
	size := fs.Int("size", console.DefaultQRSize, "image size in pixels")
	asURL := fs.Bool("url", false, "print a data URL instead of writing a file")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}

	v, err := c.console.Vouchers.Get(ctx, code)
	if err != nil {
		return err
	}
	if *asURL {
		url, err := c.console.Vouchers.QRCode(v, *size)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, url)
		return nil
	}
	png, err := export.QRPNG(v.QRContent(), *size)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = v.Code + ".png"
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %s\n", path)
	return nil
}

func (c *commands) redeem(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	fs := flag.NewFlagSet("redeem", flag.ContinueOnError)
	order := fs.String("order", "", "order id")
	if err := fs.Parse(args[1:]); err != nil {
		return errUsage
	}
	v, err := c.console.Vouchers.Redeem(ctx, args[0], domain.RedeemInput{OrderID: *order, Channel: "cli"})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s is now %s\n", v.Code, v.Status)
	return nil
}

func printPage[T any](w io.Writer, table export.Table[T], p domain.Page[T], err error) error {
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, h := range table.Headers() {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, h)
	}
	fmt.Fprintln(tw)
	for _, row := range p.Data {
		for i, col := range table {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, col.Value(row))
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	m := p.Pagination
	fmt.Fprintf(w, "page %d of %d, %d total\n", m.Page, m.TotalPages, m.Total)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
