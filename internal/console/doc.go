// Package console is the client side of the voucher admin: a session
// container persisted between runs, and one cached binding per resource
// (campaigns, vouchers, customers, logs) built on the crud factory.
//
// A Console is created once per process:
//
//	sess := console.NewSession(console.NewFileSessionStore(path))
//	_ = sess.Hydrate(ctx)
//	client, _ := apiclient.New(baseURL, apiclient.WithTokenSource(sess))
//	c := console.New(client, sess, console.Options{Cache: cache, Notifier: n})
//
// Mutations notify success or failure through the Notifier and never retry.
package console
