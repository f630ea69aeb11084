// Package memory provides in-memory repositories for every service.
//
// All repositories share one DB so derived counters (issued vouchers per
// campaign, used vouchers per customer) stay consistent the way SQL joins
// keep them consistent in the postgres package. Seed fills a DB with mock
// data for local development and the console's offline mode.
package memory
