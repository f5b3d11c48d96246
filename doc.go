// Package yootils is a small collection of independent helpers: an execution
// timer, UTC timestamp constructors, error propagation into plain return
// values and a wrapper for minting Google service-account ID tokens. A few
// thin Cloud Storage, Pub/Sub and CloudEvents helpers carry timing reports.
// Each sub-package stands on its own; pick the ones you need.
package yootils
