// Package offline provides collaborators that need no network or credentials.
//
// The decider classifies queries by keyword and follows the routing policy,
// the searcher ranks a small in-memory corpus and the generator renders a
// Markdown digest of the gathered facts. They back the --offline CLI mode,
// demos and integration tests.
package offline
