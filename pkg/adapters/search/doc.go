// Package search implements ports.Searcher over web search APIs.
package search
