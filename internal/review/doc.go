// Package review holds the homework review domain: the decoded API payload,
// its structural validation, status-to-verdict extraction and the error kinds
// the poll loop dispatches on.
package review
