// Package report renders statistics and re-verification exports for people
// and for external tools.
package report
