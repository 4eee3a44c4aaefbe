// Package inifile enforces catalog config entries against an INI file.
//
// A literal entry sets its key. A ServiceDefault entry removes its key so the
// service falls back to its compiled-in default. Keys the catalog does not
// mention are left untouched.
//
// Plan computes the changes without touching the file. Apply writes the new
// file through a temporary file and a rename, and only when at least one
// change is needed, so repeated applies are no-ops.
//
// The first write sets go-ini's process-wide DefaultHeader, PrettyFormat and
// PrettyEqual options. Other users of go-ini in the same process will see
// [DEFAULT] headers and unaligned "key = value" output after that.
package inifile
