// Package vision calls the Google Cloud Vision images:annotate REST endpoint
// and maps its text and web detection output into recognition candidate pools.
package vision
