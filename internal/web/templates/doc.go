// Package templates renders the HTML pages and fragments of the web UI as
// templ components. The *_templ.go files are generated from the .templ
// sources with `templ generate`.
package templates
