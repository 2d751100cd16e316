// Package web embeds the dashboard templates and static assets.
package web

import "embed"

// TemplatesFS holds the page and the htmx partials.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds app.css and app.js.
//
//go:embed static/*
var StaticFS embed.FS
