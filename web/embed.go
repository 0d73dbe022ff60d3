package web

import "embed"

// TemplatesFS embeds the page templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds the stylesheet, chart script and default pet picture.
//
//go:embed static/*
var StaticFS embed.FS
