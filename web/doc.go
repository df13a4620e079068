// Package web exposes the glyco application over HTTP. It serves the
// embedded single-page UI and a JSON API for conversations, profiles,
// playbooks, extensions, attachments, and transcripts.
package web
