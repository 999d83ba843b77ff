package models

import (
	"strconv"
	"strings"
	"time"
)

// RequestContext is the per-request tuple handed to the activity notifier
// by the post-response hook. It is never persisted; it exists only as a
// rule-matching input and a template substitution source.
type RequestContext struct {
	ActorID    int64
	ActorName  string
	ActorEmail string
	Method     string
	RouteName  string
	Path       string
	Status     int
	ClientIP   string
	Timestamp  time.Time
}

// NewRequestContext normalizes the raw hook tuple: method is uppercased,
// the path gets a leading slash and loses any trailing slash, and a blank
// route name becomes the "n/a" sentinel.
func NewRequestContext(actorID int64, actorName, actorEmail, method, routeName, path string, status int, clientIP string, at time.Time) RequestContext {
	if routeName == "" {
		routeName = "n/a"
	}
	return RequestContext{
		ActorID:    actorID,
		ActorName:  actorName,
		ActorEmail: actorEmail,
		Method:     strings.ToUpper(method),
		RouteName:  routeName,
		Path:       NormalizePath(path),
		Status:     status,
		ClientIP:   clientIP,
		Timestamp:  at,
	}
}

func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	for len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}

// TemplateFields exposes the substitution source for {token} rendering.
func (c RequestContext) TemplateFields() map[string]string {
	return map[string]string{
		"actor_name":  c.ActorName,
		"actor_email": c.ActorEmail,
		"method":      c.Method,
		"route":       c.RouteName,
		"path":        c.Path,
		"status":      strconv.Itoa(c.Status),
		"ip":          c.ClientIP,
		"timestamp":   c.Timestamp.Format(time.RFC3339),
	}
}

// NotificationMessage is the rendered payload handed to the delivery
// channels. URL is nil for automation-sourced notifications; manual
// broadcasts may set it.
type NotificationMessage struct {
	Title   string
	Message string
	Level   string
	URL     *string
}
