package rules

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"

	"harilog/internal/constants"
)

// ParseRules turns the operator-authored JSON blob from the settings store
// into validated rules. It never fails: blank input, malformed JSON, a
// non-array payload or junk entries all degrade to fewer (or zero) rules,
// because configuration mistakes must never break the host request.
func ParseRules(raw string) []Rule {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil
	}

	rules := make([]Rule, 0, len(entries))
	for _, entry := range entries {
		var fields map[string]interface{}
		if err := json.Unmarshal(entry, &fields); err != nil {
			// Not a key/value record; skip.
			continue
		}

		if !truthy(fields["active"]) {
			continue
		}

		rules = append(rules, normalizeRule(fields, entry))
	}

	return rules
}

func normalizeRule(fields map[string]interface{}, raw json.RawMessage) Rule {
	rule := Rule{
		ID:              asString(fields["id"]),
		Methods:         normalizeMethods(asStringSlice(fields["methods"])),
		RoutePatterns:   normalizePatterns(asStringSlice(fields["route_patterns"])),
		ThrottleSeconds: clampThrottle(asInt(fields["throttle_seconds"])),
		TitleTemplate:   asString(fields["title_template"]),
		MessageTemplate: asString(fields["message_template"]),
		Level:           NormalizeLevel(asString(fields["level"])),
		Channels:        NormalizeChannels(asStringSlice(fields["channels"])),
		Condition:       strings.TrimSpace(asString(fields["condition"])),
		Audience:        normalizeAudience(fields["audience"]),
	}

	if rule.ID == "" {
		rule.ID = synthesizeID(raw)
	}

	return rule
}

// synthesizeID derives a stable identifier from the rule content so
// throttle keys survive reloads of an unchanged rule.
func synthesizeID(raw json.RawMessage) string {
	h := fnv.New64a()
	h.Write(raw)
	return fmt.Sprintf("rule-%016x", h.Sum64())
}

func normalizeMethods(methods []string) []string {
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

func normalizePatterns(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func clampThrottle(seconds int) int {
	if seconds < constants.MinThrottleSeconds {
		return constants.MinThrottleSeconds
	}
	if seconds > constants.MaxThrottleSeconds {
		return constants.MaxThrottleSeconds
	}
	return seconds
}

// NormalizeLevel maps unsupported severity values to "info".
func NormalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case constants.LevelSuccess:
		return constants.LevelSuccess
	case constants.LevelWarning:
		return constants.LevelWarning
	case constants.LevelError:
		return constants.LevelError
	default:
		return constants.LevelInfo
	}
}

// NormalizeChannels drops unknown channel names; an empty result defaults
// to in-app delivery.
func NormalizeChannels(channels []string) []string {
	out := make([]string, 0, len(channels))
	for _, c := range channels {
		switch strings.ToLower(strings.TrimSpace(c)) {
		case constants.ChannelInApp:
			out = append(out, constants.ChannelInApp)
		case constants.ChannelTelegram:
			out = append(out, constants.ChannelTelegram)
		}
	}
	if len(out) == 0 {
		out = append(out, constants.ChannelInApp)
	}
	return out
}

func normalizeAudience(v interface{}) Audience {
	fields, ok := v.(map[string]interface{})
	if !ok {
		return Audience{Type: constants.AudienceAdmins}
	}

	aud := Audience{
		Type: strings.ToLower(strings.TrimSpace(asString(fields["type"]))),
		Role: strings.TrimSpace(asString(fields["role"])),
	}

	switch aud.Type {
	case constants.AudienceAll, constants.AudienceRole, constants.AudienceUsers:
	default:
		aud.Type = constants.AudienceAdmins
	}

	if ids, ok := fields["user_ids"].([]interface{}); ok {
		for _, id := range ids {
			if n, ok := asInt64(id); ok {
				aud.UserIDs = append(aud.UserIDs, n)
			}
		}
	}

	return aud
}

// truthy mirrors how the operator UI serializes the active flag: booleans,
// numbers and the usual string spellings all count.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "true", "yes", "on":
			return true
		}
	}
	return false
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asStringSlice(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func asInt(v interface{}) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		var n int
		fmt.Sscanf(strings.TrimSpace(t), "%d", &n)
		return n
	}
	return 0
}

func asInt64(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case float64:
		return int64(t), true
	case string:
		var n int64
		if _, err := fmt.Sscanf(strings.TrimSpace(t), "%d", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}
