package rules

// Rule is a validated automation rule. Instances only ever come out of
// ParseRules, which normalizes levels, channels and throttle bounds, so
// downstream code never re-checks those fields.
type Rule struct {
	ID              string
	Methods         []string
	RoutePatterns   []string
	ThrottleSeconds int
	TitleTemplate   string
	MessageTemplate string
	Level           string
	Channels        []string
	Condition       string
	Audience        Audience
}

// Audience selects the recipient set for a rule firing.
type Audience struct {
	Type    string
	Role    string
	UserIDs []int64
}

// HasChannel reports whether the rule dispatches to the given channel.
func (r Rule) HasChannel(channel string) bool {
	for _, c := range r.Channels {
		if c == channel {
			return true
		}
	}
	return false
}
