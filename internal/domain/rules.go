package domain

import "sort"

// RuleSet is an ordered collection of line rules sharing one symbol
// namespace. Its code doubles as the scanned subdirectory name, like a
// journal code.
type RuleSet struct {
	ID         string
	TemplateID string
	JournalID  string
	Code       string
	Name       string
	Rules      []*LineRule
}

// OrderedRules returns the rules in total evaluation order: ascending
// Order, ties broken by ascending Code.
func (rs *RuleSet) OrderedRules() []*LineRule {
	rules := make([]*LineRule, len(rs.Rules))
	copy(rules, rs.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Order != rules[j].Order {
			return rules[i].Order < rules[j].Order
		}
		return rules[i].Code < rules[j].Code
	})
	return rules
}

// LineRule derives one line amount within a rule set. Code is unique within
// the set; Formula may reference other rules' codes or externally supplied
// input names. A rule with no formula and no external input evaluates to
// zero. Polarity, when declared, re-signs the computed magnitude against
// the target account's own polarity.
type LineRule struct {
	ID        string
	RuleSetID string
	Account   *Account
	Code      string
	Name      string
	Order     int
	Formula   string
	Polarity  Polarity
}

// DefaultRuleOrder matches rules created without an explicit order.
const DefaultRuleOrder = 100
