package blackjack

import "fmt"

type InvalidRulesError string

func (e InvalidRulesError) Error() string { return "invalid rules: " + string(e) }

func invalidRules(format string, args ...any) error {
	return InvalidRulesError(fmt.Sprintf(format, args...))
}
