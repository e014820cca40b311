// Package validation evaluates declarative rule sets against submitted
// fields and accumulates human-readable messages per field. Rules are
// typed values rather than parsed strings; every failing rule contributes
// a message, not just the first.
package validation

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Kind identifies a rule.
type Kind int

const (
	KindRequired Kind = iota
	KindString
	KindMax
	KindMin
	KindEmail
	KindIn
	KindConfirmed
	KindUnique
)

// UniquenessChecker answers whether another record already holds a value
// in the given column. Implemented by the persistence repositories.
// The check is advisory only: under concurrency two requests may both
// pass it, and the storage-level unique constraint decides the winner.
type UniquenessChecker interface {
	ExistsOther(ctx context.Context, column, value, excludeID string) (bool, error)
}

// Rule is one declarative constraint with typed parameters.
type Rule struct {
	Kind      Kind
	Limit     int               // KindMax, KindMin
	Values    []string          // KindIn
	Checker   UniquenessChecker // KindUnique
	Column    string            // KindUnique
	ExcludeID string            // KindUnique: record exempt from the check
}

func Required() Rule { return Rule{Kind: KindRequired} }
func String() Rule { return Rule{Kind: KindString} }
func Max(n int) Rule { return Rule{Kind: KindMax, Limit: n} }
func Min(n int) Rule { return Rule{Kind: KindMin, Limit: n} }
func Email() Rule { return Rule{Kind: KindEmail} }
func In(values ...string) Rule { return Rule{Kind: KindIn, Values: values} }
func Confirmed() Rule { return Rule{Kind: KindConfirmed} }

func Unique(checker UniquenessChecker, column string) Rule {
	return Rule{Kind: KindUnique, Checker: checker, Column: column}
}

func UniqueExcluding(checker UniquenessChecker, column, excludeID string) Rule {
	return Rule{Kind: KindUnique, Checker: checker, Column: column, ExcludeID: excludeID}
}

// Errors maps a field name to its ordered list of messages.
type Errors map[string][]string

func (e Errors) Any() bool {
	return len(e) > 0
}

func (e Errors) add(field, message string) {
	e[field] = append(e[field], message)
}

var emailValidator = validator.New()

// Evaluate checks every field against its rules. The returned error is
// non-nil only for infrastructure failures (a uniqueness query that could
// not run); rule failures land in Errors.
func Evaluate(ctx context.Context, fields map[string]string, rules map[string][]Rule) (Errors, error) {
	errs := Errors{}

	for field, fieldRules := range rules {
		value := fields[field]

		// Absent values fail only the required rule; the remaining rules
		// apply to present input.
		if value == "" {
			for _, rule := range fieldRules {
				if rule.Kind == KindRequired {
					errs.add(field, requiredMessage(field))
					break
				}
			}
			continue
		}

		for _, rule := range fieldRules {
			switch rule.Kind {
			case KindRequired, KindString:
				// Present input satisfies both; submitted values are strings.
			case KindMax:
				// Limits are in characters, not bytes, so multibyte input
				// is measured the way users count it.
				if utf8.RuneCountInString(value) > rule.Limit {
					errs.add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", label(field), rule.Limit))
				}
			case KindMin:
				if utf8.RuneCountInString(value) < rule.Limit {
					errs.add(field, fmt.Sprintf("The %s field must be at least %d characters.", label(field), rule.Limit))
				}
			case KindEmail:
				if emailValidator.Var(value, "email") != nil {
					errs.add(field, fmt.Sprintf("The %s field must be a valid email address.", label(field)))
				}
			case KindIn:
				if !contains(rule.Values, value) {
					errs.add(field, fmt.Sprintf("The selected %s is invalid.", label(field)))
				}
			case KindConfirmed:
				if fields[field+"_confirmation"] != value {
					errs.add(field, fmt.Sprintf("The %s field confirmation does not match.", label(field)))
				}
			case KindUnique:
				taken, err := rule.Checker.ExistsOther(ctx, rule.Column, value, rule.ExcludeID)
				if err != nil {
					return nil, fmt.Errorf("uniqueness check for %s: %w", field, err)
				}
				if taken {
					errs.add(field, UniqueMessage(field))
				}
			}
		}
	}

	return errs, nil
}

// UniqueMessage is the taken-value message for a field. Exported so the
// constraint-violation path on insert can produce the identical response.
func UniqueMessage(field string) string {
	return fmt.Sprintf("The %s has already been taken.", label(field))
}

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", label(field))
}

func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
