package locals

import (
	"fmt"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Decorator wraps a local value with presentation behaviour before the
// template sees it. Templates access the decorated value through the same
// name, no special-casing required.
type Decorator interface {
	Decorate(value any) (any, error)
}

// DecoratorFunc adapts a function into a Decorator.
type DecoratorFunc func(value any) (any, error)

// Decorate calls the underlying function.
func (fn DecoratorFunc) Decorate(value any) (any, error) {
	return fn(value)
}

// Chain composes decorators left to right.
func Chain(decorators ...Decorator) Decorator {
	return DecoratorFunc(func(value any) (any, error) {
		var err error
		for _, d := range decorators {
			if d == nil {
				continue
			}
			value, err = d.Decorate(value)
			if err != nil {
				return nil, err
			}
		}
		return value, nil
	})
}

var (
	ugcPolicyOnce sync.Once
	ugcPolicy     *bluemonday.Policy
)

func sanitizePolicy() *bluemonday.Policy {
	ugcPolicyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})
	return ugcPolicy
}

// SafeHTML returns a decorator that sanitizes string-like values with a UGC
// policy and marks the result Safe, so engines emit it unescaped. Non-string
// values pass through untouched.
func SafeHTML() Decorator {
	return DecoratorFunc(func(value any) (any, error) {
		switch v := value.(type) {
		case nil:
			return nil, nil
		case Safe:
			return Safe(sanitizePolicy().Sanitize(string(v))), nil
		case string:
			return Safe(sanitizePolicy().Sanitize(v)), nil
		case fmt.Stringer:
			return Safe(sanitizePolicy().Sanitize(v.String())), nil
		default:
			return value, nil
		}
	})
}
