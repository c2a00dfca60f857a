package errors

import (
	stderrors "errors"
	"reflect"
)

// With returns an error that represents top wrapped on top of the base error.
// The message is the message of base.
func With(base, top error) error {
	if base == nil && top == nil {
		return nil
	}
	if top == nil {
		return base
	}
	if base == nil {
		return top
	}
	return union{error: base, top: top}
}

type union struct {
	error
	top error
}

func (u union) Is(target error) bool {
	// Only top is checked here. errors.Is walks Unwrap for the rest.
	if target == nil {
		return false
	}

	if reflect.TypeOf(target).Comparable() && u.top == target {
		return true
	}
	if x, ok := u.top.(interface{ Is(error) bool }); ok && x.Is(target) {
		return true
	}
	return false
}

func (u union) As(target any) bool {
	if target == nil {
		panic("errors: target cannot be nil")
	}
	val := reflect.ValueOf(target)
	typ := val.Type()
	if typ.Kind() != reflect.Ptr || val.IsNil() {
		panic("errors: target must be a non-nil pointer")
	}
	targetType := typ.Elem()
	if targetType.Kind() != reflect.Interface && !targetType.Implements(errorType) {
		panic("errors: *target must be interface or implement error")
	}
	if reflect.TypeOf(u.top).AssignableTo(targetType) {
		val.Elem().Set(reflect.ValueOf(u.top))
		return true
	}
	if x, ok := u.top.(interface{ As(any) bool }); ok && x.As(target) {
		return true
	}
	return false
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (u union) Unwrap() error {
	if err := stderrors.Unwrap(u.top); err != nil {
		return union{error: u.error, top: err}
	}
	return u.error
}
