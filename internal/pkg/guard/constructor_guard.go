package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when no specific error is given.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard marks value objects and entities that went through their
// constructor. A zero-value struct carries a zero-value guard and fails Validate.
//
// Example usage:
//
//	var ErrBoxNotConstructed = errors.New("Box must be created via NewBox")
//
//	type Box struct {
//	    number int
//	    guard  guard.ConstructorGuard
//	}
//
//	func NewBox(number int) (Box, error) {
//	    if number < 1 {
//	        return Box{}, errors.New("box number must be positive")
//	    }
//	    return Box{number: number, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (b Box) Validate() error {
//	    return b.guard.Validate(ErrBoxNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard returns a guard flagged as constructed.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns validationError (or ErrDefaultConstructorGuard when it is nil)
// if the guarded object was not created through its constructor.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
