package vm

import (
	"errors"
	"fmt"

	"github.com/nyxlang/nyx/internal/jsvalue"
	"github.com/nyxlang/nyx/internal/lexenv"
	"github.com/nyxlang/nyx/internal/object"
	"github.com/nyxlang/nyx/internal/srcerr"
)

// Thrown carries a JavaScript thrown value through Go's error channel.
// Every runtime failure the interpreter can surface to user code is a
// Thrown; try-region unwinding catches it, and anything escaping the
// outermost frame reaches the embedder still wrapped.
type Thrown struct {
	Value jsvalue.Value
}

func (t *Thrown) Error() string {
	return "uncaught " + describeThrown(t.Value)
}

func describeThrown(v jsvalue.Value) string {
	if v.IsObject() {
		o, _ := v.Ptr.(*object.Object)
		if o != nil {
			name, _ := o.Get(stringKey("name"), v)
			msg, _ := o.Get(stringKey("message"), v)
			if name.IsString() {
				if msg.IsString() {
					return name.AsString().Content + ": " + msg.AsString().Content
				}
				return name.AsString().Content
			}
		}
		return "[object]"
	}
	if v.IsString() {
		return v.AsString().Content
	}
	return fmt.Sprintf("%v", v.Kind)
}

// abruptReturn drives a generator's `.return()` through the unwinding
// machinery: finally blocks run, catch handlers do not.
type abruptReturn struct {
	value jsvalue.Value
}

func (a *abruptReturn) Error() string { return "abrupt generator return" }

// errTerminated ends a coroutine's body during teardown without
// running any more user code.
var errTerminated = errors.New("coroutine terminated")

// throwError allocates one of the realm's error objects and wraps it
// as a Thrown.
func (rt *Runtime) throwError(kind srcerr.Kind, format string, args ...interface{}) error {
	return &Thrown{Value: rt.NewError(kind, fmt.Sprintf(format, args...))}
}

func (rt *Runtime) typeError(format string, args ...interface{}) error {
	return rt.throwError(srcerr.TypeErrorKind, format, args...)
}

func (rt *Runtime) rangeError(format string, args ...interface{}) error {
	return rt.throwError(srcerr.RangeErrorKind, format, args...)
}

func (rt *Runtime) referenceError(format string, args ...interface{}) error {
	return rt.throwError(srcerr.ReferenceErrorKind, format, args...)
}

// NewError constructs an error object of the given kind with name and
// message data properties, prototype-chained to the matching realm
// intrinsic.
func (rt *Runtime) NewError(kind srcerr.Kind, message string) jsvalue.Value {
	proto := rt.Realm.ErrorProtos[kind]
	if proto == nil {
		proto = rt.Realm.ErrorProtos[srcerr.TypeErrorKind]
	}
	o := object.New(proto)
	o.Kind = object.KindError
	rt.track(o)
	o.DefineOwnProperty(rt.key("message"), object.Property{
		Value: rt.str(message), Writable: true, Configurable: true,
	})
	return jsvalue.Object(o)
}

// jsError converts an internal failure (environment lookups, object
// protocol refusals) into the user-visible error kinds spec.md §7
// names. A Thrown passes through untouched.
func (rt *Runtime) jsError(err error) error {
	switch e := err.(type) {
	case nil:
		return nil
	case *Thrown, *abruptReturn, *frameReturn:
		return err
	case *lexenv.ReferenceError:
		return rt.referenceError("%s", e.Error())
	case *lexenv.TDZError:
		return rt.referenceError("%s", e.Error())
	case *lexenv.TypeErrorConstAssign:
		return rt.typeError("%s", e.Error())
	case *srcerr.EngineError:
		return rt.throwError(e.Kind, "%s", e.Message)
	default:
		if err == errTerminated {
			return err
		}
		return rt.typeError("%s", err.Error())
	}
}
