package schema

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// AssociationType describes an association wrapper capability: a marker
// interface that properties referencing other aggregates implement, and
// the resolution of the wrapped target type.
type AssociationType struct {
	// Marker is the interface a property type must be assignable to.
	Marker reflect.Type
	// Target resolves the wrapped type on a property type. It may return
	// nil when the target cannot be determined.
	Target func(info typeinfo.TypeInformation) typeinfo.TypeInformation
}

func (a *AssociationType) matches(t reflect.Type) bool {
	return a != nil && t != nil && t.AssignableTo(a.Marker)
}

func (a *AssociationType) target(info typeinfo.TypeInformation) typeinfo.TypeInformation {
	if a == nil || a.Target == nil || info == nil {
		return nil
	}
	return a.Target(info)
}

func (a *AssociationType) isMarker(t reflect.Type) bool {
	return a != nil && t == a.Marker
}

var (
	associationMu         sync.RWMutex
	registeredAssociation *AssociationType
)

// RegisterAssociationType makes an association capability available to
// every Context created afterwards. It is meant to be called from the init
// function of the package providing the marker and panics when called
// twice or with a non-interface marker.
func RegisterAssociationType(a AssociationType) {
	associationMu.Lock()
	defer associationMu.Unlock()

	if a.Marker == nil || a.Marker.Kind() != reflect.Interface {
		panic(fmt.Sprintf("schema: association marker must be an interface, got %v", a.Marker))
	}
	if registeredAssociation != nil {
		panic("schema: RegisterAssociationType called twice for marker " + a.Marker.String())
	}
	registeredAssociation = &a
}

// RegisteredAssociationType returns the registered association capability.
func RegisteredAssociationType() (AssociationType, bool) {
	associationMu.RLock()
	defer associationMu.RUnlock()

	if registeredAssociation == nil {
		return AssociationType{}, false
	}
	return *registeredAssociation, true
}

// Association is the handle of an association property.
type Association struct {
	property *PersistentProperty
	target   typeinfo.TypeInformation
}

// Property returns the property holding the association.
func (a *Association) Property() *PersistentProperty { return a.property }

// Target returns the referenced type, nil when it cannot be resolved.
func (a *Association) Target() typeinfo.TypeInformation { return a.target }

func (a *Association) String() string {
	return fmt.Sprintf("association %s -> %v", a.property, a.target)
}
