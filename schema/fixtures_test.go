package schema

import (
	"io/fs"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/Konsultn-Engineering/mapping/typeinfo"
)

// =========================================================================
// Creators
// =========================================================================

type person struct {
	firstname string
	lastname  string
}

func newPerson(firstname, lastname string) *person {
	return &person{firstname: firstname, lastname: lastname}
}

type factoryPerson struct {
	firstname string
	lastname  string
}

func newFactoryPerson(firstname, lastname string) factoryPerson {
	return factoryPerson{firstname: firstname, lastname: lastname}
}

func factoryPersonOf(firstname string) factoryPerson {
	return factoryPerson{firstname: firstname, lastname: "unknown"}
}

func factoryPersonOfFull(firstname, lastname string) factoryPerson {
	return factoryPerson{firstname: firstname, lastname: lastname}
}

type constructorPerson struct {
	firstname string
	lastname  string
}

func newConstructorPerson(firstname, lastname string) *constructorPerson {
	return &constructorPerson{firstname: firstname, lastname: lastname}
}

func constructorPersonOf(firstname, lastname string) *constructorPerson {
	return newConstructorPerson(firstname, lastname)
}

func (p *constructorPerson) Clone() *constructorPerson {
	c := *p
	return &c
}

type nonStaticFactory struct {
	label string
}

func (nonStaticFactory) Of(firstname, lastname string) *constructorPerson {
	return newConstructorPerson(firstname, lastname)
}

type widget struct {
	Size int
}

func NewWidget() *widget { return &widget{} }

func NewWidgetOther() *widget { return &widget{Size: 1} }

func newWidget() *widget { return &widget{} }

func newSizedWidget(size int) *widget { return &widget{Size: size} }

func otherPerson() *person { return &person{} }

// =========================================================================
// Properties
// =========================================================================

type account struct {
	ID       int64     `db:"id;primary"`
	Email    string    `db:"email_address"`
	name     string
	Revision int       `db:"version"`
	Created  time.Time `db:"created_at;readonly"`
	Secret   string    `db:"transient"`
	Ignored  string    `db:"-"`
	nickname string
	Tracking uuid.UUID
}

func (a *account) Name() string { return a.name }

func (a *account) SetName(name string) { a.name = name }

func (a account) Nickname() string { return a.nickname }

func (a account) WithNickname(nickname string) account {
	a.nickname = nickname
	return a
}

type plainID struct {
	ID   string
	Name string
}

type named interface {
	Name() string
	SetName(string)
	GetDescription() string
	Settings() map[string]string
	Reset(bool) error
}

type pathFailure struct {
	fs.PathError
	Retry bool
	Hint  string `db:"access:property"`
}

type audit struct {
	Stamp string
	At    string `db:"access:field"`
}

type timestamped struct {
	time.Time
	Label string
}

type base struct {
	ID      int64
	Created time.Time
}

type derived struct {
	base
	Title string
}

// =========================================================================
// Entity types
// =========================================================================

type address struct {
	Street string
	City   string
}

type order struct {
	Number string
}

type catalog struct {
	Tags      map[string]string
	ByCode    map[string]*address
	ByAddress map[address]int
	Nested    map[address][]order
	Lines     []address
	Matrix    [][]*address
	Fixed     [2]address
	Primary   *address
	Names     []string
	Count     int
	Anything  any
	Hidden    address `db:"transient"`
}

type node struct {
	Name     string
	Parent   *node
	Children []*node
	Peer     *peer
}

type peer struct {
	Node *node
}

type brokenLeaf struct {
	Code string `db:"transient;primary"`
}

type brokenRoot struct {
	Name string
	Leaf *brokenLeaf
}

// =========================================================================
// Associations
// =========================================================================

type reference interface {
	referenceMarker()
}

type addressRef struct {
	id int
}

func (addressRef) referenceMarker() {}

type shipment struct {
	Destination addressRef
	Source      *addressRef
	Raw         reference
	Origin      address
	Stops       []addressRef
}

var referenceType = reflect.TypeFor[reference]()

// testAssociation resolves addressRef to address.
var testAssociation = AssociationType{
	Marker: referenceType,
	Target: func(info typeinfo.TypeInformation) typeinfo.TypeInformation {
		if typeinfo.Indirect(info.Type()) == reflect.TypeFor[addressRef]() {
			return typeinfo.Of[address]()
		}
		return nil
	},
}

// =========================================================================
// Naming
// =========================================================================

type legacyUser struct {
	ID int64
}

func (legacyUser) TableName() string { return "tbl_users" }

type blogPost struct {
	ID int64
}
