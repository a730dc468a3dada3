package directory

import (
	"bytes"

	"google.golang.org/protobuf/types/known/timestamppb"

	storage "github.com/tarantool/go-record"
	"github.com/tarantool/go-record/ident"
	"github.com/tarantool/go-record/record"
)

// UserKind is the type tag every hydrated User carries.
const UserKind = "directory.v1.User"

// UserTable is the table name of users.
const UserTable = "user"

// AliasIndex is the unique index of both tables. Tenants are unique by
// alias, users by tenant identifier and alias.
const AliasIndex = "alias"

// User belongs to one tenant.
type User struct {
	Kind        string
	ID          []byte
	TenantID    []byte
	Alias       string
	Name        string
	DateCreated *timestamppb.Timestamp
	DateUpdated *timestamppb.Timestamp
}

// Timestamp is the stored form of a protobuf timestamp.
type Timestamp struct {
	Seconds int64 `msgpack:"s" yaml:"s"`
	Nanos   int32 `msgpack:"n" yaml:"n"`
}

// UserEntity is the stored form of a User.
type UserEntity struct {
	ID          []byte     `msgpack:"id"                     yaml:"id"`
	TenantID    []byte     `msgpack:"tenant_id"              yaml:"tenant_id"`
	Alias       string     `msgpack:"alias"                  yaml:"alias"`
	Name        string     `msgpack:"name"                   yaml:"name"`
	DateCreated *Timestamp `msgpack:"date_created,omitempty" yaml:"date_created,omitempty"`
	DateUpdated *Timestamp `msgpack:"date_updated,omitempty" yaml:"date_updated,omitempty"`
}

// Users is the record table of users.
type Users = record.Table[*User, UserEntity]

// UserShape is the shape of the user table.
type UserShape struct{}

var (
	_ record.Shape[*User, UserEntity] = UserShape{}
	_ record.Versioned[UserEntity]    = UserShape{}
	_ record.Cloner[*User]            = UserShape{}
	_ record.Indexed[UserEntity]      = UserShape{}
)

// Name implements record.Shape.
func (UserShape) Name() string {
	return UserTable
}

// Dehydrate implements record.Shape.
func (UserShape) Dehydrate(u *User) (string, UserEntity, error) {
	key, err := record.IdentKey(u.ID)
	if err != nil {
		return "", UserEntity{}, err
	}

	return key, UserEntity{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Alias:       u.Alias,
		Name:        u.Name,
		DateCreated: fromProto(u.DateCreated),
		DateUpdated: fromProto(u.DateUpdated),
	}, nil
}

// Hydrate implements record.Shape.
func (UserShape) Hydrate(e UserEntity) (*User, error) {
	return &User{
		Kind:        UserKind,
		ID:          e.ID,
		TenantID:    e.TenantID,
		Alias:       e.Alias,
		Name:        e.Name,
		DateCreated: e.DateCreated.proto(),
		DateUpdated: e.DateUpdated.proto(),
	}, nil
}

// CompareVersion implements record.Versioned by DateUpdated.
func (UserShape) CompareVersion(a, b UserEntity) int {
	return record.CompareTimestamp(a.DateUpdated.proto(), b.DateUpdated.proto())
}

// Clone implements record.Cloner.
func (UserShape) Clone(u *User) *User {
	out := *u
	out.ID = bytes.Clone(u.ID)
	out.TenantID = bytes.Clone(u.TenantID)

	out.DateCreated = fromProto(u.DateCreated).proto()
	out.DateUpdated = fromProto(u.DateUpdated).proto()

	return &out
}

// Indexes implements record.Indexed.
func (UserShape) Indexes() []record.Index[UserEntity] {
	return []record.Index[UserEntity]{
		{Name: AliasIndex, Key: userAlias},
	}
}

// UserAlias returns the alias index parts of a user.
func UserAlias(tenantID []byte, alias string) []string {
	tenant, ok := ident.Decode(tenantID)
	if !ok || alias == "" {
		return nil
	}

	return []string{tenant, alias}
}

func userAlias(e UserEntity) []string {
	return UserAlias(e.TenantID, e.Alias)
}

// NewUsers binds the user table to strg.
func NewUsers(strg storage.Storage, opts ...record.Option) *Users {
	return record.New[*User, UserEntity](strg, UserShape{}, opts...)
}

func fromProto(ts *timestamppb.Timestamp) *Timestamp {
	if ts == nil {
		return nil
	}

	return &Timestamp{Seconds: ts.GetSeconds(), Nanos: ts.GetNanos()}
}

func (ts *Timestamp) proto() *timestamppb.Timestamp {
	if ts == nil {
		return nil
	}

	return &timestamppb.Timestamp{Seconds: ts.Seconds, Nanos: ts.Nanos}
}
