package record_test

import (
	"bytes"
	"context"
	"time"

	storage "github.com/tarantool/go-record"
	"github.com/tarantool/go-record/driver"
	"github.com/tarantool/go-record/driver/dummy"
	"github.com/tarantool/go-record/ident"
	"github.com/tarantool/go-record/operation"
	"github.com/tarantool/go-record/predicate"
	"github.com/tarantool/go-record/record"
	"github.com/tarantool/go-record/tx"
)

const userKind = "example.v1.User"

type user struct {
	Kind     string
	ID       []byte
	TenantID []byte
	Alias    string
	Name     string
	Updated  time.Time
}

type userEntity struct {
	ID       []byte `msgpack:"id"        yaml:"id"`
	TenantID []byte `msgpack:"tenant_id" yaml:"tenant_id"`
	Alias    string `msgpack:"alias"     yaml:"alias"`
	Name     string `msgpack:"name"      yaml:"name"`
	Updated  int64  `msgpack:"updated"   yaml:"updated"`
}

// userShape is versioned by Updated and unique by (TenantID, Alias).
type userShape struct{}

func (userShape) Name() string { return "user" }

func (userShape) Dehydrate(u *user) (string, userEntity, error) {
	key, err := record.IdentKey(u.ID)
	if err != nil {
		return "", userEntity{}, err
	}

	return key, userEntity{
		ID:       u.ID,
		TenantID: u.TenantID,
		Alias:    u.Alias,
		Name:     u.Name,
		Updated:  u.Updated.UnixNano(),
	}, nil
}

func (userShape) Hydrate(e userEntity) (*user, error) {
	return &user{
		Kind:     userKind,
		ID:       e.ID,
		TenantID: e.TenantID,
		Alias:    e.Alias,
		Name:     e.Name,
		Updated:  time.Unix(0, e.Updated).UTC(),
	}, nil
}

func (userShape) CompareVersion(a, b userEntity) int {
	return record.CompareTime(time.Unix(0, a.Updated), time.Unix(0, b.Updated))
}

func (userShape) Clone(u *user) *user {
	out := *u
	out.ID = bytes.Clone(u.ID)
	out.TenantID = bytes.Clone(u.TenantID)

	return &out
}

func (userShape) Indexes() []record.Index[userEntity] {
	return []record.Index[userEntity]{{
		Name: "alias",
		Key: func(e userEntity) []string {
			if e.Alias == "" {
				return nil
			}

			tenant, _ := ident.Decode(e.TenantID)

			return []string{tenant, e.Alias}
		},
	}}
}

var (
	tenantA = ident.MustEncode("6ba7b810-9dad-11d1-80b4-00c04fd430c8") //nolint:gochecknoglobals
	t0      = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)              //nolint:gochecknoglobals
	t1      = t0.Add(time.Hour)                                        //nolint:gochecknoglobals
)

func newUser(id []byte, alias string, updated time.Time) *user {
	return &user{
		Kind:     userKind,
		ID:       id,
		TenantID: tenantA,
		Alias:    alias,
		Name:     "User " + alias,
		Updated:  updated,
	}
}

func userKey(u *user) string {
	key, _ := ident.Decode(u.ID)
	return key
}

func aliasOf(u *user) record.Query {
	tenant, _ := ident.Decode(u.TenantID)
	return record.ByIndex("alias", tenant, u.Alias)
}

func newUserTable(opts ...record.Option) (*record.Table[*user, userEntity], *dummy.Driver) {
	drv := dummy.New()
	return record.New[*user, userEntity](storage.NewStorage(drv), userShape{}, opts...), drv
}

type counter struct {
	Name  string `msgpack:"name"`
	Label string `msgpack:"label"`
	Value int    `msgpack:"value"`
}

// counterFuncs is an unversioned shape built from functions.
func counterFuncs() record.Funcs[*counter, counter] {
	return record.Funcs[*counter, counter]{
		Table: "counter",
		Encode: func(c *counter) (string, counter, error) {
			return c.Name, *c, nil
		},
		Decode: func(c counter) (*counter, error) {
			return &c, nil
		},
		Compare: nil,
		Copy:    nil,
		Unique:  nil,
	}
}

// losingDriver fails every conditional transaction as if another writer
// always got there first.
type losingDriver struct {
	driver.Driver
}

func (d losingDriver) Execute(
	ctx context.Context,
	predicates []predicate.Predicate,
	thenOps []operation.Operation,
	elseOps []operation.Operation,
) (tx.Response, error) {
	if len(predicates) == 0 {
		return d.Driver.Execute(ctx, nil, thenOps, nil)
	}

	resp, err := d.Driver.Execute(ctx, nil, elseOps, nil)
	resp.Succeeded = false

	return resp, err
}
