package directory

import (
	"bytes"

	storage "github.com/tarantool/go-record"
	"github.com/tarantool/go-record/record"
)

// TenantKind is the type tag every hydrated Tenant carries.
const TenantKind = "directory.v1.Tenant"

// TenantTable is the table name of tenants.
const TenantTable = "tenant"

// Tenant groups users.
type Tenant struct {
	Kind  string
	ID    []byte
	Alias string
	Name  string
}

// TenantEntity is the stored form of a Tenant.
type TenantEntity struct {
	ID    []byte `msgpack:"id"    yaml:"id"`
	Alias string `msgpack:"alias" yaml:"alias"`
	Name  string `msgpack:"name"  yaml:"name"`
}

// Tenants is the record table of tenants.
type Tenants = record.Table[*Tenant, TenantEntity]

// TenantShape returns the shape of the tenant table.
func TenantShape() record.Funcs[*Tenant, TenantEntity] {
	return record.Funcs[*Tenant, TenantEntity]{
		Table: TenantTable,
		Encode: func(t *Tenant) (string, TenantEntity, error) {
			key, err := record.IdentKey(t.ID)
			if err != nil {
				return "", TenantEntity{}, err
			}

			return key, TenantEntity{ID: t.ID, Alias: t.Alias, Name: t.Name}, nil
		},
		Decode: func(e TenantEntity) (*Tenant, error) {
			return &Tenant{Kind: TenantKind, ID: e.ID, Alias: e.Alias, Name: e.Name}, nil
		},
		Compare: nil,
		Copy: func(t *Tenant) *Tenant {
			out := *t
			out.ID = bytes.Clone(t.ID)

			return &out
		},
		Unique: []record.Index[TenantEntity]{
			{Name: AliasIndex, Key: tenantAlias},
		},
	}
}

// NewTenants binds the tenant table to strg.
func NewTenants(strg storage.Storage, opts ...record.Option) *Tenants {
	return record.New[*Tenant, TenantEntity](strg, TenantShape(), opts...)
}

func tenantAlias(e TenantEntity) []string {
	if e.Alias == "" {
		return nil
	}

	return []string{e.Alias}
}
