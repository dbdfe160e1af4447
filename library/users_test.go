package library

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserVariants(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	staff, err := lm.CreateUser(ctx, NewUser{
		UserType: KindStaff, Name: "Bruno", Email: "bruno@example.com", Password: "pw", Role: "librarian",
	})
	require.NoError(t, err)
	assert.Equal(t, KindStaff, staff.Kind())
	p, ok := staff.Staff()
	require.True(t, ok)
	assert.Equal(t, "librarian", p.Role)
	assert.NotEqual(t, "pw", staff.PasswordHash)
	assert.Nil(t, staff.UpdatedAt)

	customer, err := lm.CreateUser(ctx, NewUser{
		UserType: KindCustomer, Name: "Ana", Email: "ana@example.com", Password: "pw",
		CustomerType: CustomerCorporate, Address: "Rua B, 2",
	})
	require.NoError(t, err)
	c, ok := customer.Customer()
	require.True(t, ok)
	assert.Equal(t, CustomerCorporate, c.CustomerType)
	assert.Equal(t, "Rua B, 2", c.Address)
	_, ok = customer.Staff()
	assert.False(t, ok)

	got, err := lm.GetUser(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, customer.Profile, got.Profile)
}

func TestCreateUserEmailUniqueAcrossVariants(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	_, err := lm.CreateUser(ctx, NewUser{UserType: KindStaff, Name: "A", Email: "same@example.com", Password: "pw", Role: "clerk"})
	require.NoError(t, err)

	_, err = lm.CreateUser(ctx, NewUser{UserType: KindCustomer, Name: "B", Email: "same@example.com", Password: "pw"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateUserValidation(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()

	base := func(mod func(*NewUser)) NewUser {
		in := NewUser{UserType: KindCustomer, Name: "Ana", Email: "ana@example.com", Password: "pw"}
		mod(&in)
		return in
	}
	cases := map[string]NewUser{
		"unknown type":       base(func(in *NewUser) { in.UserType = "admin" }),
		"missing type":       base(func(in *NewUser) { in.UserType = "" }),
		"blank name":         base(func(in *NewUser) { in.Name = " " }),
		"bad email":          base(func(in *NewUser) { in.Email = "ana" }),
		"empty password":     base(func(in *NewUser) { in.Password = "" }),
		"role on customer":   base(func(in *NewUser) { in.Role = "boss" }),
		"bad customer type":  base(func(in *NewUser) { in.CustomerType = "vip" }),
		"staff without role": base(func(in *NewUser) { in.UserType = KindStaff }),
		"address on staff": base(func(in *NewUser) {
			in.UserType, in.Role, in.Address = KindStaff, "clerk", "Rua C"
		}),
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := lm.CreateUser(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	lm := newManager(t)
	u, err := lm.CreateUser(context.Background(), NewUser{
		UserType: KindStaff, Name: "Bruno", Email: "bruno@example.com", Password: "pw", Role: "librarian",
	})
	require.NoError(t, err)

	out, err := json.Marshal(u)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "funcionario", doc["user_type"])
	assert.NotContains(t, doc, "password_hash")
	assert.NotContains(t, doc, "PasswordHash")
	assert.Equal(t, map[string]any{"role": "librarian"}, doc["profile"])
}

func TestListUsersFiltersByKind(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()
	newFixture(t, lm)

	all, err := lm.ListUsers(ctx, Page{}, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	staff, err := lm.ListUsers(ctx, Page{}, KindStaff)
	require.NoError(t, err)
	require.Len(t, staff, 1)
	assert.Equal(t, KindStaff, staff[0].Kind())

	_, err = lm.ListUsers(ctx, Page{}, "admin")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUser(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()
	f := newFixture(t, lm)

	updated, err := lm.UpdateUser(ctx, f.customer.ID, UserUpdate{Name: Set("Ana Maria"), Address: Null[string]()})
	require.NoError(t, err)
	assert.Equal(t, "Ana Maria", updated.Name)
	assert.Equal(t, f.customer.Email, updated.Email)
	require.NotNil(t, updated.UpdatedAt)
	c, _ := updated.Customer()
	assert.Equal(t, "", c.Address)
	assert.Equal(t, CustomerIndividual, c.CustomerType)

	// Own email is not a conflict.
	_, err = lm.UpdateUser(ctx, f.customer.ID, UserUpdate{Email: Set(f.customer.Email)})
	require.NoError(t, err)

	_, err = lm.UpdateUser(ctx, f.customer.ID, UserUpdate{Email: Set(f.staff.Email)})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = lm.UpdateUser(ctx, f.customer.ID, UserUpdate{Role: Set("boss")})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = lm.UpdateUser(ctx, f.staff.ID, UserUpdate{Role: Null[string]()})
	assert.ErrorIs(t, err, ErrValidation)

	staff, err := lm.UpdateUser(ctx, f.staff.ID, UserUpdate{Role: Set("manager")})
	require.NoError(t, err)
	p, _ := staff.Staff()
	assert.Equal(t, "manager", p.Role)

	_, err = lm.UpdateUser(ctx, 999, UserUpdate{Name: Set("x")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthenticate(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()
	f := newFixture(t, lm)

	u, err := lm.Authenticate(ctx, "ana@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, u.ID)

	_, err = lm.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = lm.Authenticate(ctx, "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = lm.UpdateUser(ctx, f.customer.ID, UserUpdate{Password: Set("n3w")})
	require.NoError(t, err)
	_, err = lm.Authenticate(ctx, "ana@example.com", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = lm.Authenticate(ctx, "ana@example.com", "n3w")
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	lm := newManager(t)
	ctx := context.Background()
	f := newFixture(t, lm)

	assert.ErrorIs(t, lm.DeleteUser(ctx, 999), ErrNotFound)
	require.NoError(t, lm.DeleteUser(ctx, f.staff.ID))
	_, err := lm.GetUser(ctx, f.staff.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
