package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var v struct {
		D  Date  `json:"d"`
		DP *Date `json:"dp"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"2024-02-29","dp":null}`), &v))
	assert.Equal(t, "2024-02-29", v.D.String())
	assert.Nil(t, v.DP)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2024-02-29","dp":null}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"d":"2024-02-30"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"d":20240101}`), &v))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan("2026-01-31"))
	assert.Equal(t, "2026-01-31", d.String())

	require.NoError(t, d.Scan([]byte("2026-02-01T10:00:00Z")))
	assert.Equal(t, "2026-02-01", d.String())

	require.NoError(t, d.Scan(time.Date(2026, 3, 4, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2026-03-04", d.String())

	assert.Error(t, d.Scan(42))

	v, err := MustParseDate("2026-12-31").Value()
	require.NoError(t, err)
	assert.Equal(t, "2026-12-31", v)
}

func TestDateArithmetic(t *testing.T) {
	d := MustParseDate("2026-02-20")
	assert.Equal(t, "2026-03-06", d.AddDays(14).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.False(t, d.AddDays(1).Before(d))
	assert.Equal(t, d, DateOf(time.Date(2026, 2, 20, 18, 30, 0, 0, time.FixedZone("x", 5*3600))))
}

func TestBorrowOverdue(t *testing.T) {
	due := MustParseDate("2026-04-10")
	b := Borrow{DueDate: due}

	assert.False(t, b.OverdueOn(due.AddDays(-1)))
	assert.False(t, b.OverdueOn(due), "due today")
	assert.True(t, b.OverdueOn(due.AddDays(1)))

	b.Returned = true
	assert.False(t, b.OverdueOn(due.AddDays(30)))
}

func TestOptional(t *testing.T) {
	var p struct {
		Name Optional[string] `json:"name"`
		Bio  Optional[string] `json:"bio"`
		Age  Optional[int]    `json:"age"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ada","bio":null}`), &p))
	assert.True(t, p.Name.Set)
	require.NotNil(t, p.Name.Value)
	assert.Equal(t, "Ada", *p.Name.Value)
	assert.True(t, p.Bio.Set)
	assert.Nil(t, p.Bio.Value)
	assert.False(t, p.Age.Set)

	bio := "keep"
	name := "old"
	age := 7
	p.Name.ApplyValue(&name)
	p.Age.ApplyValue(&age)
	assert.Equal(t, "Ada", name)
	assert.Equal(t, 7, age)

	ptr := &bio
	p.Bio.ApplyPtr(&ptr)
	assert.Nil(t, ptr, "explicit null clears")

	Null[int]().ApplyValue(&age)
	assert.Zero(t, age)
	Some(3).ApplyValue(&age)
	assert.Equal(t, 3, age)
}

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	assert.NoError(t, fe.Err())

	fe.Add("title", MsgRequired)
	fe.Add("isbn", "too long")
	err := fe.Err()
	require.Error(t, err)
	assert.Equal(t, "validation failed: isbn: too long; title: This field is required.", err.Error())

	out, err := json.Marshal(fe)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":["This field is required."],"isbn":["too long"]}`, string(out))
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleMember.Valid())
	assert.True(t, RoleWorker.Valid())
	assert.False(t, Role("admin").Valid())
}
