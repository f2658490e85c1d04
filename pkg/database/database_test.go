package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"microblog.db", "microblog.db?_foreign_keys=on"},
		{":memory:", ":memory:?_foreign_keys=on"},
		{"file:mb.db?cache=shared", "file:mb.db?cache=shared&_foreign_keys=on"},
		{"mb.db?_fk=1", "mb.db?_fk=1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.in), tt.in)
	}
}

func TestOpenSQLiteMemory_ForeignKeysOn(t *testing.T) {
	db, err := OpenSQLiteMemory()
	require.NoError(t, err)

	var on int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&on).Error)
	assert.Equal(t, 1, on)
}
