package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKey(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '100-7' for key 'uq_cart_entries_seat'"}
	assert.True(t, isDuplicateKey(dup))
	assert.True(t, isDuplicateKey(fmt.Errorf("insert cart entry: %w", dup)))

	assert.False(t, isDuplicateKey(&mysql.MySQLError{Number: 1452, Message: "foreign key fails"}))
	assert.False(t, isDuplicateKey(errors.New("connection reset")))

	// String fallback for non-driver errors carrying the MySQL code.
	assert.True(t, isDuplicateKey(errors.New("Error 1062: Duplicate entry")))
}
