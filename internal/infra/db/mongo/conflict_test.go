package mongo

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConflict(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate key on upsert", mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}, true},
		{"write conflict inside a transaction", mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}, true},
		{"transient commit failure", fmt.Errorf("commit: %w", mongo.CommandError{Code: 251, Labels: []string{transientTxnLabel}}), true},
		{"other server error", mongo.CommandError{Code: 2, Name: "BadValue"}, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, conflict(tc.err))
		})
	}
}
