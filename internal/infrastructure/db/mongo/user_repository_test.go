package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ebms/billing-system/internal/core/domain"
)

func dupKey(msg string) error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: msg}}}
}

func TestDuplicateOr(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "email clash",
			err:  dupKey(`E11000 duplicate key error collection: ebms.users index: uniq_email dup key: { email: "asha@example.com" }`),
			want: domain.ErrUserExists,
		},
		{
			name: "email that mentions meter",
			err:  dupKey(`E11000 duplicate key error collection: ebms.users index: uniq_email dup key: { email: "meter.reader@x.com" }`),
			want: domain.ErrUserExists,
		},
		{
			name: "meter clash",
			err:  dupKey(`E11000 duplicate key error collection: ebms.users index: uniq_customer_meter dup key: { meter_number: "M-100" }`),
			want: domain.ErrMeterExists,
		},
		{
			name: "meter clash reported as command error",
			err:  mongo.CommandError{Code: 11000, Message: `E11000 duplicate key error collection: ebms.users index: uniq_customer_meter dup key: { meter_number: "M-1" }`},
			want: domain.ErrMeterExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, duplicateOr(tt.err, "insert user"), tt.want)
		})
	}
}

func TestDuplicateOr_OtherErrorsAreStorage(t *testing.T) {
	err := duplicateOr(errors.New("connection reset"), "insert user")
	assert.ErrorIs(t, err, domain.ErrStorage)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}
